package models

import "time"

// SourceType labels which collection a retrieved chunk came from.
type SourceType string

const (
	SourceChat SourceType = "chat"
	SourceDocs SourceType = "documentation"
)

// RetrievedChunk is one store hit, carried in descending relevance order.
type RetrievedChunk struct {
	Text       string            `json:"text"`
	Source     SourceType        `json:"source"`
	Rank       int               `json:"rank"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ProviderResult holds one provider's response or failure. Exactly one of
// Response/Err is set.
type ProviderResult struct {
	Provider string        `json:"provider"`
	Response string        `json:"response,omitempty"`
	Err      string        `json:"error,omitempty"`
	Latency  time.Duration `json:"latency"`
}

// Failed reports whether the provider call errored.
func (r ProviderResult) Failed() bool {
	return r.Err != ""
}

// AnalysisOutcome collects all provider results for one run, in dispatch
// order. Written once, never mutated after write.
type AnalysisOutcome struct {
	Name       string           `json:"name"`
	Prompt     string           `json:"prompt"`
	Retrieved  []RetrievedChunk `json:"retrieved"`
	Results    []ProviderResult `json:"results"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Result returns the result for a provider name, if present.
func (o *AnalysisOutcome) Result(provider string) (ProviderResult, bool) {
	for _, r := range o.Results {
		if r.Provider == provider {
			return r, true
		}
	}
	return ProviderResult{}, false
}

// SourceCounts tallies retrieved chunks per source collection.
func (o *AnalysisOutcome) SourceCounts() map[SourceType]int {
	counts := make(map[SourceType]int)
	for _, c := range o.Retrieved {
		counts[c.Source]++
	}
	return counts
}
