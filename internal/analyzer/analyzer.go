// Package analyzer retrieves context from the vector store, assembles the
// prompt and fans it out to the configured language model providers.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/multisource/trillm/internal/config"
	"github.com/multisource/trillm/internal/metrics"
	"github.com/multisource/trillm/internal/models"
	"github.com/multisource/trillm/internal/prompt"
	"github.com/multisource/trillm/internal/store"
)

// systemPrompt frames every provider call. It is identical across providers
// so their answers stay comparable.
const systemPrompt = `You are an expert data analyst specializing in community feedback analysis and documentation.
Your task is to analyze both official documentation and chat conversations to extract actionable insights.
Focus on identifying patterns, categorizing issues, and providing concrete recommendations.

When creating response documents:
1. Prioritize information from official documentation over community conversations
2. Use community conversations to identify common questions and pain points
3. Format your output in a clear, structured manner with proper headings and sections
4. For technical information, include code examples when relevant
5. For command-line instructions, use proper formatting

Use a professional, analytical tone and organize your findings clearly.`

// State tracks the progress of a single analysis run.
type State string

const (
	StatePending     State = "pending"
	StateRetrieving  State = "retrieving"
	StateDispatching State = "dispatching"
	StateWriting     State = "writing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Provider is one language model backend. Generate blocks until the provider
// responds or ctx expires.
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Searcher is the retrieval surface of the vector store.
type Searcher interface {
	Query(ctx context.Context, collection, queryText string, topK int) ([]store.Record, error)
}

// Analyzer runs retrieval-augmented analysis across one or more providers.
type Analyzer struct {
	store     Searcher
	providers []Provider
	cfg       config.Config
	metrics   *metrics.Collector

	mu    sync.Mutex
	state State
}

// New builds an Analyzer over the given store and providers.
func New(st Searcher, providers []Provider, cfg config.Config, collector *metrics.Collector) *Analyzer {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Analyzer{
		store:     st,
		providers: providers,
		cfg:       cfg,
		metrics:   collector,
		state:     StatePending,
	}
}

// State returns the current run state.
func (a *Analyzer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Analyzer) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Metrics exposes the run's operation timings.
func (a *Analyzer) Metrics() *metrics.Collector {
	return a.metrics
}

// Persist receives the settled outcome during the writing phase. A nil
// Persist skips writing. A Persist error is surfaced to the caller together
// with the outcome, so results are never silently dropped.
type Persist func(*models.AnalysisOutcome) error

// Run retrieves context for tpl, renders the prompt, dispatches it to every
// provider concurrently and hands the settled outcome to persist. Provider
// failures are recorded in the outcome and never abort the run; Run itself
// fails only on retrieval or persistence failure, or when no provider is
// configured. The run always reaches the writing phase regardless of
// individual provider failures.
func (a *Analyzer) Run(ctx context.Context, tpl *prompt.Template, persist Persist) (*models.AnalysisOutcome, error) {
	if len(a.providers) == 0 {
		a.setState(StateFailed)
		return nil, fmt.Errorf("no providers configured")
	}

	outcome, err := a.prepare(ctx, tpl)
	if err != nil {
		return nil, err
	}

	a.setState(StateDispatching)
	outcome.Results = a.dispatch(ctx, outcome.Prompt)
	outcome.FinishedAt = time.Now()

	return a.write(outcome, persist)
}

// RunSingle runs the prompt against exactly one provider. Unlike Run, a
// provider failure here fails the whole operation. Used by the fallback path
// when a provider was skipped or errored during a fan-out run.
func (a *Analyzer) RunSingle(ctx context.Context, tpl *prompt.Template, provider Provider, persist Persist) (*models.AnalysisOutcome, error) {
	outcome, err := a.prepare(ctx, tpl)
	if err != nil {
		return nil, err
	}

	a.setState(StateDispatching)
	result := a.callProvider(ctx, provider, outcome.Prompt)
	outcome.Results = []models.ProviderResult{result}
	outcome.FinishedAt = time.Now()

	if result.Failed() {
		a.setState(StateFailed)
		return outcome, fmt.Errorf("provider %s: %s", result.Provider, result.Err)
	}
	return a.write(outcome, persist)
}

// prepare runs the retrieval phase and renders the prompt.
func (a *Analyzer) prepare(ctx context.Context, tpl *prompt.Template) (*models.AnalysisOutcome, error) {
	outcome := &models.AnalysisOutcome{
		Name:      tpl.Name(),
		StartedAt: time.Now(),
	}

	a.setState(StateRetrieving)
	retrieved, err := a.retrieve(ctx, tpl.Query())
	if err != nil {
		a.setState(StateFailed)
		return nil, err
	}
	retrieved = a.capToTokenBudget(retrieved)
	outcome.Retrieved = retrieved
	outcome.Prompt = tpl.Render(retrieved)
	return outcome, nil
}

// write runs the writing phase. On persist failure the outcome is still
// returned alongside the error.
func (a *Analyzer) write(outcome *models.AnalysisOutcome, persist Persist) (*models.AnalysisOutcome, error) {
	a.setState(StateWriting)
	if persist != nil {
		if err := persist(outcome); err != nil {
			a.setState(StateFailed)
			return outcome, fmt.Errorf("persist outcome: %w", err)
		}
	}
	a.setState(StateDone)
	return outcome, nil
}

// retrieve queries the chat collection first, then documentation. Within each
// block hits stay in descending similarity order; ranks are assigned over the
// merged list.
func (a *Analyzer) retrieve(ctx context.Context, query string) ([]models.RetrievedChunk, error) {
	started := time.Now()

	chat, err := a.store.Query(ctx, a.cfg.ChatCollection, query, a.cfg.TopK)
	if err != nil {
		a.metrics.Record(metrics.OpRetrieval, time.Since(started), true)
		return nil, fmt.Errorf("query chat collection: %w", err)
	}
	docs, err := a.store.Query(ctx, a.cfg.DocsCollection, query, a.cfg.TopK)
	if err != nil {
		a.metrics.Record(metrics.OpRetrieval, time.Since(started), true)
		return nil, fmt.Errorf("query docs collection: %w", err)
	}
	a.metrics.Record(metrics.OpRetrieval, time.Since(started), false)

	merged := make([]models.RetrievedChunk, 0, len(chat)+len(docs))
	for _, r := range chat {
		merged = append(merged, toChunk(r, models.SourceChat))
	}
	for _, r := range docs {
		merged = append(merged, toChunk(r, models.SourceDocs))
	}
	for i := range merged {
		merged[i].Rank = i
	}

	slog.Info("retrieved context", "chat", len(chat), "docs", len(docs))
	return merged, nil
}

// capToTokenBudget drops trailing chunks once the estimated token count
// exceeds the configured input budget. Tokens are estimated at four
// characters each.
func (a *Analyzer) capToTokenBudget(chunks []models.RetrievedChunk) []models.RetrievedChunk {
	if a.cfg.MaxInputTokens <= 0 {
		return chunks
	}
	total := 0
	for i, c := range chunks {
		total += len(c.Text) / 4
		if total > a.cfg.MaxInputTokens {
			slog.Warn("context exceeds input budget, truncating",
				"kept", i, "dropped", len(chunks)-i, "estimated_tokens", total)
			return chunks[:i]
		}
	}
	return chunks
}

// dispatch fans the prompt out to all providers at once. Each goroutine owns
// exactly one result slot; the call joins when every provider has answered
// or timed out. One provider's failure never cancels the others.
func (a *Analyzer) dispatch(ctx context.Context, userPrompt string) []models.ProviderResult {
	results := make([]models.ProviderResult, len(a.providers))

	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(slot int, provider Provider) {
			defer wg.Done()
			results[slot] = a.callProvider(ctx, provider, userPrompt)
		}(i, p)
	}
	wg.Wait()

	return results
}

func (a *Analyzer) callProvider(ctx context.Context, provider Provider, userPrompt string) models.ProviderResult {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.ProviderTimeout)
	defer cancel()

	started := time.Now()
	response, err := provider.Generate(callCtx, systemPrompt, userPrompt)
	latency := time.Since(started)
	a.metrics.Record(metrics.OpProvider+":"+provider.Name(), latency, err != nil)

	result := models.ProviderResult{
		Provider: provider.Name(),
		Latency:  latency,
	}
	if err != nil {
		result.Err = err.Error()
		slog.Error("provider call failed", "provider", provider.Name(), "latency", latency, "error", err)
		return result
	}
	result.Response = response
	slog.Info("provider call succeeded", "provider", provider.Name(), "latency", latency, "chars", len(response))
	return result
}

func toChunk(r store.Record, source models.SourceType) models.RetrievedChunk {
	return models.RetrievedChunk{
		Text:       r.Text,
		Source:     source,
		Similarity: r.Similarity,
		Metadata:   r.Metadata,
	}
}
