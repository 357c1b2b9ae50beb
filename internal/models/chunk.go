package models

import (
	"fmt"

	"github.com/google/uuid"
)

var docNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("trillm/docs"))

// DocChunk is a bounded-size segment of a documentation file.
type DocChunk struct {
	Text       string `json:"text"`
	SourcePath string `json:"source_path"`
	ChunkIndex int    `json:"chunk_index"`

	// Section context carried from the markdown structure, used only for
	// labeling retrieved context.
	Title   string `json:"title,omitempty"`
	Section string `json:"section,omitempty"`
}

// ID derives a stable identifier from (source_path, chunk_index) for
// idempotent re-ingestion.
func (c DocChunk) ID() string {
	key := fmt.Sprintf("%s|%d", c.SourcePath, c.ChunkIndex)
	return uuid.NewSHA1(docNamespace, []byte(key)).String()
}
