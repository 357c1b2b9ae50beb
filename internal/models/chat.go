// Package models defines the value types shared across the toolkit.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// chatNamespace salts derived chat record IDs so they cannot collide with
// IDs derived for other record kinds.
var chatNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("trillm/chat"))

// ChatRecord is a single chat message as read from the input CSV.
// Immutable once ingested.
type ChatRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
}

// ID derives a stable identifier from (timestamp, author) so re-ingesting
// the same CSV upserts rather than duplicates.
func (r ChatRecord) ID() string {
	key := fmt.Sprintf("%s|%s", r.Timestamp.UTC().Format(time.RFC3339), r.Author)
	return uuid.NewSHA1(chatNamespace, []byte(key)).String()
}

// Document renders the record the way it is embedded and stored:
// "[timestamp] author: message".
func (r ChatRecord) Document() string {
	return fmt.Sprintf("[%s] %s: %s", r.Timestamp.UTC().Format(time.RFC3339), r.Author, r.Message)
}
