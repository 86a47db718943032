// Package models defines the domain types shared by the host layer.
package models

import (
	"time"

	"github.com/starford/bedrock/internal/editor"
)

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionState is what the host sees after every editor operation on an open
// note: the authoritative text and selection plus freshly formatted markup.
type SessionState struct {
	ID        string           `json:"id"`
	Path      string           `json:"path"`
	Text      string           `json:"text"`
	Selection editor.Selection `json:"selection"`
	Revision  uint64           `json:"revision"`
	Markup    string           `json:"markup"`
	Applied   bool             `json:"applied"`
	Dirty     bool             `json:"dirty"`
}
