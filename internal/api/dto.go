package api

import (
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/bedrock/internal/editor"
	"github.com/starford/bedrock/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Content string `json:"content" example:"# Hello\nWorld"`
}

// Validate validates the request.
func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, validation.By(markdownPath)),
	)
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent"`
}

// Validate validates the request.
func (r *UpdateNoteRequest) Validate() error { return nil }

// RenameNoteRequest is the request body for moving a note.
type RenameNoteRequest struct {
	From string `json:"from" example:"inbox/idea.md" validate:"required"`
	To   string `json:"to" example:"projects/idea.md" validate:"required"`
}

// Validate validates the request.
func (r *RenameNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required, validation.By(markdownPath)),
	)
}

// SessionRequest names the note an editor operation targets.
type SessionRequest struct {
	Path string `json:"path" example:"notes/hello.md" validate:"required"`
}

// Validate validates the request.
func (r *SessionRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Path, validation.Required))
}

// InputRequest carries the whole buffer after a host input event.
type InputRequest struct {
	Path      string           `json:"path" validate:"required"`
	Text      string           `json:"text"`
	Selection editor.Selection `json:"selection"`
}

// Validate validates the request.
func (r *InputRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Selection, validation.By(nonNegativeSelection)),
	)
}

// SelectRequest moves the selection.
type SelectRequest struct {
	Path      string           `json:"path" validate:"required"`
	Selection editor.Selection `json:"selection"`
}

// Validate validates the request.
func (r *SelectRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Selection, validation.By(nonNegativeSelection)),
	)
}

// CommandRequest runs a named markdown command.
type CommandRequest struct {
	Path    string `json:"path" validate:"required"`
	Command string `json:"command" example:"bold" validate:"required"`
}

// Validate validates the request.
func (r *CommandRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Command, validation.Required, validation.In(anySlice(editor.CommandNames())...)),
	)
}

// PairRequest wraps the selection in an auto-pair.
type PairRequest struct {
	Path string `json:"path" validate:"required"`
	Open string `json:"open" example:"(" validate:"required"`
}

// Validate validates the request.
func (r *PairRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Open, validation.Required, validation.Length(1, 1)),
	)
}

// PasteRequest inserts clipboard text.
type PasteRequest struct {
	Path string `json:"path" validate:"required"`
	Text string `json:"text"`
}

// Validate validates the request.
func (r *PasteRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Path, validation.Required))
}

// ApplyRequest carries a caller-built transaction.
type ApplyRequest struct {
	Path           string              `json:"path" validate:"required"`
	Changes        []editor.TextChange `json:"changes"`
	SelectionAfter *editor.Selection   `json:"selection_after,omitempty"`
	Label          string              `json:"label,omitempty"`
}

// Validate validates the request.
func (r *ApplyRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Path, validation.Required))
}

// Transaction converts the request into a plugin-origin transaction.
func (r *ApplyRequest) Transaction() editor.Transaction {
	label := r.Label
	if label == "" {
		label = "apply"
	}
	return editor.Transaction{
		Changes:        r.Changes,
		SelectionAfter: r.SelectionAfter,
		Origin:         editor.OriginPlugin,
		Label:          label,
	}
}

// FormatRequest is the body of the stateless formatter endpoint.
type FormatRequest struct {
	Text  string `json:"text"`
	Caret *int   `json:"caret,omitempty"`
}

// Validate validates the request.
func (r *FormatRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Caret, validation.Min(0)))
}

// FormatResponse carries formatted markup.
type FormatResponse struct {
	Markup string `json:"markup" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// TagResponse is one tag with the notes carrying it.
type TagResponse struct {
	Tag   string   `json:"tag"`
	Paths []string `json:"paths"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"image.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/attachments/image.png" validate:"required"`
}

func markdownPath(v any) error {
	p, _ := v.(string)
	if !strings.EqualFold(path.Ext(p), ".md") {
		return validation.NewError("validation_markdown_path", "must end in .md")
	}
	return nil
}

func nonNegativeSelection(v any) error {
	sel, _ := v.(editor.Selection)
	if sel.Start < 0 || sel.End < 0 {
		return validation.NewError("validation_selection", "must not be negative")
	}
	return nil
}

func anySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
