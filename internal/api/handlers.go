package api

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/bedrock/internal/format"
	"github.com/starford/bedrock/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes with optional pagination and filtering
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated, title, path)
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListNotes(r.Context(), limit, offset, q.Get("tag"), q.Get("sort"))
	if err != nil {
		writeServiceError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeServiceError(w, "get note", err)
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[CreateNoteRequest](w, r)
	if !ok {
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		writeServiceError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/*.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Note path"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body	body		UpdateNoteRequest	true	"Updated content"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	req, ok := decodeJSON[UpdateNoteRequest](w, r)
	if !ok {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.UpdateNote(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		writeServiceError(w, "update note", err)
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/*.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			path	path	string	true	"Note path"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteNote(r.Context(), path); err != nil {
		writeServiceError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameNote handles POST /api/rename.
//
//	@Summary		Move a note and rewrite wiki links pointing at it
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenameNoteRequest	true	"Old and new path"
//	@Success		200		{object}	noteservice.RenameResult
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rename [post]
func (h *Handler) RenameNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[RenameNoteRequest](w, r)
	if !ok {
		return
	}
	res, err := h.svc.RenameNote(r.Context(), req.From, req.To)
	if err != nil {
		writeServiceError(w, "rename note", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": nonNil(results),
	})
}

// Graph handles GET /api/graph.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Graph(r.Context()))
}

// Backlinks handles GET /api/backlinks/*.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	bl, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		writeServiceError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "backlinks": bl})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	st := h.svc.State()
	out := []TagResponse{}
	for _, tag := range st.Tags() {
		out = append(out, TagResponse{Tag: tag, Paths: st.TagPaths(tag)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": out})
}

// Unresolved handles GET /api/unresolved.
func (h *Handler) Unresolved(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"links": nonNil(h.svc.State().Unresolved())})
}

// Format handles POST /api/format: stateless rendering of arbitrary text.
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[FormatRequest](w, r)
	if !ok {
		return
	}
	var opts []format.Option
	if req.Caret != nil {
		opts = append(opts, format.WithCaret(*req.Caret))
	}
	writeJSON(w, http.StatusOK, FormatResponse{Markup: format.Format(req.Text, opts...)})
}

// Markup handles GET /api/markup/*: the formatted text of a stored note,
// including session caret and cached image previews.
func (h *Handler) Markup(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	markup, err := h.svc.Markup(r.Context(), path)
	if err != nil {
		writeServiceError(w, "markup", err)
		return
	}
	writeJSON(w, http.StatusOK, FormatResponse{Markup: markup})
}

// Raw handles GET /api/raw/*: the note text as text/markdown.
func (h *Handler) Raw(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), notePath(r))
	if err != nil {
		writeServiceError(w, "raw note", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	_, _ = io.WriteString(w, note.Content)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
