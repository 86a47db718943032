package api

import (
	"net/http"
	"slices"

	"github.com/starford/bedrock/internal/editor"
	"github.com/starford/bedrock/internal/models"
)

// SessionState is the editor state returned by every session endpoint.
type SessionState = models.SessionState

// OpenSession handles POST /api/sessions.
//
//	@Summary		Open an editor session on a note
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SessionRequest	true	"Note path"
//	@Success		200		{object}	SessionState
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SessionRequest](w, r)
	if !ok {
		return
	}
	st, err := h.svc.Open(r.Context(), req.Path)
	if err != nil {
		writeServiceError(w, "open session", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": nonNil(h.svc.Sessions())})
}

// GetSession handles GET /api/sessions/*.
//
//	@Summary		Current state of an open editor session
//	@Tags			sessions
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	SessionState
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{path} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Session(r.Context(), notePath(r))
	if err != nil {
		writeServiceError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CloseSession handles DELETE /api/sessions/*. Pending edits are saved first.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseSession(r.Context(), notePath(r)); err != nil {
		writeServiceError(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Input handles POST /api/sessions/input.
//
//	@Summary		Replace the buffer after a host input event
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InputRequest	true	"New text and selection"
//	@Success		200		{object}	SessionState
//	@Security		BearerAuth
//	@Router			/sessions/input [post]
func (h *Handler) Input(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[InputRequest](w, r)
	if !ok {
		return
	}
	st, err := h.svc.Input(r.Context(), req.Path, req.Text, req.Selection)
	if err != nil {
		writeServiceError(w, "input", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Select handles POST /api/sessions/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SelectRequest](w, r)
	if !ok {
		return
	}
	st, err := h.svc.Select(r.Context(), req.Path, req.Selection)
	if err != nil {
		writeServiceError(w, "select", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Command handles POST /api/sessions/command.
//
//	@Summary		Run a markdown command on the selection
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CommandRequest	true	"Command name"
//	@Success		200		{object}	SessionState
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/command [post]
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[CommandRequest](w, r)
	if !ok {
		return
	}
	st, err := h.svc.Command(r.Context(), req.Path, req.Command)
	if err != nil {
		writeServiceError(w, "command", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Pair handles POST /api/sessions/pair.
func (h *Handler) Pair(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[PairRequest](w, r)
	if !ok {
		return
	}
	st, err := h.svc.Pair(r.Context(), req.Path, req.Open)
	if err != nil {
		writeServiceError(w, "pair", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Newline handles POST /api/sessions/newline.
func (h *Handler) Newline(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SessionRequest](w, r)
	if !ok {
		return
	}
	st, err := h.svc.Newline(r.Context(), req.Path)
	if err != nil {
		writeServiceError(w, "newline", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Paste handles POST /api/sessions/paste.
func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[PasteRequest](w, r)
	if !ok {
		return
	}
	st, err := h.svc.Paste(r.Context(), req.Path, req.Text)
	if err != nil {
		writeServiceError(w, "paste", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Apply handles POST /api/sessions/apply.
//
//	@Summary		Apply a caller-built transaction
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ApplyRequest	true	"Changes and selection"
//	@Success		200		{object}	SessionState
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/apply [post]
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ApplyRequest](w, r)
	if !ok {
		return
	}
	st, err := h.svc.Apply(r.Context(), req.Path, req.Transaction())
	if err != nil {
		writeServiceError(w, "apply", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Flush handles POST /api/sessions/flush: saves a dirty buffer immediately.
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SessionRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.Flush(r.Context(), req.Path); err != nil {
		writeServiceError(w, "flush", err)
		return
	}
	st, err := h.svc.Session(r.Context(), req.Path)
	if err != nil {
		writeServiceError(w, "flush", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Commands handles GET /api/commands.
func (h *Handler) Commands(w http.ResponseWriter, _ *http.Request) {
	names := editor.CommandNames()
	slices.Sort(names)
	writeJSON(w, http.StatusOK, map[string]any{"commands": names})
}
