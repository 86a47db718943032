package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/bedrock/internal/noteservice"
	"github.com/starford/bedrock/internal/preview"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// previews, if non-nil, is invalidated when an attachment is replaced.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, previews *preview.Cache) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(svc.Root(), previews)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)
	r.Get("/raw/*", h.Raw)
	r.Post("/rename", h.RenameNote)

	// Search and metadata.
	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/tags", h.Tags)
	r.Get("/unresolved", h.Unresolved)

	// Formatting.
	r.Post("/format", h.Format)
	r.Get("/markup/*", h.Markup)
	r.Get("/commands", h.Commands)

	// Editor sessions.
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Post("/", h.OpenSession)
		r.Post("/input", h.Input)
		r.Post("/select", h.Select)
		r.Post("/command", h.Command)
		r.Post("/pair", h.Pair)
		r.Post("/newline", h.Newline)
		r.Post("/paste", h.Paste)
		r.Post("/apply", h.Apply)
		r.Post("/flush", h.Flush)
		r.Get("/*", h.GetSession)
		r.Delete("/*", h.CloseSession)
	})

	// Attachments.
	r.Post("/attachments", ah.Upload)
	r.Get("/attachments/{filename}", ah.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
