package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/bedrock/internal/preview"
)

const (
	attachDir      = "attachments"
	maxUploadBytes = 50 << 20 // 50 MB
)

// AttachmentHandler serves and accepts attachment files. Uploads replace any
// cached preview of the same file.
type AttachmentHandler struct {
	vaultRoot string
	previews  *preview.Cache
}

// NewAttachmentHandler creates a handler rooted at the vault directory.
// previews may be nil.
func NewAttachmentHandler(vaultRoot string, previews *preview.Cache) *AttachmentHandler {
	return &AttachmentHandler{vaultRoot: filepath.FromSlash(vaultRoot), previews: previews}
}

func (h *AttachmentHandler) attachPath() string {
	return filepath.Join(h.vaultRoot, attachDir)
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the attachments dir.
func (h *AttachmentHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.attachPath(), cleaned)
	if !strings.HasPrefix(abs, h.attachPath()+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes attachments directory")
	}
	return abs, nil
}

// ServeFile handles GET /attachments/{filename}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safeName(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if info, statErr := os.Stat(abs); statErr != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
//
//	@Summary		Upload an attachment
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Attachment file"
//	@Success		201		{object}	AttachmentUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	written, err := h.write(abs, file)
	if err != nil {
		slog.Error("attachment upload failed", slog.String("file", header.Filename), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}
	if h.previews != nil {
		h.previews.Invalidate(filepath.ToSlash(abs))
	}

	name := filepath.Base(abs)
	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{
		Filename: name,
		Size:     written,
		URL:      "/attachments/" + name,
	})
}

// write copies src next to abs and renames it into place.
func (h *AttachmentHandler) write(abs string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(h.attachPath(), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir attachments: %w", err)
	}
	tmp, err := os.CreateTemp(h.attachPath(), ".bedrock-upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, src)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return 0, fmt.Errorf("rename: %w", err)
	}
	return written, nil
}
