package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/bedrock/internal/format"
)

const (
	maxAssetSize = 10 << 20 // 10 MB
	assetDir     = "attachments"
	pdfMIME      = "application/pdf"
)

var (
	// extByMIME picks the file extension for assets named after a UUID.
	extByMIME = map[string]string{
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"image/gif":     ".gif",
		"image/webp":    ".webp",
		"image/bmp":     ".bmp",
		"image/svg+xml": ".svg",
		pdfMIME:         ".pdf",
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type uploadResult struct {
	SavedPath     string `json:"savedPath"`
	URL           string `json:"url"`
	MarkdownImage string `json:"markdownImage"`
}

// asset is downloaded or decoded content with the media type its source
// declared (possibly empty).
type asset struct {
	data []byte
	mime string
}

func (s *Server) uploadAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	a, err := fetchAsset(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filename := req.GetString("filename", "")
	if filename == "" {
		filename = filenameFromURL(rawURL, extByMIME[a.mime])
	}
	filename = sanitizeFilename(filename)

	if err := checkAssetType(filename, a.data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	savePath := path.Join(assetDir, filename)
	if s.store.Exists(savePath) {
		return mcp.NewToolResultError(fmt.Sprintf("file already exists: %s", savePath)), nil
	}
	if err := s.store.Write(savePath, a.data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save attachment: %v", err)), nil
	}

	out, _ := json.Marshal(uploadResult{
		SavedPath:     savePath,
		URL:           "/attachments/" + filename,
		MarkdownImage: fmt.Sprintf("![[%s]]", savePath),
	})
	return mcp.NewToolResultText(string(out)), nil
}

func fetchAsset(ctx context.Context, rawURL string) (asset, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURI(rawURL)
	}
	return fetchHTTP(ctx, rawURL)
}

// decodeDataURI parses a data:<mediatype>;base64,<data> URI.
func decodeDataURI(uri string) (asset, error) {
	meta, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return asset{}, fmt.Errorf("invalid data URI: missing comma separator")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return asset{}, fmt.Errorf("only base64 data URIs are supported")
	}
	mime, _, _ = strings.Cut(mime, ";")
	if _, ok := extByMIME[mime]; !ok {
		return asset{}, fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return asset{}, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxAssetSize {
		return asset{}, fmt.Errorf("file too large: %d bytes (max %d)", len(data), maxAssetSize)
	}
	return asset{data: data, mime: mime}, nil
}

// fetchHTTP downloads a file from an http(s) URL, refusing loopback and
// cloud metadata hosts, including across redirects.
func fetchHTTP(ctx context.Context, rawURL string) (asset, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return asset{}, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return asset{}, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return asset{}, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return asset{}, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return asset{}, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return asset{}, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return asset{}, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxAssetSize {
		return asset{}, fmt.Errorf("file too large: exceeds %d bytes", maxAssetSize)
	}

	mime, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	return asset{data: data, mime: strings.TrimSpace(mime)}, nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}

// filenameFromURL uses the URL's last path element when it has an extension,
// otherwise a UUID with ext (".bin" when unknown).
func filenameFromURL(rawURL, ext string) string {
	if !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := path.Base(parsed.Path)
			if base != "." && base != "/" && path.Ext(base) != "" {
				return base
			}
		}
	}
	if ext == "" {
		ext = ".bin"
	}
	return uuid.NewString() + ext
}

// sanitizeFilename strips path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." || strings.HasPrefix(name, ".") {
		name = uuid.NewString() + name
	}
	return name
}

// checkAssetType accepts previewable images and PDFs whose content matches
// the extension of name.
func checkAssetType(name string, data []byte) error {
	ext := strings.ToLower(path.Ext(name))
	var want string
	switch {
	case ext == ".pdf":
		want = pdfMIME
	case format.IsImagePath(name):
		want = format.ImageMIME(name)
	default:
		return fmt.Errorf("unsupported file extension: %q (images and pdf only)", ext)
	}

	if want == "image/svg+xml" {
		prefix := data[:min(len(data), 1024)]
		if !bytes.Contains(prefix, []byte("<svg")) {
			return fmt.Errorf("content does not appear to be a valid SVG (missing <svg tag)")
		}
		return nil
	}

	detected, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if detected != want {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}
