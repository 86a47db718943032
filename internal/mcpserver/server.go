// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Bedrock tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/bedrock/internal/apperr"
	"github.com/starford/bedrock/internal/format"
	"github.com/starford/bedrock/internal/index"
	"github.com/starford/bedrock/internal/noteservice"
	"github.com/starford/bedrock/internal/storage"
)

const (
	contractURI = "bedrock://note-format"
	maxListed   = 1000
)

// Server wraps the MCP server with Bedrock tools. Writes go through the note
// service so metadata and the index stay current; read-only queries hit the
// index directly.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   *noteservice.Service
	db    *index.DB
}

// New creates a new MCP server with all Bedrock tools registered. svc must
// already be loaded.
func New(store storage.Provider, svc *noteservice.Service, db *index.DB) *Server {
	s := &Server{store: store, svc: svc, db: db}

	s.mcp = server.NewMCPServer(
		"Bedrock",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through notes content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note at the specified path. "+
			"Content should follow the note format contract (optional YAML frontmatter with "+
			"title and aliases, Markdown body with [[wikilinks]] and #tags). Read the contract "+
			"first via the get_note_contract tool or the "+contractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Move a note and rewrite every wikilink that points at it."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current note path")),
		mcp.WithString("to", mcp.Required(), mcp.Description("New note path (must end with .md)")),
	), s.renameNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical Bedrock note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, optionally restricted to a folder or a tag."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
		mcp.WithString("tag", mcp.Description("Optional tag without '#'")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note, or a wikilink target such as 'folder/note'")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with the number of notes carrying it."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_unresolved_links",
		mcp.WithDescription("List wikilinks whose target note does not exist."),
	), s.getUnresolved)

	s.mcp.AddTool(mcp.NewTool("render_markdown",
		mcp.WithDescription("Render Markdown text to the live-preview HTML markup used by the editor."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown source")),
		mcp.WithNumber("caret", mcp.Description("Optional caret offset; the line holding it keeps its syntax markers visible")),
	), s.renderMarkdown)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Save an image or PDF into the attachments folder from an http(s) URL or a base64 data URI."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.uploadAsset)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that notes should follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	return jsonResult(results), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.svc.CreateNote(ctx, path, []byte(content)); err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			return mcp.NewToolResultError(fmt.Sprintf("note already exists: %s", path)), nil
		case errors.Is(err, apperr.ErrInvalidPath):
			return mcp.NewToolResultError(fmt.Sprintf("invalid note path: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) renameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.RenameNote(ctx, from, to)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := strings.Trim(req.GetString("folder", ""), "/")
	tag := strings.TrimPrefix(req.GetString("tag", ""), "#")

	rows, _, err := s.db.ListNotes(maxListed, 0, strings.ToLower(tag), "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, r := range rows {
		if folder != "" && !strings.HasPrefix(r.Path, folder+"/") {
			continue
		}
		paths = append(paths, r.Path)
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !storage.IsNote(path) {
		// A wikilink target; resolve it the way a link from the vault root would.
		resolved, ok := s.svc.State().Resolve(path, "")
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no note matches %q", path)), nil
		}
		path = resolved
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.db.Tags()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if tags == nil {
		tags = []index.TagCount{}
	}
	return jsonResult(tags), nil
}

func (s *Server) getUnresolved(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	links, err := s.db.Unresolved()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if links == nil {
		links = []index.LinkRow{}
	}
	return jsonResult(links), nil
}

func (s *Server) renderMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var opts []format.Option
	if caret := req.GetInt("caret", -1); caret >= 0 {
		opts = append(opts, format.WithCaret(caret))
	}
	return mcp.NewToolResultText(format.Format(text, opts...)), nil
}
