// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes tubenotes tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/noteservice"
	"github.com/starford/tubenotes/internal/runservice"
)

// NoteFormatURI is the resource URI of the note format contract.
const NoteFormatURI = "tubenotes://note-format"

// Server wraps the MCP server with tubenotes tools.
type Server struct {
	mcp   *server.MCPServer
	notes *noteservice.Service
	runs  *runservice.Service
}

// New creates a new MCP server with all tubenotes tools registered.
func New(notes *noteservice.Service, runs *runservice.Service) *Server {
	s := &Server{notes: notes, runs: runs}

	s.mcp = server.NewMCPServer(
		"tubenotes",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_playlist",
		mcp.WithDescription("Synthesize one Markdown note per video of a YouTube playlist, "+
			"plus an index note. Accepts a playlist URL or ID, a single video URL, or "+
			"several video URLs separated by whitespace. Returns the run report."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Playlist reference")),
		mcp.WithBoolean("force", mcp.Description("Re-fetch and rewrite notes that already exist")),
	), s.syncPlaylist)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List synthesized video notes (video ID, path, title)."),
		mcp.WithNumber("limit", mcp.Description("Page size (0 for all)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full Markdown content of a video note."),
		mcp.WithString("video_id", mcp.Required(), mcp.Description("11-character YouTube video ID")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the tubenotes note format contract. "+
			"Call this before parsing notes to learn the frontmatter fields."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("Markdown format of video notes and index notes."),
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

func (s *Server) syncPlaylist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return mcp.NewToolResultError("ref is empty"), nil
	}
	report, err := s.runs.RunSync(ctx, ref, req.GetBool("force", false))
	if errors.Is(err, apperr.ErrRunInProgress) {
		return mcp.NewToolResultError("a run is already in progress"), nil
	}
	if report == nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(string(out)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.notes.ListNotes(ctx, req.GetInt("limit", 0), req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d notes\n", total)
	for _, it := range items {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", it.VideoID, it.Path, it.Title)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("video_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetNote(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
