// Package mcphost exposes the Link Engine's queries and the Orchestrator's
// operations as MCP tools, for use by an external LLM client that wants
// direct access to the vault graph rather than going through the
// five-agent pipeline.
//
// Grounded on kenaz's internal/mcpserver: same server.NewMCPServer +
// mcp.NewTool registration style, stdio transport, and the
// error-as-tool-result convention (a failed lookup returns
// mcp.NewToolResultError, not a Go error, so the model sees the failure
// as part of the conversation).
package mcphost

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wayfare/learnctl/internal/links"
	"github.com/wayfare/learnctl/internal/orchestrator"
	"github.com/wayfare/learnctl/internal/sessionstore"
)

// Server wraps an MCP server exposing the Link Engine and Orchestrator.
type Server struct {
	mcp     *server.MCPServer
	links   *links.Engine
	orch    *orchestrator.Manager
	history *sessionstore.Store
}

// New creates an MCP server with the Link Engine's keyword_match,
// neighbors, shortest_path and dangling_links queries and the
// Orchestrator's get_session and orchestrate operations registered as
// tools. history is optional; pass nil to omit the search_history tool.
func New(linkEngine *links.Engine, orch *orchestrator.Manager, history *sessionstore.Store) *Server {
	s := &Server{links: linkEngine, orch: orch, history: history}

	s.mcp = server.NewMCPServer(
		"learnctl",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("keyword_match",
		mcp.WithDescription("Rank notes by keyword overlap against a query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Space-separated query terms")),
	), s.keywordMatch)

	s.mcp.AddTool(mcp.NewTool("neighbors",
		mcp.WithDescription("List notes within a given hop distance of a slug, grouped by distance."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Note slug")),
	), s.neighbors)

	s.mcp.AddTool(mcp.NewTool("shortest_path",
		mcp.WithDescription("Find the shortest link path between two note slugs."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source slug")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Destination slug")),
	), s.shortestPath)

	s.mcp.AddTool(mcp.NewTool("dangling_links",
		mcp.WithDescription("List every wikilink target that has no corresponding note."),
	), s.danglingLinks)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Fetch a learning session's current state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by orchestrate")),
	), s.getSession)

	s.mcp.AddTool(mcp.NewTool("orchestrate",
		mcp.WithDescription("Start a new learning session that runs all five agents to completion."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The learner's query")),
	), s.orchestrate)

	if s.history != nil {
		s.mcp.AddTool(mcp.NewTool("search_history",
			mcp.WithDescription("Full-text search past learning sessions by query text and stage output."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
		), s.searchHistory)
	}

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

func (s *Server) keywordMatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tokens := strings.Fields(strings.ToLower(query))
	results := s.links.KeywordMatch(tokens, 20)
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) neighbors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	groups := s.links.Neighbors(slug, 3)
	out, _ := json.MarshalIndent(groups, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) shortestPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, ok := s.links.ShortestPath(from, to, 10)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no path found between %s and %s", from, to)), nil
	}
	out, _ := json.Marshal(path)
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) danglingLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.links.DanglingLinks(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.orch.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(session, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) orchestrate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := s.orch.Orchestrate(ctx, query)
	out, _ := json.Marshal(map[string]string{"session_id": id})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.history.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
