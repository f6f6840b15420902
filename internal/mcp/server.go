// Package mcp exposes authoring and support tools over the Model Context
// Protocol: dry-run object resolution, scenario inspection and page session
// snapshots.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"safety-lms/backend/internal/bridge"
	"safety-lms/backend/internal/services"
	"safety-lms/backend/pkg/models"
)

type Server struct {
	mcpServer *server.MCPServer
	hub       *bridge.Hub
	content   services.ContentService
}

func NewServer(hub *bridge.Hub, content services.ContentService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Scene Bridge",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		hub:     hub,
		content: content,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"resolve_object",
			mcp.WithDescription("Resolve a scene object name to the scenario it opens"),
			mcp.WithString("course_id", mcp.Required(), mcp.Description("The course whose mapping table applies")),
			mcp.WithString("object_name", mcp.Required(), mcp.Description("The object name reported by the scene")),
			mcp.WithString("scenario_id_hint", mcp.Description("A scenario id the scene supplied directly")),
		),
		s.handleResolveObject,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_scenario",
			mcp.WithDescription("Fetch and validate a scenario definition, without its answer key"),
			mcp.WithString("course_id", mcp.Required(), mcp.Description("The course id")),
			mcp.WithString("scenario_id", mcp.Required(), mcp.Description("The scenario id")),
		),
		s.handleGetScenario,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"page_session",
			mcp.WithDescription("Show the workflow session of an embedded page"),
			mcp.WithString("page_id", mcp.Required(), mcp.Description("The page id returned on registration")),
		),
		s.handlePageSession,
	)
}

func (s *Server) handleResolveObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	courseID, err := request.RequireString("course_id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: course_id"), nil
	}
	objectName, err := request.RequireString("object_name")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: object_name"), nil
	}
	hint := request.GetString("scenario_id_hint", "")

	ref, ok := s.hub.Resolver().ResolveObject(ctx, courseID, objectName, hint)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("%q does not open a scenario in course %s", objectName, courseID)), nil
	}
	return jsonResult(ref)
}

func (s *Server) handleGetScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	courseID, err := request.RequireString("course_id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: course_id"), nil
	}
	scenarioID, err := request.RequireString("scenario_id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: scenario_id"), nil
	}

	def, err := s.content.GetScenario(ctx, courseID, scenarioID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get scenario: %v", err)), nil
	}
	if err := models.Validate(def); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scenario is invalid: %v", err)), nil
	}
	return jsonResult(models.LearnerDocumentOf(def))
}

func (s *Server) handlePageSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := request.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: page_id"), nil
	}
	b, ok := s.hub.Get(pageID)
	if !ok {
		return mcp.NewToolResultError("Unknown page: " + pageID), nil
	}
	snap, ok := b.Snapshot()
	if !ok {
		return mcp.NewToolResultText("No session on page " + pageID), nil
	}
	return jsonResult(snap)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// SSE transport under /mcp/sse and /mcp/message
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
