package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sasquatch-backpack/src/service"
)

const defaultLimit = 15

// Server is the MCP server for the backpack.
type Server struct {
	mcpServer *server.MCPServer
	runner    service.Runner
	store     ResultStore
}

// NewServer creates an MCP server backed by runner.
func NewServer(runner service.Runner) *Server {
	s := server.NewMCPServer(
		"sasquatch-backpack",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		runner:    runner,
		store:     NewInMemoryStore(),
	}
	srv.registerTools()

	return srv
}

func (s *Server) registerTools() {
	searchTool := mcp.NewTool("usgs_earthquake_data",
		mcp.WithDescription("Search the USGS earthquake catalog around a coordinate and optionally publish new events to Sasquatch. Strong (M6+) and moderate (M4+) events are listed; minor events are counted. Use get_earthquake_details for a single event."),
		mcp.WithNumber("days",
			mcp.Required(),
			mcp.Description("Days to look back from now"),
		),
		mcp.WithNumber("hours",
			mcp.Description("Additional hours to look back (default: 0)"),
		),
		mcp.WithNumber("radius",
			mcp.Description("Search radius in km, 1 to 5000 (default: 400)"),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Latitude of the search center (default: Cerro Pachón)"),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Longitude of the search center (default: Cerro Pachón)"),
		),
		mcp.WithNumber("lower",
			mcp.Description("Minimum magnitude, 0 to 10 (default: 2)"),
		),
		mcp.WithNumber("upper",
			mcp.Description("Maximum magnitude, 0 to 10 (default: 10)"),
		),
		mcp.WithBoolean("publish",
			mcp.Description("Publish events not already sent (default: false)"),
		),
		mcp.WithString("method",
			mcp.Description("DIRECT_CONNECTION or REST_API (default: DIRECT_CONNECTION)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max events listed per tier (default: 15)"),
		),
	)

	detailsTool := mcp.NewTool("get_earthquake_details",
		mcp.WithDescription("Get the full record of one event from a previous usgs_earthquake_data call."),
		mcp.WithString("request_id",
			mcp.Required(),
			mcp.Description("Request ID from the usgs_earthquake_data response"),
		),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("USGS event ID"),
		),
	)

	s.mcpServer.AddTool(searchTool, s.handleEarthquakeData)
	s.mcpServer.AddTool(detailsTool, s.handleGetDetails)
}

// Run serves over stdio until stdin closes.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleEarthquakeData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := service.DefaultRequest()
	req.Days = request.GetInt("days", -1)
	if req.Days < 0 {
		return mcp.NewToolResultError("days parameter is required"), nil
	}
	req.Hours = request.GetInt("hours", 0)
	req.Radius = request.GetInt("radius", req.Radius)
	req.Latitude = request.GetFloat("latitude", req.Latitude)
	req.Longitude = request.GetFloat("longitude", req.Longitude)
	req.Lower = request.GetInt("lower", req.Lower)
	req.Upper = request.GetInt("upper", req.Upper)
	req.Publish = request.GetBool("publish", false)
	req.Method = request.GetString("method", req.Method)
	limit := request.GetInt("limit", defaultLimit)

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("earthquake search failed: %v", err)), nil
	}

	requestID := uuid.NewString()
	s.store.Store(requestID, result)

	manifest := Manifest{
		RequestID: requestID,
		Total:     len(result.Earthquakes),
		Outcome:   result.Outcome,
	}
	manifest.Strong, manifest.Moderate, manifest.Minor, manifest.Truncated = TierEarthquakes(result.Earthquakes, limit)

	jsonBytes, err := json.Marshal(manifest)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := request.GetString("request_id", "")
	if requestID == "" {
		return mcp.NewToolResultError("request_id parameter is required"), nil
	}

	eventID := request.GetString("event_id", "")
	if eventID == "" {
		return mcp.NewToolResultError("event_id parameter is required"), nil
	}

	quake, found := s.store.Get(requestID, eventID)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("event not found: request_id=%s, event_id=%s", requestID, eventID)), nil
	}

	jsonBytes, err := json.Marshal(quake)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal event: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
