package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/handlers"
	"github.com/sirupsen/logrus"
)

const (
	serverName    = "Sleeper Playoff Odds"
	serverVersion = "1.0.0"
)

type toolHandler func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)

// NewPlayoffOddsServer registers the simulation tools on a new MCP server.
func NewPlayoffOddsServer(handler *handlers.SimulationHandler, logger *logrus.Logger) *server.DefaultServer {
	s := server.NewDefaultServer(serverName, serverVersion)

	if s == nil {
		logger.Error("Failed to create MCP server instance")
		return nil
	}

	logger.Info("MCP server instance created successfully")

	tools := []mcp.Tool{
		handler.SimulatePlayoffOddsTool(),
		handler.GetLeagueStandingsTool(),
		handler.GetExpectedWinsTool(),
		handler.GetGameLeverageTool(),
		handler.GetOutcomeScenariosTool(),
	}
	routes := map[string]toolHandler{
		"simulate_playoff_odds": handler.HandleSimulatePlayoffOdds,
		"get_league_standings":  handler.HandleGetLeagueStandings,
		"get_expected_wins":     handler.HandleGetExpectedWins,
		"get_game_leverage":     handler.HandleGetGameLeverage,
		"get_outcome_scenarios": handler.HandleGetOutcomeScenarios,
	}

	// Set up list tools handler
	s.HandleListTools(func(ctx context.Context, cursor *string) (*mcp.ListToolsResult, error) {
		logger.WithField("tools_count", len(tools)).Info("Listing available tools")

		return &mcp.ListToolsResult{
			Tools: tools,
		}, nil
	})

	// Set up call tool handler
	s.HandleCallTool(func(ctx context.Context, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		logger.WithFields(logrus.Fields{
			"tool": name,
			"args": arguments,
		}).Info("Tool called")

		route, ok := routes[name]
		if !ok {
			logger.WithField("tool", name).Warn("Unknown tool called")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					&mcp.TextContent{
						Type: "text",
						Text: "Unknown tool: " + name,
					},
				},
				IsError: true,
			}, nil
		}
		return route(ctx, arguments)
	})

	logger.Info("All tools registered successfully")
	return s
}
