package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// APIResponse is the envelope every tool answers with.
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Summary  string      `json:"summary,omitempty"`
	Error    string      `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata describes where a response came from.
type Metadata struct {
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
	CacheHit     bool      `json:"cache_hit"`
	APICallsUsed int       `json:"api_calls_used"`
	LeagueID     string    `json:"league_id,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
}

// formatJSONResponse converts a response struct to a formatted JSON string
func formatJSONResponse(response interface{}) (string, error) {
	jsonBytes, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	return string(jsonBytes), nil
}

// jsonResult wraps a response as a text tool result.
func jsonResult(response APIResponse) (*mcp.CallToolResult, error) {
	jsonResponse, err := formatJSONResponse(response)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Type: "text",
				Text: jsonResponse,
			},
		},
	}, nil
}

// errorResult reports a failure to the caller as tool output rather than a
// protocol error.
func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Type: "text",
				Text: fmt.Sprintf(format, args...),
			},
		},
		IsError: true,
	}
}

// requiredString returns a non-empty string argument.
func requiredString(args map[string]interface{}, name string) (string, error) {
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is required and must be a string", name)
	}
	return value, nil
}

// maxExactInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactInt = 1 << 53

// intArg reads an optional integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%s must be a whole number", name)
		}
		if math.Abs(v) > maxExactInt {
			return 0, false, fmt.Errorf("%s must be between -%d and %d", name, int64(maxExactInt), int64(maxExactInt))
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
}

// uintArg reads an optional non-negative integer argument.
func uintArg(args map[string]interface{}, name string) (uint64, bool, error) {
	v, ok, err := intArg(args, name)
	if err != nil || !ok {
		return 0, ok, err
	}
	if v < 0 {
		return 0, false, fmt.Errorf("%s must not be negative", name)
	}
	return uint64(v), true, nil
}

// floatArg reads an optional number argument.
func floatArg(args map[string]interface{}, name string) (float64, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
}

// boolArg reads an optional boolean argument.
func boolArg(args map[string]interface{}, name string) (bool, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return false, false, nil
	}
	v, ok := raw.(bool)
	if !ok {
		return false, false, fmt.Errorf("%s must be a boolean", name)
	}
	return v, true, nil
}

// stringsArg reads an optional array of strings.
func stringsArg(args map[string]interface{}, name string) ([]string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be an array of strings", name)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", name)
	}
}
