package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/serverscout/serverscout/internal/domain"
	"github.com/serverscout/serverscout/internal/domain/query"
	searchuc "github.com/serverscout/serverscout/internal/usecase/search"
)

// MCP error codes.
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32001 // Task parameter is empty
)

// handleSearchServers handles the search_servers tool invocation.
func (s *Server) handleSearchServers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	task, _ := args["task"].(string)
	keywords := getStringSlice(args, "keywords")
	capabilities := getStringSlice(args, "capabilities")

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	minScore, _ := args["min_score"].(float64)

	q, err := query.New(task, keywords, capabilities)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuery) {
			return nil, newMCPError(ErrorCodeEmptyQuery, "task parameter is required and cannot be empty", map[string]interface{}{
				"param":  "task",
				"reason": "missing or empty",
			})
		}
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}

	results, err := s.search.Search(ctx, q, searchuc.Options{
		Limit:    limit,
		MinScore: minScore,
	})
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, len(results))
	for i, res := range results {
		item := map[string]interface{}{
			"title":      res.Title,
			"similarity": res.Similarity,
			"score":      res.Score,
			"provider":   res.Provider,
		}
		if res.Description != "" {
			item["description"] = res.Description
		}
		if res.SourceURL != "" {
			item["url"] = res.SourceURL
		}
		if len(res.Categories) > 0 {
			item["categories"] = res.Categories
		}
		if len(res.Tags) > 0 {
			item["tags"] = res.Tags
		}
		items[i] = item
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results": items,
		"count":   len(items),
	})), nil
}

// handleHealthStatus handles the health_status tool invocation.
func (s *Server) handleHealthStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := s.health.Check(ctx)

	checks := make(map[string]interface{}, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"status": string(report.Status),
		"checks": checks,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
