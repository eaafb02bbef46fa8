package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchServersTool returns the tool definition for search_servers.
func searchServersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_servers",
		Description: "Search for servers matching a natural-language task description",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"task": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language description of what the server should do",
				},
				"keywords": map[string]interface{}{
					"type":        "array",
					"description": "Extra keywords to sharpen the query",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"capabilities": map[string]interface{}{
					"type":        "array",
					"description": "Required capabilities; matched against server categories and tags",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum combined score threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"task"},
		},
	}
}

// healthStatusTool returns the tool definition for health_status.
func healthStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "health_status",
		Description: "Report availability of search components (cache, embeddings, offline corpus)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
