package ask

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/chatwatch/sources"
)

// RegisterMCP registers the ask tools on an MCP server. Tools named in
// settings.DisabledTools are skipped entirely.
func (a *Asker) RegisterMCP(srv *mcp.Server) {
	if a.cfg.Settings.ToolEnabled("chat_ask") {
		a.registerAskTool(srv)
	}
	if a.cfg.Settings.ToolEnabled("chat_sources") {
		a.registerSourcesTool(srv)
	}
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

func toolResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Errorf("marshal: %w", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// --- chat_ask ---

type askRequest struct {
	Question       string `json:"question"`
	IncludeSources bool   `json:"include_sources,omitempty"`
}

func (a *Asker) registerAskTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "chat_ask",
		Description: "Submit a question to the chat page and wait for the new answer to finish streaming. Returns the answer text, markdown, and optionally its sources.",
		InputSchema: inputSchema(map[string]any{
			"question":        map[string]any{"type": "string", "description": "The question to submit"},
			"include_sources": map[string]any{"type": "boolean", "description": "Also extract citation references from the answer"},
		}, []string{"question"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r askRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		ans, err := a.Ask(ctx, r.Question, r.IncludeSources)
		if err != nil {
			return toolError(err), nil
		}
		return toolResult(ans)
	})
}

// --- chat_sources ---

type sourcesRequest struct {
	Answer string `json:"answer"`
}

func (a *Asker) registerSourcesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "chat_sources",
		Description: "Extract citation references from the answer currently on the page that matches the given text.",
		InputSchema: inputSchema(map[string]any{
			"answer": map[string]any{"type": "string", "description": "Answer text to locate on the page"},
		}, []string{"answer"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r sourcesRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		refs, err := sources.Extract(a.session, r.Answer, sources.Options{
			Selector:    a.cfg.Selectors.Answer,
			Recoverable: a.cfg.Recoverable,
			Logger:      a.cfg.Logger,
		})
		if err != nil {
			return toolError(err), nil
		}
		return toolResult(map[string]any{"sources": refs, "count": len(refs)})
	})
}
