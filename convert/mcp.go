package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"clipbook/clip"
	"clipbook/document"
)

// RegisterMCP registers the conversion tools on an MCP server, giving agent
// shells the same surface the CLI has.
func (c *Converter) RegisterMCP(srv *mcp.Server) {
	c.registerConvertTool(srv)
	c.registerAccumulateTool(srv)
	c.registerCombineTool(srv)
	c.registerClearTool(srv)
	c.registerHistoryTool(srv)
}

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

// addTool wires a JSON-arguments handler onto the server, turning handler
// errors into tool errors and marshalling successful responses as text.
func addTool(srv *mcp.Server, tool *mcp.Tool, handler func(ctx context.Context, args json.RawMessage) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := handler(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- convert ---

type convertReq struct {
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

func (r *convertReq) overrides() document.Overrides {
	return document.Overrides{Title: r.Title, Author: r.Author}
}

func (c *Converter) registerConvertTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clipbook_convert",
		Description: "Convert text, Markdown, HTML, RTF, or URLs into an EPUB file.",
		InputSchema: inputSchema(map[string]any{
			"text":   map[string]any{"type": "string", "description": "Content to convert"},
			"title":  map[string]any{"type": "string", "description": "Title override"},
			"author": map[string]any{"type": "string", "description": "Author override"},
		}, []string{"text"}),
	}

	addTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r convertReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return c.Convert(ctx, clip.NewText(r.Text), r.overrides())
	})
}

// --- accumulate ---

type accumulateReq struct {
	Text string `json:"text"`
}

func (c *Converter) registerAccumulateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clipbook_accumulate",
		Description: "Add content to the pending batch without producing a book yet.",
		InputSchema: inputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Content to add to the batch"},
		}, []string{"text"}),
	}

	addTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r accumulateReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		count, err := c.Accumulate(ctx, clip.NewText(r.Text))
		if err != nil {
			return nil, err
		}
		return map[string]any{"count": count}, nil
	})
}

// --- combine ---

type combineReq struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

func (c *Converter) registerCombineTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clipbook_combine",
		Description: "Combine the pending batch into one multi-chapter EPUB.",
		InputSchema: inputSchema(map[string]any{
			"title":  map[string]any{"type": "string", "description": "Title override"},
			"author": map[string]any{"type": "string", "description": "Author override"},
		}, nil),
	}

	addTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r combineReq
		if len(args) > 0 {
			if err := json.Unmarshal(args, &r); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		return c.Combine(ctx, document.Overrides{Title: r.Title, Author: r.Author})
	})
}

// --- clear ---

func (c *Converter) registerClearTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clipbook_clear",
		Description: "Discard the pending batch.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	addTool(srv, tool, func(context.Context, json.RawMessage) (any, error) {
		c.ClearAccumulator()
		return map[string]any{"cleared": true}, nil
	})
}

// --- history ---

type historyReq struct {
	Limit int `json:"limit,omitempty"`
}

func (c *Converter) registerHistoryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "clipbook_history",
		Description: "List recent conversions, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max entries to return"},
		}, nil),
	}

	addTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r historyReq
		if len(args) > 0 {
			if err := json.Unmarshal(args, &r); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		entries, err := c.History(ctx, r.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"entries": entries, "count": len(entries)}, nil
	})
}
