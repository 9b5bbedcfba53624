// Package mcpserver exposes Donna's tool registry over the Model Context
// Protocol so editors and other agents can drive the same operations the
// chat surfaces use.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/GoSim-25-26J-441/donna-backend/internal/agent"
)

const Name = "donna"

const instructions = `Donna is a personal executive assistant. Use the schedule tools to plan
the day, the project tools for PRD status and rotation, the task tools for the
to-do list and the brain dump tools to capture ideas.`

// New builds an MCP server with one tool per registry entry.
func New(registry *agent.Registry, version string) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range registry.Tools() {
		s.AddTool(Definition(t.Spec), Handler(registry, t.Spec.Name))
	}
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(registry *agent.Registry, version string) error {
	return server.ServeStdio(New(registry, version))
}

// Definition converts a registry spec to an MCP tool.
func Definition(spec agent.Spec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		switch p.Type {
		case "integer", "number":
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(p.Name, props...))
		default:
			if len(p.Enum) > 0 {
				props = append(props, mcp.Enum(p.Enum...))
			}
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(spec.Name, opts...)
}

// Handler calls the named tool with the request arguments. Tool failures
// are reported as error results so the client can show them.
func Handler(registry *agent.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}
		out, err := registry.Call(ctx, name, args)
		if err != nil {
			if errors.Is(err, agent.ErrUnknownTool) {
				return nil, err
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}
