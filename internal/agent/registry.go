package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownTool = errors.New("unknown tool")

// Param describes one argument of a tool for the model.
type Param struct {
	Name        string
	Type        string // string, integer, number, boolean
	Description string
	Required    bool
	Enum        []string
}

// Spec names a tool and its arguments.
type Spec struct {
	Name        string
	Description string
	Params      []Param
}

// Schema renders the arguments as a JSON Schema object.
func (s Spec) Schema() json.RawMessage {
	props := map[string]any{}
	required := []string{}
	for _, p := range s.Params {
		prop := map[string]any{"type": p.Type, "description": p.Description}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	b, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	})
	return b
}

// Tool is a registered, type-erased tool.
type Tool struct {
	Spec Spec
	call func(ctx context.Context, args json.RawMessage) (string, error)
}

func (t Tool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	return t.call(ctx, args)
}

type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

// Register adds a typed tool. Arguments are decoded into Req; a string
// response is passed through and anything else is sent as JSON.
func Register[Req, Resp any](r *Registry, spec Spec, fn func(ctx context.Context, req Req) (Resp, error)) {
	r.tools[spec.Name] = Tool{
		Spec: spec,
		call: func(ctx context.Context, args json.RawMessage) (string, error) {
			var req Req
			if len(args) > 0 && strings.TrimSpace(string(args)) != "null" {
				if err := json.Unmarshal(args, &req); err != nil {
					return "", fmt.Errorf("%s: invalid arguments: %w", spec.Name, err)
				}
			}
			resp, err := fn(ctx, req)
			if err != nil {
				return "", err
			}
			if s, ok := any(resp).(string); ok {
				return s, nil
			}
			b, err := json.Marshal(resp)
			if err != nil {
				return "", fmt.Errorf("%s: encode result: %w", spec.Name, err)
			}
			return string(b), nil
		},
	}
}

func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Call(ctx, args)
}

// Tools returns the registered tools ordered by name.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spec.Name < out[j].Spec.Name })
	return out
}

func (r *Registry) Names() []string {
	tools := r.Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Spec.Name
	}
	return names
}

func (r *Registry) Len() int { return len(r.tools) }
