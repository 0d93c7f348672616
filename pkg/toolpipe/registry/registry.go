// Package registry holds the fixed catalog of tools a host advertises and
// dispatches tools/call invocations to their handlers.
package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
)

// ErrUnknownTool is the cause of every lookup failure.
var ErrUnknownTool = errors.New("unknown tool")

// Descriptor is the catalog entry advertised by tools/list.
type Descriptor struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	InputSchema mcp.ToolInputSchema `json:"inputSchema"`
}

// ToolHandler executes one tool. A returned error is a tool level failure
// and is reported to the caller as an is_error result.
type ToolHandler interface {
	Invoke(ctx context.Context, args Arguments) (messages.ToolResult, error)
}

// HandlerFunc adapts a function to ToolHandler.
type HandlerFunc func(ctx context.Context, args Arguments) (messages.ToolResult, error)

// Invoke calls f.
func (f HandlerFunc) Invoke(ctx context.Context, args Arguments) (messages.ToolResult, error) {
	return f(ctx, args)
}

// Tool pairs a definition built with the mcp-go option builders with its
// handler.
type Tool struct {
	Definition mcp.Tool
	Handler    ToolHandler
}

// NewTool returns a Tool.
func NewTool(def mcp.Tool, handler ToolHandler) Tool {
	return Tool{Definition: def, Handler: handler}
}

// Registry is an immutable set of tools keyed by name.
type Registry struct {
	descriptors []Descriptor
	handlers    map[string]ToolHandler
}

// New builds a registry. Names must be non-empty and unique, and every tool
// needs a handler.
func New(tools ...Tool) (*Registry, error) {
	r := &Registry{
		descriptors: make([]Descriptor, 0, len(tools)),
		handlers:    make(map[string]ToolHandler, len(tools)),
	}

	for _, tool := range tools {
		name := tool.Definition.Name
		if name == "" {
			return nil, pipeerrs.NewValidationError(
				pipeerrs.ErrCodeMissingField,
				"tool name is required",
				nil,
				"name",
				name,
			)
		}
		if tool.Handler == nil {
			return nil, pipeerrs.NewToolError(
				pipeerrs.ErrCodeToolFailed,
				fmt.Sprintf("tool %s has no handler", name),
				nil,
				name,
			)
		}
		if _, exists := r.handlers[name]; exists {
			return nil, pipeerrs.NewToolError(
				pipeerrs.ErrCodeDuplicateTool,
				fmt.Sprintf("duplicate tool: %s", name),
				nil,
				name,
			)
		}

		schema := cloneSchema(tool.Definition.InputSchema)
		if schema.Type == "" {
			schema.Type = "object"
		}

		r.handlers[name] = tool.Handler
		r.descriptors = append(r.descriptors, Descriptor{
			Name:        name,
			Description: tool.Definition.Description,
			InputSchema: schema,
		})
	}

	return r, nil
}

// List returns the descriptors in registration order. The descriptors are
// deep copies; changing them does not change the catalog.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	for i, d := range r.descriptors {
		d.InputSchema = cloneSchema(d.InputSchema)
		out[i] = d
	}

	return out
}

// cloneSchema copies the maps and slices of s, including each property's
// own schema map.
func cloneSchema(s mcp.ToolInputSchema) mcp.ToolInputSchema {
	s.Required = slices.Clone(s.Required)
	if s.Properties != nil {
		props := make(map[string]any, len(s.Properties))
		for k, v := range s.Properties {
			if m, ok := v.(map[string]any); ok {
				v = maps.Clone(m)
			}
			props[k] = v
		}
		s.Properties = props
	}

	return s
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	return len(r.descriptors)
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]

	return ok
}

// Invoke runs the named tool. Unknown names fail with a tool error wrapping
// ErrUnknownTool; handler failures become is_error results.
func (r *Registry) Invoke(ctx context.Context, name string, args Arguments) (messages.ToolResult, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return messages.ToolResult{}, pipeerrs.NewToolError(
			pipeerrs.ErrCodeUnknownTool,
			"Unknown tool: "+name,
			ErrUnknownTool,
			name,
		)
	}

	if args == nil {
		args = Arguments{}
	}

	result, err := handler.Invoke(ctx, args)
	if err != nil {
		return messages.NewErrorResult(failureText(err)), nil
	}
	if result.Content == nil {
		result.Content = []messages.TextContent{}
	}

	return result, nil
}

// failureText is the text shown to callers for a failed handler.
func failureText(err error) string {
	if pipeErr, ok := pipeerrs.AsPipeError(err); ok {
		return pipeErr.Message()
	}

	return err.Error()
}
