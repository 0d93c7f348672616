package tools

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

// Echo returns its message prefixed with "Echo: ".
func Echo() registry.Tool {
	return registry.NewTool(
		mcp.NewTool("echo",
			mcp.WithDescription("Echo back the input"),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("Message to echo"),
			),
		),
		registry.HandlerFunc(func(_ context.Context, args registry.Arguments) (messages.ToolResult, error) {
			msg, err := args.String("message", "")
			if err != nil {
				return messages.ToolResult{}, err
			}

			return messages.NewTextResult("Echo: " + msg), nil
		}),
	)
}

// Add sums two numbers. Missing operands count as zero.
func Add() registry.Tool {
	return registry.NewTool(
		mcp.NewTool("add",
			mcp.WithDescription("Add two numbers"),
			mcp.WithNumber("a",
				mcp.Required(),
				mcp.Description("First number"),
			),
			mcp.WithNumber("b",
				mcp.Required(),
				mcp.Description("Second number"),
			),
		),
		registry.HandlerFunc(func(_ context.Context, args registry.Arguments) (messages.ToolResult, error) {
			a, err := args.Float("a", 0)
			if err != nil {
				return messages.ToolResult{}, err
			}
			b, err := args.Float("b", 0)
			if err != nil {
				return messages.ToolResult{}, err
			}

			return messages.NewTextResult("Result: " + formatNumber(a+b)), nil
		}),
	)
}

// formatNumber prints integral values without a fractional part.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
