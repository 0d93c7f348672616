package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

var (
	errEmptyExpression = errors.New("empty expression")
	errNotFinite       = errors.New("result is not a finite number")
)

// Calculate evaluates arithmetic over numbers with + - * / % ** and
// parentheses. Evaluation failures are reported as tool errors.
func Calculate() registry.Tool {
	return registry.NewTool(
		mcp.NewTool("calculate",
			mcp.WithDescription("Perform basic calculations"),
			mcp.WithString("expression",
				mcp.Required(),
				mcp.Description("Math expression to evaluate"),
			),
		),
		registry.HandlerFunc(func(_ context.Context, args registry.Arguments) (messages.ToolResult, error) {
			expr, err := args.String("expression", "")
			if err != nil {
				return messages.ToolResult{}, err
			}

			value, err := Evaluate(expr)
			if err != nil {
				return messages.NewErrorResult("Error evaluating expression: " + err.Error()), nil
			}

			return messages.NewTextResult(expr + " = " + formatNumber(value)), nil
		}),
	)
}

// Evaluate computes an arithmetic expression. Only digits, decimal points,
// whitespace, parentheses and the operators + - * / % ** are accepted; the
// expression is then run as a Lua chunk in a state with no libraries.
func Evaluate(expr string) (float64, error) {
	chunk, err := toLua(expr)
	if err != nil {
		return 0, err
	}

	state := lua.NewState()
	if err := lua.LoadString(state, "return "+chunk); err != nil {
		return 0, fmt.Errorf("invalid syntax: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return 0, fmt.Errorf("invalid expression: %w", err)
	}

	value, ok := state.ToNumber(-1)
	state.Pop(1)
	if !ok {
		return 0, errors.New("expression did not produce a number")
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, errNotFinite
	}

	return value, nil
}

// toLua validates expr and rewrites it into Lua syntax: ** becomes ^ and
// adjacent minus signs are separated so they are not read as a comment.
func toLua(expr string) (string, error) {
	if strings.TrimSpace(expr) == "" {
		return "", errEmptyExpression
	}

	var b strings.Builder
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '.' && i+1 < len(expr) && expr[i+1] == '.':
			return "", fmt.Errorf("unsupported operator %q", "..")
		case c >= '0' && c <= '9', c == '.', c == '(', c == ')',
			c == '+', c == '/', c == '%', c == ' ', c == '\t':
			b.WriteByte(c)
		case c == '*':
			if i+1 < len(expr) && expr[i+1] == '*' {
				b.WriteByte('^')
				i++
			} else {
				b.WriteByte('*')
			}
		case c == '-':
			if i > 0 && expr[i-1] == '-' {
				b.WriteByte(' ')
			}
			b.WriteByte('-')
		default:
			return "", fmt.Errorf("unsupported character %q", c)
		}
	}

	return b.String(), nil
}
