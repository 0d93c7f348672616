// Package main demonstrates a custom tool host with calculator tools,
// driven in-process by a Caller.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/adapters/jsonrpc"
	caller "github.com/conneroisu/toolpipe/pkg/toolpipe/adapters/mcp"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/serving"
)

var errDivideByZero = errors.New("division by zero")

func main() {
	ctx := context.Background()

	reg, err := createCalculatorRegistry()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	c, done := connect(ctx, jsonrpc.NewHost(reg, options.HostOptions{}))
	defer func() {
		_ = c.Close()
		<-done
	}()

	calls := []struct {
		tool string
		a, b float64
	}{
		{"add", 15, 27},
		{"subtract", 10, 4},
		{"multiply", 6, 7},
		{"divide", 1, 0},
	}
	for _, call := range calls {
		res, err := c.CallTool(ctx, call.tool, map[string]any{"a": call.a, "b": call.b})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		printResult(call.tool, res)
	}
}

// connect serves the host on in-process pipes and dials it.
func connect(ctx context.Context, host *jsonrpc.Host) (*caller.Caller, <-chan struct{}) {
	callerIn, hostOut := io.Pipe()
	hostIn, callerOut := io.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := serving.Run(ctx, host, hostIn, hostOut, options.ServeOptions{}); err != nil {
			log.Printf("host stopped: %v", err)
		}
		_ = hostOut.Close()
	}()

	c, err := caller.Dial(ctx, caller.NewLineTransport(callerIn, callerOut), options.CallerOptions{})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	return c, done
}

// createCalculatorRegistry registers the four arithmetic tools.
func createCalculatorRegistry() (*registry.Registry, error) {
	return registry.New(
		mathTool("add", "Add two numbers", func(a, b float64) (float64, error) { return a + b, nil }),
		mathTool("subtract", "Subtract two numbers", func(a, b float64) (float64, error) { return a - b, nil }),
		mathTool("multiply", "Multiply two numbers", func(a, b float64) (float64, error) { return a * b, nil }),
		mathTool("divide", "Divide two numbers", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, errDivideByZero
			}

			return a / b, nil
		}),
	)
}

func mathTool(name, description string, op func(a, b float64) (float64, error)) registry.Tool {
	return registry.NewTool(
		mcp.NewTool(name,
			mcp.WithDescription(description),
			mcp.WithNumber("a", mcp.Required(), mcp.Description("First number")),
			mcp.WithNumber("b", mcp.Required(), mcp.Description("Second number")),
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

			v, err := op(a, b)
			if err != nil {
				return messages.ToolResult{}, err
			}

			return messages.NewTextResult(strconv.FormatFloat(v, 'f', -1, 64)), nil
		}),
	)
}

// printResult prints a tool result to the console.
func printResult(tool string, res messages.ToolResult) {
	if res.IsError {
		fmt.Printf("%s failed: %s\n", tool, res.Text())

		return
	}
	fmt.Printf("%s = %s\n", tool, res.Text())
}
