package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/conneroisu/toolpipe/internal/config"
	"github.com/conneroisu/toolpipe/internal/logging"
	caller "github.com/conneroisu/toolpipe/pkg/toolpipe/adapters/mcp"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
)

const (
	exitOK = iota
	exitFailure
	exitToolError
	exitUsage
)

var errUsage = errors.New("usage: toolctl [flags] list|call <tool> [json-arguments] -- command [args...]")

type envConfig struct {
	LogLevel string        `env:"TOOLPIPE_LOG_LEVEL" envDefault:"warn"`
	Timeout  time.Duration `env:"TOOLPIPE_CTL_TIMEOUT" envDefault:"30s"`
}

type invocation struct {
	Command   string
	Tool      string
	Arguments map[string]any
	Child     options.ChildCommand
	Timeout   time.Duration
	LogLevel  string
}

// parseInvocation splits args at "--" into the toolctl part and the host
// command line.
func parseInvocation(args []string, stderr io.Writer) (invocation, error) {
	var env envConfig
	if err := config.ParseEnv(&env); err != nil {
		return invocation{}, err
	}

	inv := invocation{Timeout: env.Timeout, LogLevel: env.LogLevel}

	fs := flag.NewFlagSet("toolctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.DurationVar(&inv.Timeout, "timeout", inv.Timeout, "overall deadline (0 disables)")
	fs.StringVar(&inv.LogLevel, "log-level", inv.LogLevel, "log level (trace, debug, info, warn, error, disabled)")

	own, child := args, []string(nil)
	if i := slices.Index(args, "--"); i >= 0 {
		own, child = args[:i], args[i+1:]
	}
	if err := fs.Parse(own); err != nil {
		return invocation{}, err
	}
	if len(child) == 0 {
		return invocation{}, fmt.Errorf("missing host command: %w", errUsage)
	}
	inv.Child = options.ChildCommand{Command: child[0], Args: child[1:]}

	rest := fs.Args()
	if len(rest) == 0 {
		return invocation{}, errUsage
	}
	inv.Command = rest[0]

	switch inv.Command {
	case "list":
		if len(rest) != 1 {
			return invocation{}, errUsage
		}
	case "call":
		if len(rest) < 2 || len(rest) > 3 {
			return invocation{}, errUsage
		}
		inv.Tool = rest[1]
		inv.Arguments = map[string]any{}
		if len(rest) == 3 {
			if err := json.Unmarshal([]byte(rest[2]), &inv.Arguments); err != nil {
				return invocation{}, fmt.Errorf("tool arguments must be a JSON object: %w", err)
			}
		}
	default:
		return invocation{}, fmt.Errorf("unknown command %q: %w", inv.Command, errUsage)
	}

	return inv, nil
}

// run executes one toolctl invocation and returns the exit code.
func run(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
	transport func(invocation) mcp.Transport,
) int {
	inv, err := parseInvocation(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "toolctl: %v\n", err)

		return exitUsage
	}

	level, err := logging.ParseLevel(inv.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "toolctl: %v\n", err)

		return exitUsage
	}
	logger := logging.New("toolctl", stderr, level)

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	c, err := caller.Dial(ctx, transport(inv), options.CallerOptions{Logger: &logger})
	if err != nil {
		logger.Error().Err(err).Str("command", inv.Child.Command).Msg("connect failed")

		return exitFailure
	}
	defer c.Close()

	switch inv.Command {
	case "list":
		tools, err := c.ListTools(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("tools/list failed")

			return exitFailure
		}
		for _, t := range tools {
			fmt.Fprintf(stdout, "%s\t%s\n", t.Name, t.Description)
		}
	case "call":
		res, err := c.CallTool(ctx, inv.Tool, inv.Arguments)
		if err != nil {
			logger.Error().Err(err).Str("tool", inv.Tool).Msg("tools/call failed")

			return exitFailure
		}
		fmt.Fprintln(stdout, res.Text())
		if res.IsError {
			return exitToolError
		}
	}

	return exitOK
}
