package serving

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/adapters/jsonrpc"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/internal/testutil"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/relay"
)

func testOptions(t *testing.T) options.ServeOptions {
	t.Helper()

	logger := zerolog.New(zerolog.NewTestWriter(t))

	return options.ServeOptions{Logger: &logger}
}

func newHost(t *testing.T) *jsonrpc.Host {
	t.Helper()

	reg, err := registry.New(
		registry.NewTool(
			mcp.NewTool("add",
				mcp.WithDescription("Add two numbers"),
				mcp.WithNumber("a", mcp.Required()),
				mcp.WithNumber("b", mcp.Required()),
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

				return messages.NewTextResult("Result: " + strconv.FormatFloat(a+b, 'f', -1, 64)), nil
			}),
		),
	)
	if err != nil {
		t.Fatalf("registry.New failed: %v", err)
	}
	logger := zerolog.New(zerolog.NewTestWriter(t))

	return jsonrpc.NewHost(reg, options.HostOptions{Logger: &logger})
}

const session = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"clientInfo":{"name":"t","version":"1"}}}

{"jsonrpc":"2.0","method":"notifications/initialized"}
{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"add","arguments":{"a":2,"b":3}}}
this is not json
{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"missing","arguments":{}}}
{"jsonrpc":"2.0","id":"q","method":"prompts/list"}
`

var sessionReplies = []string{
	`{"jsonrpc":"2.0","id":1,"result":{"protocolVersion":"2024-11-05","serverInfo":{"name":"toolpipe-host","version":"1.0.0"},"capabilities":{"tools":{"listChanged":false}}}}`,
	`{"jsonrpc":"2.0","id":2,"result":{"content":[{"type":"text","text":"Result: 5"}],"is_error":false}}`,
	`{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}`,
	`{"jsonrpc":"2.0","id":3,"error":{"code":-32602,"message":"Unknown tool: missing"}}`,
	`{"jsonrpc":"2.0","id":"q","error":{"code":-32601,"message":"Method not found: prompts/list"}}`,
}

func TestRunHostSession(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), newHost(t), strings.NewReader(session), &out, testOptions(t))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := strings.Join(sessionReplies, "\n") + "\n"
	if out.String() != want {
		t.Errorf("output mismatch\n got: %s\nwant: %s", out.String(), want)
	}
}

func TestRunRelayMatchesHost(t *testing.T) {
	var direct, relayed bytes.Buffer

	if err := Run(context.Background(), newHost(t), strings.NewReader(session), &direct, testOptions(t)); err != nil {
		t.Fatalf("direct Run failed: %v", err)
	}

	spawner := testutil.NewFakeSpawner(testutil.HostBehavior(newHost(t)))
	logger := zerolog.New(zerolog.NewTestWriter(t))
	r, err := relay.New(options.RelayOptions{Spawner: spawner, Logger: &logger})
	if err != nil {
		t.Fatalf("relay.New failed: %v", err)
	}
	defer r.Close()

	if err := Run(context.Background(), r, strings.NewReader(session), &relayed, testOptions(t)); err != nil {
		t.Fatalf("relayed Run failed: %v", err)
	}

	if !bytes.Equal(direct.Bytes(), relayed.Bytes()) {
		t.Errorf("relay output differs\ndirect:  %s\nrelayed: %s", direct.String(), relayed.String())
	}
}

func TestRunHandlerFailures(t *testing.T) {
	h := ports.HandlerFunc(func(_ context.Context, env *messages.Envelope, _ []byte) ([]byte, error) {
		switch env.Method {
		case "panic":
			panic("boom")
		case "fail":
			return nil, errors.New("backend unavailable")
		default:
			return messages.Encode(messages.NewError(env.ReplyID(), 0, "ok"))
		}
	})

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"panic"}`,
		`{"jsonrpc":"2.0","method":"panic"}`,
		`{"jsonrpc":"2.0","id":2,"method":"fail"}`,
		`{"jsonrpc":"2.0","method":"fail"}`,
		`{"jsonrpc":"2.0","id":3,"method":"other"}`,
	}, "\n")

	var out bytes.Buffer
	if err := Run(context.Background(), h, strings.NewReader(input), &out, testOptions(t)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"Internal error"}}`,
		`{"jsonrpc":"2.0","id":2,"error":{"code":-32603,"message":"backend unavailable"}}`,
		`{"jsonrpc":"2.0","id":3,"error":{"code":0,"message":"ok"}}`,
	}, "\n") + "\n"
	if out.String() != want {
		t.Errorf("output mismatch\n got: %s\nwant: %s", out.String(), want)
	}
}

func TestRunOversizedLine(t *testing.T) {
	limit := 64
	opts := testOptions(t)
	opts.MaxLineBytes = &limit

	input := `{"jsonrpc":"2.0","id":1,"method":"x","params":"` + strings.Repeat("a", 128) + `"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"

	var out bytes.Buffer
	if err := Run(context.Background(), newHost(t), strings.NewReader(input), &out, opts); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 replies, got %q", lines)
	}
	if lines[0] != `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}` {
		t.Errorf("Unexpected first reply %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], `{"jsonrpc":"2.0","id":2,"result":{"tools":[`) {
		t.Errorf("Unexpected second reply %s", lines[1])
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestRunStopsOnBrokenOutput(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n"
	err := Run(context.Background(), newHost(t), strings.NewReader(input), brokenWriter{}, testOptions(t))
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Expected write error, got %v", err)
	}
}

func TestRunCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out bytes.Buffer

	host := newHost(t)
	opts := testOptions(t)
	go func() {
		done <- Run(ctx, host, pr, &out, opts)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output, got %s", out.String())
	}
}
