// Package serving runs the read-dispatch-write loop that connects a line
// stream to a ports.Handler: one envelope per line in, at most one line out.
package serving

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/conneroisu/toolpipe/internal/transport"
	"github.com/conneroisu/toolpipe/pkg/pipeerrs"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/ports"
)

// Run serves h over in and out until in ends, ctx is done or out breaks.
// It returns nil at end of input, ctx.Err() on cancellation and the write
// error when out fails. Handler errors and panics are answered with
// internal errors and do not stop the loop.
func Run(ctx context.Context, h ports.Handler, in io.Reader, out io.Writer, opts options.ServeOptions) error {
	tr := transport.NewStdioTransport(in, out, opts.LineLimit())
	defer tr.Close()

	l := &loop{
		handler: h,
		tr:      tr,
		log:     opts.Log().With().Str("component", "serve").Logger(),
	}

	return l.run(ctx)
}

// Serve runs h over the process's stdin and stdout, stopping on SIGINT or
// SIGTERM. If h is an io.Closer it is closed once the loop ends.
func Serve(ctx context.Context, h ports.Handler, opts options.ServeOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := Run(ctx, h, os.Stdin, os.Stdout, opts)

	if closer, ok := h.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close handler: %w", cerr))
		}
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

type loop struct {
	handler ports.Handler
	tr      transport.Transport
	log     zerolog.Logger
	lines   int
}

func (l *loop) run(ctx context.Context) error {
	l.log.Debug().Msg("serving")

	for {
		line, err := l.tr.Read(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			l.log.Debug().Int("lines", l.lines).Msg("end of input")

			return nil
		case ctx.Err() != nil:
			l.log.Debug().Int("lines", l.lines).Msg("cancelled")

			return ctx.Err()
		case errors.Is(err, transport.ErrLineTooLong):
			l.log.Warn().Msg("discarding oversized line")
			if werr := l.write(ctx, parseErrorLine()); werr != nil {
				return werr
			}

			continue
		default:
			return err
		}

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		l.lines++

		reply := l.handle(ctx, trimmed)
		if reply == nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			continue
		}
		if err := l.write(ctx, reply); err != nil {
			return err
		}
	}
}

func (l *loop) write(ctx context.Context, reply []byte) error {
	if err := l.tr.Write(context.WithoutCancel(ctx), reply); err != nil {
		l.log.Error().Err(err).Msg("output closed")

		return err
	}

	return nil
}

// handle produces the reply line for one trimmed input line, or nil.
func (l *loop) handle(ctx context.Context, line []byte) (reply []byte) {
	env, err := messages.Decode(line)
	if err != nil {
		l.log.Debug().Err(err).Msg("undecodable line")

		return parseErrorLine()
	}

	defer func() {
		if rec := recover(); rec != nil {
			l.log.Error().Interface("panic", rec).Str("method", env.Method).Msg("handler panicked")
			reply = internalErrorLine(env, "Internal error")
		}
	}()

	out, err := l.handler.Handle(ctx, env, line)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		l.log.Error().Err(err).Str("method", env.Method).Msg("handler failed")

		return internalErrorLine(env, err.Error())
	}

	return out
}

func parseErrorLine() []byte {
	out, _ := messages.Encode(messages.NewError(nil, pipeerrs.CodeParseError, "Parse error"))

	return out
}

// internalErrorLine answers env with an internal error. Notifications get
// no reply.
func internalErrorLine(env *messages.Envelope, message string) []byte {
	if env.IsNotification() {
		return nil
	}
	out, _ := messages.Encode(messages.NewError(env.ReplyID(), pipeerrs.CodeInternalError, message))

	return out
}
