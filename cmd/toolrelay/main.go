// Command toolrelay speaks the tool protocol on stdin and stdout and
// forwards every envelope to a tool host child process, started on first
// use.
package main

import (
	"context"
	"os"

	"github.com/conneroisu/toolpipe/internal/config"
	"github.com/conneroisu/toolpipe/internal/logging"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/adapters/cli"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/relay"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/serving"
)

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		config.Exitf("toolrelay: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		config.Exitf("toolrelay: %v", err)
	}
	logger := logging.New("toolrelay", os.Stderr, level)

	spawner := cli.NewSpawner(cfg.Child, &logger)
	r, err := relay.New(options.RelayOptions{
		Spawner:         spawner,
		ResponseTimeout: &cfg.ResponseTimeout,
		TerminateGrace:  &cfg.TerminateGrace,
		MaxLineBytes:    &cfg.MaxLineBytes,
		Logger:          &logger,
	})
	if err != nil {
		config.Exitf("toolrelay: %v", err)
	}

	logger.Info().
		Str("command", spawner.CommandLine()).
		Dur("timeout", cfg.ResponseTimeout).
		Msg("relaying stdio to tool host")

	err = serving.Serve(context.Background(), r, options.ServeOptions{
		MaxLineBytes: &cfg.MaxLineBytes,
		Logger:       &logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("serve failed")
		os.Exit(1)
	}
}
