// Command toolhost serves the built-in tool catalog over stdin and stdout.
package main

import (
	"context"
	"os"

	"github.com/conneroisu/toolpipe/internal/config"
	"github.com/conneroisu/toolpipe/internal/logging"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/adapters/jsonrpc"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/serving"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/tools"
)

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		config.Exitf("toolhost: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		config.Exitf("toolhost: %v", err)
	}
	logger := logging.New("toolhost", os.Stderr, level)

	reg, err := tools.NewRegistry(cfg.toolOptions())
	if err != nil {
		config.Exitf("toolhost: %v", err)
	}

	host := jsonrpc.NewHost(reg, options.HostOptions{
		Name:    &cfg.Name,
		Version: &cfg.Version,
		Logger:  &logger,
	})

	logger.Info().
		Str("name", cfg.Name).
		Int("tools", reg.Len()).
		Strs("allowed_domains", cfg.AllowedDomains).
		Msg("serving tools on stdio")

	err = serving.Serve(context.Background(), host, options.ServeOptions{
		MaxLineBytes: &cfg.MaxLineBytes,
		Logger:       &logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("serve failed")
		os.Exit(1)
	}
}
