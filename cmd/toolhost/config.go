package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/conneroisu/toolpipe/internal/config"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/tools"
)

type hostConfig struct {
	Name           string        `env:"TOOLPIPE_HOST_NAME"`
	Version        string        `env:"TOOLPIPE_HOST_VERSION"`
	LogLevel       string        `env:"TOOLPIPE_LOG_LEVEL"`
	AllowedDomains []string      `env:"TOOLPIPE_ALLOWED_DOMAINS" envSeparator:","`
	FetchTimeout   time.Duration `env:"TOOLPIPE_FETCH_TIMEOUT"`
	MaxLineBytes   int           `env:"TOOLPIPE_MAX_LINE_BYTES"`
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		Name:         options.DefaultServerName,
		Version:      options.DefaultServerVersion,
		LogLevel:     "info",
		FetchTimeout: 5 * time.Second,
		MaxLineBytes: options.DefaultMaxLineBytes,
	}
}

// loadConfig applies the environment and then flags over the defaults.
func loadConfig(args []string, stderr io.Writer) (hostConfig, error) {
	cfg := defaultHostConfig()
	if err := config.ParseEnv(&cfg); err != nil {
		return hostConfig{}, err
	}

	fs := flag.NewFlagSet("toolhost", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Name, "name", cfg.Name, "server name reported in the handshake")
	fs.StringVar(&cfg.Version, "version", cfg.Version, "server version reported in the handshake")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error, disabled)")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "timeout for fetch_url requests")
	fs.IntVar(&cfg.MaxLineBytes, "max-line-bytes", cfg.MaxLineBytes, "longest accepted input line")
	domains := fs.String("allowed-domains", strings.Join(cfg.AllowedDomains, ","), "comma separated hosts fetch_url may contact")

	if err := fs.Parse(args); err != nil {
		return hostConfig{}, err
	}
	if fs.NArg() > 0 {
		return hostConfig{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg.AllowedDomains = splitList(*domains)
	if cfg.MaxLineBytes <= 0 {
		return hostConfig{}, fmt.Errorf("max-line-bytes must be positive, got %d", cfg.MaxLineBytes)
	}

	return cfg, nil
}

func (c hostConfig) toolOptions() tools.Options {
	return tools.Options{
		AllowedDomains: c.AllowedDomains,
		FetchTimeout:   c.FetchTimeout,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}

	return out
}
