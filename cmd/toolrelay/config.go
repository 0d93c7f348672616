package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/conneroisu/toolpipe/internal/config"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/options"
)

type relayConfig struct {
	Child           options.ChildCommand
	ResponseTimeout time.Duration
	TerminateGrace  time.Duration
	MaxLineBytes    int
	LogLevel        string
}

func defaultRelayConfig() relayConfig {
	return relayConfig{
		ResponseTimeout: options.DefaultResponseTimeout,
		TerminateGrace:  options.DefaultTerminateGrace,
		MaxLineBytes:    options.DefaultMaxLineBytes,
		LogLevel:        "info",
	}
}

type fileConfig struct {
	LogLevel        string           `toml:"log_level"`
	ResponseTimeout string           `toml:"response_timeout"`
	TerminateGrace  string           `toml:"terminate_grace"`
	MaxLineBytes    int              `toml:"max_line_bytes"`
	Server          fileServerConfig `toml:"server"`
}

type fileServerConfig struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Env     map[string]string `toml:"env"`
	Dir     string            `toml:"dir"`
}

// envConfig only overrides the fields whose variables are set.
type envConfig struct {
	ConfigPath      *string        `env:"TOOLPIPE_RELAY_CONFIG"`
	Command         *string        `env:"TOOLPIPE_RELAY_COMMAND"`
	Args            []string       `env:"TOOLPIPE_RELAY_ARGS" envSeparator:" "`
	ResponseTimeout *time.Duration `env:"TOOLPIPE_RELAY_TIMEOUT"`
	TerminateGrace  *time.Duration `env:"TOOLPIPE_RELAY_GRACE"`
	LogLevel        *string        `env:"TOOLPIPE_LOG_LEVEL"`
}

// loadConfig layers defaults, the TOML file, the environment and flags, in
// that order. Arguments after the flags replace the child command line.
func loadConfig(args []string, stderr io.Writer) (relayConfig, error) {
	cfg := defaultRelayConfig()

	var envCfg envConfig
	if err := config.ParseEnv(&envCfg); err != nil {
		return relayConfig{}, err
	}

	fs := flag.NewFlagSet("toolrelay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "path to a TOML relay config")
	timeout := fs.Duration("timeout", 0, "how long to wait for each child reply (0 waits forever)")
	grace := fs.Duration("grace", 0, "how long the child has to exit before it is killed")
	logLevel := fs.String("log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: toolrelay [flags] [--] command [args...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return relayConfig{}, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *path == "" && envCfg.ConfigPath != nil {
		*path = *envCfg.ConfigPath
	}
	if *path != "" {
		var err error
		if cfg, err = applyFile(cfg, *path); err != nil {
			return relayConfig{}, err
		}
	}

	applyEnv(&cfg, envCfg)

	if set["timeout"] {
		cfg.ResponseTimeout = *timeout
	}
	if set["grace"] {
		cfg.TerminateGrace = *grace
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if fs.NArg() > 0 {
		cfg.Child.Command = fs.Arg(0)
		cfg.Child.Args = fs.Args()[1:]
	}

	if strings.TrimSpace(cfg.Child.Command) == "" {
		return relayConfig{}, fmt.Errorf("no server command configured")
	}
	if cfg.ResponseTimeout < 0 || cfg.TerminateGrace < 0 {
		return relayConfig{}, fmt.Errorf("durations must not be negative")
	}

	return cfg, nil
}

func applyFile(cfg relayConfig, path string) (relayConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return relayConfig{}, fmt.Errorf("load relay config: %w", err)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("response_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ResponseTimeout))
		if err != nil {
			return relayConfig{}, fmt.Errorf("parse response_timeout: %w", err)
		}
		cfg.ResponseTimeout = d
	}

	if meta.IsDefined("terminate_grace") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.TerminateGrace))
		if err != nil {
			return relayConfig{}, fmt.Errorf("parse terminate_grace: %w", err)
		}
		cfg.TerminateGrace = d
	}

	if meta.IsDefined("max_line_bytes") {
		if raw.MaxLineBytes <= 0 {
			return relayConfig{}, fmt.Errorf("max_line_bytes must be positive, got %d", raw.MaxLineBytes)
		}
		cfg.MaxLineBytes = raw.MaxLineBytes
	}

	if meta.IsDefined("server", "command") {
		cfg.Child.Command = strings.TrimSpace(raw.Server.Command)
	}

	if meta.IsDefined("server", "args") {
		cfg.Child.Args = raw.Server.Args
	}

	if meta.IsDefined("server", "env") {
		cfg.Child.Env = raw.Server.Env
	}

	if meta.IsDefined("server", "dir") {
		dir := strings.TrimSpace(raw.Server.Dir)
		cfg.Child.Dir = &dir
	}

	return cfg, nil
}

func applyEnv(cfg *relayConfig, e envConfig) {
	if e.Command != nil {
		cfg.Child.Command = *e.Command
		cfg.Child.Args = e.Args
	} else if e.Args != nil {
		cfg.Child.Args = e.Args
	}
	if e.ResponseTimeout != nil {
		cfg.ResponseTimeout = *e.ResponseTimeout
	}
	if e.TerminateGrace != nil {
		cfg.TerminateGrace = *e.TerminateGrace
	}
	if e.LogLevel != nil {
		cfg.LogLevel = *e.LogLevel
	}
}
