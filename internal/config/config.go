// Package config loads the runtime configuration for the server mode from
// an HCL file and validates it.
package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config holds everything the serve mode needs to run.
type Config struct {
	// ToolchainPath points at the out-of-band firmware toolchain. Jobs are
	// refused when it is empty.
	ToolchainPath string `hcl:"toolchain_path,optional"`
	// BoardsDir contains the normalized board geometry files.
	BoardsDir string `hcl:"boards_dir"`
	// LogsDir receives one durable log file per job.
	LogsDir string `hcl:"logs_dir,optional"`
	// OutputDir receives one output directory per job.
	OutputDir string `hcl:"output_dir,optional"`

	ListenPort int    `hcl:"listen_port,optional"`
	LogFormat  string `hcl:"log_format,optional"`
	LogLevel   string `hcl:"log_level,optional"`
}

// Defaults applied for omitted optional fields.
const (
	DefaultListenPort = 8484
	DefaultLogsDir    = "logs"
	DefaultOutputDir  = "out"
)

// LoadFile parses and validates one HCL config file.
func LoadFile(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing config %s: %w", path, diags)
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decoding config %s: %w", path, diags)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Normalize fills defaults and rejects invalid values.
func (c *Config) Normalize() error {
	if c.BoardsDir == "" {
		return errors.New("boards_dir is required")
	}
	if c.LogsDir == "" {
		c.LogsDir = DefaultLogsDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.ListenPort == 0 {
		c.ListenPort = DefaultListenPort
	}
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port %d out of range", c.ListenPort)
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be 'text' or 'json', got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}
