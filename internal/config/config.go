// Package config layers defaults, an optional JSON5 file, the environment and CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/keyfc/bbs/internal/utils/headers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/titanous/json5"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Tracing. Spans are exported over OTLP/HTTP only when an endpoint is set.
	OTLPEndpoint string
	OTLPHeaders  map[string]string

	// Forum and HTTP
	BaseURL     string
	HTTPTimeout time.Duration
	UserAgent   string
	Proxy       string
	Headers     map[string]string

	// Account
	Username  string
	Password  string
	AutoLogin bool

	// Sessions. An empty SessionDir selects the OS keyring when one is available.
	Session    string
	SessionDir string

	StrictBreadcrumbs bool
}

// File is the on-disk layout of the config file. Zero fields leave the defaults alone.
type File struct {
	BaseURL           string            `json:"baseUrl"`
	Timeout           string            `json:"timeout"`
	UserAgent         string            `json:"userAgent"`
	Proxy             string            `json:"proxy"`
	Headers           map[string]string `json:"headers"`
	Username          string            `json:"username"`
	Password          string            `json:"password"`
	Session           string            `json:"session"`
	SessionDir        string            `json:"sessionDir"`
	StrictBreadcrumbs bool              `json:"strictBreadcrumbs"`
	LogLevel          string            `json:"logLevel"`
	OTLP              OTLPFile          `json:"otlp"`
}

// OTLPFile configures trace export
type OTLPFile struct {
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
}

// Default returns a Config holding only the defaults
func Default() *Config {
	return &Config{
		LogLevel:    DefaultLogLevel,
		JSONLog:     DefaultJSONLog,
		BaseURL:     DefaultBaseURL,
		HTTPTimeout: DefaultHTTPTimeout,
		UserAgent:   DefaultUserAgent,
		AutoLogin:   DefaultAutoLogin,
	}
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path := os.Getenv(EnvConfig)
	if f := lookup(cmd, "config"); f != nil && f.Value.String() != "" {
		path = f.Value.String()
	}
	if path != "" {
		file, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.apply(file); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.applyFlags(cmd); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ReadFile parses name and merges "<name>.local.<ext>" over it when present
func ReadFile(name string) (File, error) {
	var out File

	data, err := os.ReadFile(name)
	if err != nil {
		return out, err
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	local := localName(name)
	data, err = os.ReadFile(local)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return out, err
	}

	var override File
	if err := json5.Unmarshal(data, &override); err != nil {
		return out, fmt.Errorf("failed to parse %s: %w", local, err)
	}
	if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
		return out, fmt.Errorf("failed to merge %s: %w", local, err)
	}
	log.Debug().Str("local", local).Msg("Merged local config overrides")
	return out, nil
}

// localName turns "dir/keyfc.json5" into "dir/keyfc.local.json5"
func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func (c *Config) apply(f File) error {
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", f.Timeout, err)
		}
		c.HTTPTimeout = d
	}
	setString(&c.BaseURL, f.BaseURL)
	setString(&c.UserAgent, f.UserAgent)
	setString(&c.Proxy, f.Proxy)
	setString(&c.Username, f.Username)
	setString(&c.Password, f.Password)
	setString(&c.Session, f.Session)
	setString(&c.SessionDir, f.SessionDir)
	setString(&c.LogLevel, f.LogLevel)
	if len(f.Headers) > 0 {
		c.Headers = f.Headers
	}
	setString(&c.OTLPEndpoint, f.OTLP.Endpoint)
	if len(f.OTLP.Headers) > 0 {
		c.OTLPHeaders = f.OTLP.Headers
	}
	if f.StrictBreadcrumbs {
		c.StrictBreadcrumbs = true
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.BaseURL, os.Getenv(EnvBaseURL))
	setString(&c.UserAgent, os.Getenv(EnvUserAgent))
	setString(&c.Username, os.Getenv(EnvUsername))
	setString(&c.Password, os.Getenv(EnvPassword))
	setString(&c.Proxy, os.Getenv(EnvProxy))
	setString(&c.OTLPEndpoint, os.Getenv(EnvOTLPEndpoint))
}

func (c *Config) applyFlags(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	for name, dst := range map[string]*string{
		"base-url":      &c.BaseURL,
		"user-agent":    &c.UserAgent,
		"proxy":         &c.Proxy,
		"username":      &c.Username,
		"session":       &c.Session,
		"session-dir":   &c.SessionDir,
		"otlp-endpoint": &c.OTLPEndpoint,
	} {
		if f := lookup(cmd, name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}

	if f := lookup(cmd, "timeout"); f != nil && f.Changed {
		d, err := time.ParseDuration(f.Value.String())
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		c.HTTPTimeout = d
	}
	if f := lookup(cmd, "header"); f != nil && f.Changed {
		var values []string
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			values = sv.GetSlice()
		}
		parsed, err := headers.Parse(values)
		if err != nil {
			return fmt.Errorf("invalid --header: %w", err)
		}
		if c.Headers == nil {
			c.Headers = map[string]string{}
		}
		for key, value := range parsed {
			c.Headers[key] = value
		}
	}

	if flagTrue(cmd, "json") {
		c.JSONLog = true
	}
	if flagTrue(cmd, "quiet") {
		c.LogLevel = "error"
	}
	if flagTrue(cmd, "verbose") {
		c.LogLevel = "debug"
	}
	if flagTrue(cmd, "strict") {
		c.StrictBreadcrumbs = true
	}
	if flagTrue(cmd, "no-auto-login") {
		c.AutoLogin = false
	}
	return nil
}

func lookup(cmd *cobra.Command, name string) *pflag.Flag {
	if cmd == nil {
		return nil
	}
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.PersistentFlags().Lookup(name)
}

func flagTrue(cmd *cobra.Command, name string) bool {
	f := lookup(cmd, name)
	return f != nil && f.Value.String() == "true"
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
