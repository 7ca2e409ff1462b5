// Package config loads and validates the engine's configuration, grounded
// on the teacher's internal/config.go: one Config struct per concern,
// ozzo-validation on each, a NewDefault constructor, and YAML as the file
// format (go-yaml/yaml.v3, already the parser package's own frontmatter
// dependency).
package config

import (
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config is the top-level dendrite.yaml shape.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Semantic  SemanticConfig  `yaml:"semantic"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
}

// Validate validates every section in turn.
func (c *Config) Validate() error {
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Semantic.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.Transport.Validate()
}

// WorkspaceConfig names the vault(s) and the files within them to ignore.
type WorkspaceConfig struct {
	Name           string   `yaml:"name"`
	Vaults         []string `yaml:"vaults"`
	IgnorePatterns []string `yaml:"ignorePatterns"`
}

func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Vaults, validation.Required, validation.Length(1, 0)),
	)
}

// SemanticConfig selects which semantic.Model implementation governs key
// derivation across the whole workspace.
type SemanticConfig struct {
	Model string `yaml:"model"`
}

func (c *SemanticConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required, validation.In("Dendron")),
	)
}

// CacheConfig controls the Persistent Cache (C8).
type CacheConfig struct {
	Enabled      bool `yaml:"enabled"`
	SaveInterval int  `yaml:"saveInterval"` // seconds of idle time before a debounced flush
}

func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.SaveInterval, validation.Min(1)),
	)
}

// LogConfig mirrors the teacher's ApplicationConfig.LogLevel.
type LogConfig struct {
	Level slog.Level `yaml:"level"`
}

func (c *LogConfig) Validate() error { return nil }

// TransportConfig chooses which external interfaces to bring up.
type TransportConfig struct {
	RPCEnabled             bool   `yaml:"rpcEnabled"`
	MCPEnabled             bool   `yaml:"mcpEnabled"`
	HTTPEnabled            bool   `yaml:"httpEnabled"`
	HTTPAddress            string `yaml:"httpAddress"`
	MutationHistoryLimit   int    `yaml:"mutationHistoryLimit"`
}

func (c *TransportConfig) Validate() error {
	if !c.HTTPEnabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.HTTPAddress, validation.Required),
	)
}

// NewDefault returns a Config with sensible defaults, mirroring the
// teacher's NewDefaultConfig.
func NewDefault() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Name:           "default",
			Vaults:         []string{"."},
			IgnorePatterns: []string{".git", ".dendrite", "node_modules"},
		},
		Semantic: SemanticConfig{Model: "Dendron"},
		Cache:    CacheConfig{Enabled: true, SaveInterval: 5},
		Log:      LogConfig{Level: slog.LevelInfo},
		Transport: TransportConfig{
			RPCEnabled:           true,
			MCPEnabled:           false,
			HTTPEnabled:          true,
			HTTPAddress:          ":7377",
			MutationHistoryLimit: 20,
		},
	}
}

// Load reads and validates a YAML config file at path. A missing file is
// not an error; the default config is returned instead, matching how an
// editor-launched LSP server typically relies on initializationOptions
// rather than a file on first run.
func Load(path string) (*Config, error) {
	cfg := NewDefault()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// InitializationOptions is the subset of an LSP client's
// initializationOptions payload dendrite understands, merged over a
// file-loaded Config (client options win).
type InitializationOptions struct {
	LogLevel             string `json:"logLevel"`
	CacheEnabled         *bool  `json:"cacheEnabled"`
	CacheSaveInterval     *int   `json:"cacheSaveInterval"`
	MutationHistoryLimit *int   `json:"mutationHistoryLimit"`
}

// Apply merges non-nil/non-empty fields of opts over cfg.
func (opts InitializationOptions) Apply(cfg *Config) {
	if opts.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(opts.LogLevel)); err == nil {
			cfg.Log.Level = lvl
		}
	}
	if opts.CacheEnabled != nil {
		cfg.Cache.Enabled = *opts.CacheEnabled
	}
	if opts.CacheSaveInterval != nil {
		cfg.Cache.SaveInterval = *opts.CacheSaveInterval
	}
	if opts.MutationHistoryLimit != nil {
		cfg.Transport.MutationHistoryLimit = *opts.MutationHistoryLimit
	}
}
