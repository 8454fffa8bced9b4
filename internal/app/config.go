// Package app wires the vault, Link Engine, LLM client, Context Manager,
// Tool-Call Loop, Agents, and Orchestrator into a runnable process, the
// way kenaz's root package wires storage, the index, and the API router.
package app

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config is the root configuration, loaded via pkg/config.Load.
type Config struct {
	LogLevel  slog.Level     `yaml:"log_level"`
	HTTP      HTTPConfig     `yaml:"http"`
	Vault     VaultConfig    `yaml:"vault"`
	LLM       LLMConfig      `yaml:"llm"`
	Context   ContextConfig  `yaml:"context"`
	ToolLoop  ToolLoopConfig `yaml:"tool_loop"`
	Links     LinksConfig    `yaml:"links"`
	Sessions  SessionsConfig `yaml:"sessions"`
	Retry     RetryConfig    `yaml:"retry"`
	SQLite    SQLiteConfig   `yaml:"sqlite"`
}

// Validate validates every nested config section.
func (c *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		&c.HTTP, &c.Vault, &c.LLM, &c.Context, &c.ToolLoop, &c.Links, &c.Sessions, &c.Retry, &c.SQLite,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HTTPConfig holds the optional reference HTTP host's configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server's listen address.
func (c *HTTPConfig) Address() string { return fmt.Sprintf(":%d", c.Port) }

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds vault_root (§6).
type VaultConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// LLMConfig holds llm.provider/model/temperature/max_tokens/timeout_s (§6).
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutS    int     `yaml:"timeout_s"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
}

// Timeout returns the per-call timeout as a duration.
func (c *LLMConfig) Timeout() time.Duration { return time.Duration(c.TimeoutS) * time.Second }

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.TimeoutS, validation.Required, validation.Min(1)),
	)
}

// ContextConfig holds context.max_*_notes, context.threshold_*, and
// context.max_tokens / compression_ratio (§6).
type ContextConfig struct {
	MaxFullNotes      int     `yaml:"max_full_notes"`
	MaxSummaryNotes   int     `yaml:"max_summary_notes"`
	MaxTitleNotes     int     `yaml:"max_title_notes"`
	ThresholdFull     float64 `yaml:"threshold_full"`
	ThresholdSummary  float64 `yaml:"threshold_summary"`
	ThresholdTitle    float64 `yaml:"threshold_title"`
	MaxTokens         int     `yaml:"max_tokens"`
	CompressionRatio  float64 `yaml:"compression_ratio"`
	FullNoteByteCap   int     `yaml:"full_note_byte_cap"`
	MaxHistoryTurns   int     `yaml:"max_history_turns"`
	SnapshotDir       string  `yaml:"snapshot_dir"`
}

// Validate validates the context configuration.
func (c *ContextConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxFullNotes, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxSummaryNotes, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxTitleNotes, validation.Required, validation.Min(1)),
		validation.Field(&c.ThresholdFull, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.ThresholdSummary, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.ThresholdTitle, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
		validation.Field(&c.CompressionRatio, validation.Min(0.0), validation.Max(1.0)),
	)
}

// ToolLoopConfig holds tool_loop.max_depth (§6).
type ToolLoopConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// Validate validates the tool-loop configuration.
func (c *ToolLoopConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(1)),
	)
}

// LinksConfig holds links.density_K (§6).
type LinksConfig struct {
	DensityK int `yaml:"density_k"`
}

// Validate validates the link-engine configuration.
func (c *LinksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DensityK, validation.Required, validation.Min(1)),
	)
}

// SessionsConfig holds sessions.max_concurrent and sessions.ttl_min (§6).
type SessionsConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	TTLMin        int `yaml:"ttl_min"`
}

// TTL returns the session TTL as a duration.
func (c *SessionsConfig) TTL() time.Duration { return time.Duration(c.TTLMin) * time.Minute }

// Validate validates the sessions configuration.
func (c *SessionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxConcurrent, validation.Required, validation.Min(1)),
		validation.Field(&c.TTLMin, validation.Required, validation.Min(1)),
	)
}

// RetryConfig holds retry.max_attempts and retry.base_delay_ms (§6).
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms"`
}

// Validate validates the retry configuration.
func (c *RetryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.BaseDelayMS, validation.Required, validation.Min(1)),
	)
}

// SQLiteConfig holds the session store's database path.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a Config with sensible defaults, mirroring
// kenaz's NewDefaultConfig.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		HTTP:     HTTPConfig{Port: 8080},
		Vault:    VaultConfig{Root: "./vault"},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1024,
			TimeoutS:    30,
		},
		Context: ContextConfig{
			MaxFullNotes:     3,
			MaxSummaryNotes:  5,
			MaxTitleNotes:    10,
			ThresholdFull:    0.8,
			ThresholdSummary: 0.5,
			ThresholdTitle:   0.2,
			MaxTokens:        8000,
			CompressionRatio: 0.5,
			FullNoteByteCap:  4000,
			MaxHistoryTurns:  20,
			SnapshotDir:      "./snapshots",
		},
		ToolLoop: ToolLoopConfig{MaxDepth: 5},
		Links:    LinksConfig{DensityK: 10},
		Sessions: SessionsConfig{MaxConcurrent: 4, TTLMin: 60},
		Retry:    RetryConfig{MaxAttempts: 3, BaseDelayMS: 200, MaxDelayMS: 5000},
		SQLite:   SQLiteConfig{Path: "./learnctl.db"},
	}
}
