package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for clipbot. All values are static for
// the lifetime of the process.
type Config struct {
	Bot    BotConfig    `json:"bot"`
	Limits LimitsConfig `json:"limits"`
	Media  MediaConfig  `json:"media"`
}

// BotConfig holds transport credentials and access control.
type BotConfig struct {
	// Token is the Discord bot token. Required to run the gateway.
	Token string `json:"token"`
	// AllowFrom is an allow-list of user IDs. Empty means open to all.
	AllowFrom []string `json:"allowFrom"`
}

// LimitsConfig holds per-identity admission limits.
type LimitsConfig struct {
	RequestsPerWindow int `json:"requestsPerWindow"`
	WindowSeconds     int `json:"windowSeconds"`
}

// MediaConfig holds download and re-encode parameters.
type MediaConfig struct {
	// SizeBudgetMB is the delivery size cap; larger results are re-encoded
	// once and, failing that, degraded to a direct link.
	SizeBudgetMB int `json:"sizeBudgetMB"`
	// CRF is the constant-quality parameter handed to the encoder.
	CRF string `json:"crf"`
	// MaxHeight caps output resolution; smaller inputs are never upscaled.
	MaxHeight int `json:"maxHeight"`
	// FetchTimeoutSeconds bounds a whole yt-dlp invocation.
	FetchTimeoutSeconds int `json:"fetchTimeoutSeconds"`
	// WorkDir is where per-run scratch directories are created.
	// Empty means the system temp directory.
	WorkDir string `json:"workDir"`
}

// Window returns the rate-limit window length.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Limits.WindowSeconds) * time.Second
}

// FetchTimeout returns the bound on a single external tool invocation.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Media.FetchTimeoutSeconds) * time.Second
}

// WorkDirPath returns the scratch directory root, defaulting to the system
// temp directory.
func (c *Config) WorkDirPath() string {
	if c.Media.WorkDir != "" {
		return expandHome(c.Media.WorkDir)
	}
	return os.TempDir()
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			RequestsPerWindow: 5,
			WindowSeconds:     60,
		},
		Media: MediaConfig{
			SizeBudgetMB:        25,
			CRF:                 "28",
			MaxHeight:           720,
			FetchTimeoutSeconds: 300,
		},
	}
}

func expandHome(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
