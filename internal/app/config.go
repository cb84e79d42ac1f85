package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ConfigFileName is the optional per-root config file. It is never treated as a
// redirect source.
const ConfigFileName = "redirectlint.yaml"

// Config holds all configurable parameters for the application.
type Config struct {
	RootDir   string   `koanf:"root"`
	Recursive bool     `koanf:"recursive"`
	Exclude   []string `koanf:"exclude"`
	LogLevel  string   `koanf:"log_level"`
	Verbose   bool     `koanf:"verbose"`

	WatcherDebounce time.Duration `koanf:"watch_debounce"`
	LimiterTTL      time.Duration `koanf:"limiter_ttl"`

	Check  CheckConfig  `koanf:"check"`
	Encode EncodeConfig `koanf:"encode"`
}

// CheckConfig configures link probing.
type CheckConfig struct {
	Concurrency    int           `koanf:"concurrency"` // 0 = unlimited
	Timeout        time.Duration `koanf:"timeout"`
	BrokenStatuses []int         `koanf:"broken_statuses"` // nil = built-in set
	BrokenExpr     string        `koanf:"broken_expr"`
	HostRate       float64       `koanf:"host_rate"` // 0 = unpaced
	HostBurst      int           `koanf:"host_burst"`
	Method         string        `koanf:"method"`
	UserAgent      string        `koanf:"user_agent"`
}

// EncodeConfig configures the script splice.
type EncodeConfig struct {
	Script  string `koanf:"script"`
	Pattern string `koanf:"pattern"` // "" = services.DefaultSplicePattern
	DryRun  bool   `koanf:"dry_run"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		RootDir:  ".",
		LogLevel: "warn",
		Exclude:  []string{ConfigFileName},

		WatcherDebounce: 500 * time.Millisecond,
		LimiterTTL:      10 * time.Minute,

		Check: CheckConfig{
			Timeout:   15 * time.Second,
			HostBurst: 1,
			Method:    http.MethodGet,
			UserAgent: "redirectlint",
		},
	}
}

// Validate reports the first invalid setting for the given workflow.
func (c Config) Validate(wf Workflow) error {
	if c.RootDir == "" {
		return errors.New("root directory must not be empty")
	}
	if c.WatcherDebounce <= 0 {
		return fmt.Errorf("watch debounce must be positive, got %s", c.WatcherDebounce)
	}
	if c.Check.Timeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", c.Check.Timeout)
	}
	if c.Check.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Check.Concurrency)
	}
	if c.Check.HostRate < 0 {
		return fmt.Errorf("host rate must not be negative, got %g", c.Check.HostRate)
	}
	if c.Check.HostRate > 0 && c.Check.HostBurst < 1 {
		return fmt.Errorf("host burst must be at least 1, got %d", c.Check.HostBurst)
	}
	for _, s := range c.Check.BrokenStatuses {
		if s < 100 || s > 599 {
			return fmt.Errorf("broken status %d outside 100-599", s)
		}
	}
	switch c.Check.Method {
	case http.MethodGet, http.MethodHead:
	default:
		return fmt.Errorf("probe method must be GET or HEAD, got %q", c.Check.Method)
	}
	if wf == WorkflowEncode && c.Encode.Script == "" {
		return errors.New("encode requires a script path")
	}
	return nil
}
