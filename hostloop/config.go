package hostloop

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds the loop's tuning knobs. Intervals are in milliseconds so
// the YAML form stays plain integers.
type Config struct {
	// PollIntervalMS is the default sleep between pumps in BlockingWait.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	// WaitTimeoutMS is the default deadline for BlockingWait when the
	// caller passes zero.
	WaitTimeoutMS int `yaml:"wait_timeout_ms"`

	// FastTimers controls whether timer callbacks run in fast-event
	// context. Enabled in DefaultConfig, matching hosts that dispatch
	// timers on the I/O path.
	FastTimers bool `yaml:"fast_timers"`
}

// DefaultConfig returns the default configuration. New takes its poll
// interval and wait timeout for fields that are zero or negative;
// FastTimers is used as given.
func DefaultConfig() Config {
	return Config{
		PollIntervalMS: 2,
		WaitTimeoutMS:  1000,
		FastTimers:     true,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = def.PollIntervalMS
	}
	if c.WaitTimeoutMS <= 0 {
		c.WaitTimeoutMS = def.WaitTimeoutMS
	}
	return c
}

func (c Config) pollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c Config) waitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutMS) * time.Millisecond
}

// Load reads a YAML config file. Missing fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("hostloop: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("hostloop: parse config: %w", err)
	}
	return cfg, nil
}
