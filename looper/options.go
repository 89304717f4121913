package looper

import (
	"fmt"
	"math"

	"github.com/cwbudde/sixteen/dsp/dither"
)

const (
	defaultMemorySeconds     = 16.0
	minMemorySeconds         = 1.0
	maxMemorySeconds         = 60.0
	defaultLimiterThreshold  = 0.98
	defaultLimiterAttackMs   = 1.0
	defaultLimiterReleaseMs  = 50.0
	defaultDelaySmoothingMs  = 10.0
	maxDelaySmoothingMs      = 1000.0
	defaultRebaseLoopPeriods = 1 << 20
)

// Config holds engine settings fixed at construction.
type Config struct {
	MemorySeconds     float64
	LimiterThreshold  float32
	LimiterAttackMs   float32
	LimiterReleaseMs  float32
	NoiseSeed         uint32
	DelaySmoothingMs  float32
	RebaseLoopPeriods float64
}

// Option mutates a Config and reports invalid values.
type Option func(*Config) error

// DefaultConfig returns a 16 second memory, a 0.98 limiter ceiling with 1 ms
// attack and 50 ms release, and a 10 ms delay glide.
func DefaultConfig() Config {
	return Config{
		MemorySeconds:     defaultMemorySeconds,
		LimiterThreshold:  defaultLimiterThreshold,
		LimiterAttackMs:   defaultLimiterAttackMs,
		LimiterReleaseMs:  defaultLimiterReleaseMs,
		NoiseSeed:         dither.DefaultSeed,
		DelaySmoothingMs:  defaultDelaySmoothingMs,
		RebaseLoopPeriods: defaultRebaseLoopPeriods,
	}
}

// WithMemorySeconds sets the memory capacity in seconds, in [1, 60].
func WithMemorySeconds(seconds float64) Option {
	return func(cfg *Config) error {
		if seconds < minMemorySeconds || seconds > maxMemorySeconds || math.IsNaN(seconds) {
			return fmt.Errorf("looper memory seconds must be in [%g, %g]: %f", minMemorySeconds, maxMemorySeconds, seconds)
		}
		cfg.MemorySeconds = seconds
		return nil
	}
}

// WithLimiterThreshold sets the output limiter ceiling, in [0.01, 1].
func WithLimiterThreshold(threshold float32) Option {
	return func(cfg *Config) error {
		if threshold < 0.01 || threshold > 1 || math.IsNaN(float64(threshold)) {
			return fmt.Errorf("looper limiter threshold must be in [0.01, 1]: %f", threshold)
		}
		cfg.LimiterThreshold = threshold
		return nil
	}
}

// WithLimiterAttackMs sets the limiter attack time, at least 0.1 ms.
func WithLimiterAttackMs(ms float32) Option {
	return func(cfg *Config) error {
		if ms < 0.1 || math.IsNaN(float64(ms)) || math.IsInf(float64(ms), 0) {
			return fmt.Errorf("looper limiter attack must be >= 0.1 ms: %f", ms)
		}
		cfg.LimiterAttackMs = ms
		return nil
	}
}

// WithLimiterReleaseMs sets the limiter release time, at least 1 ms.
func WithLimiterReleaseMs(ms float32) Option {
	return func(cfg *Config) error {
		if ms < 1 || math.IsNaN(float64(ms)) || math.IsInf(float64(ms), 0) {
			return fmt.Errorf("looper limiter release must be >= 1 ms: %f", ms)
		}
		cfg.LimiterReleaseMs = ms
		return nil
	}
}

// WithNoiseSeed sets the value the noise generator returns to on clear.
func WithNoiseSeed(seed uint32) Option {
	return func(cfg *Config) error {
		cfg.NoiseSeed = seed
		return nil
	}
}

// WithDelaySmoothingMs sets the delay-time glide of the non-authentic delay
// path, in [0, 1000] ms. Zero jumps immediately.
func WithDelaySmoothingMs(ms float32) Option {
	return func(cfg *Config) error {
		if ms < 0 || ms > maxDelaySmoothingMs || math.IsNaN(float64(ms)) {
			return fmt.Errorf("looper delay smoothing must be in [0, %g] ms: %f", maxDelaySmoothingMs, ms)
		}
		cfg.DelaySmoothingMs = ms
		return nil
	}
}

// WithRebaseLoopPeriods sets how many loop lengths the playback position may
// drift from the loop start before it is folded back. It must be at least 1.
func WithRebaseLoopPeriods(periods float64) Option {
	return func(cfg *Config) error {
		if periods < 1 || math.IsNaN(periods) || math.IsInf(periods, 0) {
			return fmt.Errorf("looper rebase periods must be >= 1: %f", periods)
		}
		cfg.RebaseLoopPeriods = periods
		return nil
	}
}

// ApplyOptions applies opts to the default config.
func ApplyOptions(opts ...Option) (Config, error) {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}
