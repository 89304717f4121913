package meter

import "github.com/cwbudde/sixteen/dsp/core"

const (
	defaultDecay       = 0.90
	defaultHoldSeconds = 0.5
)

// MeterConfig defines configuration for the peak meter.
type MeterConfig struct {
	core.ProcessorConfig

	// Decay multiplies the held peak once per block.
	Decay float32
	// HoldSeconds keeps the clip flag lit after the last over.
	HoldSeconds float64
}

// MeterOption mutates a MeterConfig.
type MeterOption func(*MeterConfig)

// DefaultMeterConfig returns 48 kHz, 0.90 decay per block and a 0.5 s clip hold.
func DefaultMeterConfig() MeterConfig {
	return MeterConfig{
		ProcessorConfig: core.DefaultProcessorConfig(),
		Decay:           defaultDecay,
		HoldSeconds:     defaultHoldSeconds,
	}
}

// WithSampleRate sets the sample rate used to convert the clip hold to samples.
func WithSampleRate(sampleRate float64) MeterOption {
	return func(cfg *MeterConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithDecay sets the per-block peak decay factor. Values outside [0, 1) are ignored.
func WithDecay(decay float32) MeterOption {
	return func(cfg *MeterConfig) {
		if decay >= 0 && decay < 1 {
			cfg.Decay = decay
		}
	}
}

// WithClipHold sets how long the clip flag stays lit. Negative values are ignored.
func WithClipHold(seconds float64) MeterOption {
	return func(cfg *MeterConfig) {
		if seconds >= 0 {
			cfg.HoldSeconds = seconds
		}
	}
}

// ApplyMeterOptions applies zero or more options to the default config.
func ApplyMeterOptions(opts ...MeterOption) MeterConfig {
	cfg := DefaultMeterConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
