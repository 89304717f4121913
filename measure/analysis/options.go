package analysis

import "fmt"

const (
	defaultFFTSize = 4096
	minFFTSize     = 64
	maxFFTSize     = 1 << 16
)

type config struct {
	fftSize int
}

// Option configures Analyze.
type Option func(*config) error

// WithFFTSize sets the frame length of the spectral centroid. It must be a
// power of two in [64, 65536].
func WithFFTSize(n int) Option {
	return func(cfg *config) error {
		if n < minFFTSize || n > maxFFTSize || n&(n-1) != 0 {
			return fmt.Errorf("analysis fft size must be a power of two in [%d, %d]: %d", minFFTSize, maxFFTSize, n)
		}
		cfg.fftSize = n
		return nil
	}
}

func applyOptions(opts []Option) (config, error) {
	cfg := config{fftSize: defaultFFTSize}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}

	return cfg, nil
}
