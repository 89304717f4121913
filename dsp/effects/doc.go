// Package effects provides the degradation kernels used inside the looper
// feedback path.
//
// Subpackages:
//   - github.com/cwbudde/sixteen/dsp/effects/dynamics
//   - github.com/cwbudde/sixteen/dsp/effects/modulation
//
// FeedbackModel chains a one-pole lowpass, tanh saturation, a uniform
// quantizer, and noise injection. Build with the fastmath tag to derive its
// coefficients with approximated exponentials.
//
// All kernels run allocation-free and never return errors from the
// per-sample path.
package effects
