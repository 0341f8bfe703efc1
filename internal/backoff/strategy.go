package backoff

import (
	"math/rand"
	"time"
)

// Strategy defines the interface for backoff calculation algorithms.
// Attempt numbers are 1-based: attempt 1 is the first failed attempt.
type Strategy interface {
	Calculate(attempt int, base, max time.Duration) time.Duration
}

// Exponential implements deterministic exponential growth:
// min(base * 2^(attempt-1), max). Calculate(1) always returns base exactly.
type Exponential struct{}

// Calculate implements the Strategy interface.
func (Exponential) Calculate(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Prevent overflow by limiting the exponent.
	if attempt > 32 {
		attempt = 32
	}

	d := time.Duration(float64(base) * Pow(2.0, attempt-1))
	if d < 0 || d > max {
		d = max
	}
	return d
}

// ExponentialJitter grows like Exponential and then adds a uniformly random
// fraction of the computed delay, capped at max. Fraction is clamped to [0,1].
type ExponentialJitter struct {
	Fraction float64
}

// Calculate implements the Strategy interface.
func (s ExponentialJitter) Calculate(attempt int, base, max time.Duration) time.Duration {
	d := Exponential{}.Calculate(attempt, base, max)

	fraction := s.Fraction
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction > 0 {
		jitter := time.Duration(float64(d) * fraction * rand.Float64())
		if d+jitter > max {
			d = max
		} else {
			d += jitter
		}
	}
	return d
}

// Constant ignores the attempt number and always returns base, capped at max.
// It backs the "backoff disabled" flat-delay mode.
type Constant struct{}

// Calculate implements the Strategy interface.
func (Constant) Calculate(_ int, base, max time.Duration) time.Duration {
	if base > max {
		return max
	}
	return base
}

// Pow calculates b^e using integer exponentiation.
func Pow(b float64, e int) float64 {
	result := 1.0
	for i := 0; i < e; i++ {
		result *= b
	}
	return result
}
