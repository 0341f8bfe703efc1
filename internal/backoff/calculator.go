package backoff

import "time"

// Calculator binds a Strategy to the delay bounds it should work within, so
// callers hold a single value instead of threading base/max everywhere.
type Calculator struct {
	strategy Strategy
	base     time.Duration
	max      time.Duration
}

// NewCalculator creates a calculator for the given strategy and bounds.
func NewCalculator(strategy Strategy, base, max time.Duration) *Calculator {
	return &Calculator{strategy: strategy, base: base, max: max}
}

// Delay computes the backoff duration for the given 1-based attempt number.
func (c *Calculator) Delay(attempt int) time.Duration {
	return c.strategy.Calculate(attempt, c.base, c.max)
}

// Strategy returns the strategy backing this calculator.
func (c *Calculator) Strategy() Strategy {
	return c.strategy
}
