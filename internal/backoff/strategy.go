package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before a retry attempt. Implementations must be
// safe for concurrent use; all state lives in the arguments.
type Strategy interface {
	// Calculate returns the delay for the given zero-based attempt number.
	Calculate(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration
}

// FixedStrategy always returns the initial delay, ignoring the attempt
// number. Used when the remote service gives no retry hint and the caller
// prefers a flat backoff.
type FixedStrategy struct{}

func (FixedStrategy) Calculate(_ int, initial, max time.Duration, _, jitter float64) time.Duration {
	delay := initial
	if delay > max {
		delay = max
	}
	jitter = clampJitter(jitter)
	if jitter > 0 {
		amount := time.Duration(float64(delay) * jitter * rand.Float64())
		if delay+amount <= max {
			delay += amount
		}
	}
	return delay
}

// ExponentialJitterStrategy grows the delay by multiplier^attempt and adds
// uniform jitter, capped at max.
type ExponentialJitterStrategy struct{}

func (ExponentialJitterStrategy) Calculate(attempt int, initial, max time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the exponent so the float math cannot overflow into negatives.
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(initial) * pow(multiplier, attempt))
	if delay < 0 || delay > max {
		delay = max
	}

	jitter = clampJitter(jitter)
	if jitter > 0 {
		amount := time.Duration(float64(delay) * jitter * rand.Float64())
		if delay+amount > max {
			delay = max
		} else {
			delay += amount
		}
	}
	return delay
}

// DecorrelatedJitterStrategy implements decorrelated jitter as per the AWS
// architecture blog: random_between(base, min(cap, base * 3^attempt)).
// Smoother tail latencies than plain exponential jitter.
type DecorrelatedJitterStrategy struct{}

func (DecorrelatedJitterStrategy) Calculate(attempt int, initial, max time.Duration, _, _ float64) time.Duration {
	if attempt <= 0 {
		return initial
	}
	if attempt > 10 {
		attempt = 10
	}

	base := float64(initial)
	upper := base * pow(3.0, attempt)

	maxF := float64(max)
	if upper > maxF || upper < 0 {
		upper = maxF
	}
	if upper < base {
		upper = base
	}

	delay := time.Duration(base + rand.Float64()*(upper-base))
	if delay < 0 || delay > max {
		delay = max
	}
	return delay
}

func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
