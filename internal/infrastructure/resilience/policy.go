package resilience

import "time"

// Config controls how a single outbound call is guarded. Calls are attempted
// exactly once; there is no retry budget.
type Config struct {
	CallTimeout time.Duration

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32

	// RateLimitRPS throttles outbound calls client side. Zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

func DefaultConfig() Config {
	return Config{
		CallTimeout: 30 * time.Second,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.CallTimeout <= 0 {
		out.CallTimeout = def.CallTimeout
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	if out.RateLimitRPS < 0 {
		out.RateLimitRPS = 0
	}
	if out.RateLimitRPS > 0 && out.RateLimitBurst <= 0 {
		out.RateLimitBurst = 1
	}

	return out
}
