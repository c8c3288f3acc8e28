// Package config builds an immutable node configuration using
// functional options, the same idiom as network.WithTimeout and
// discovery.WithPortRange.
package config

import "time"

// Config holds every tunable of a running bitcrapsd node. A new
// Config only takes effect for games created after it; hot-reload of
// a running game's config is explicitly out of scope.
type Config struct {
	RoundTimeout        time.Duration
	DedupCacheSize       int
	DedupTTL             time.Duration
	MaxTTL               uint8
	ScanDutyCycle        DutyCycle
	MaxFutureClockSkew   time.Duration
	MaxPastClockSkew     time.Duration
	MinOperationInterval time.Duration
	ReputationHalfLife   time.Duration
	BanVoteFraction      float64 // e.g. 2.0/3.0
	DoSRequestsPerSecond int
	DoSBurst             int
	AlertDedupWindow     time.Duration
}

// DutyCycle names one of the scanner's adaptive duty-cycle strategies.
type DutyCycle int

const (
	DutyContinuous DutyCycle = iota
	DutyStandard
	DutyPowerSaver
	DutyCritical
	DutyAdaptive
	DutyDisabled
)

// Default returns the baseline configuration used when no options
// override it.
func Default() Config {
	return Config{
		RoundTimeout:         10 * time.Second,
		DedupCacheSize:       4096,
		DedupTTL:             2 * time.Minute,
		MaxTTL:               7,
		ScanDutyCycle:        DutyAdaptive,
		MaxFutureClockSkew:   30 * time.Second,
		MaxPastClockSkew:     5 * time.Minute,
		MinOperationInterval: 100 * time.Millisecond,
		ReputationHalfLife:   7 * 24 * time.Hour,
		BanVoteFraction:      2.0 / 3.0,
		DoSRequestsPerSecond: 50,
		DoSBurst:             100,
		AlertDedupWindow:     time.Minute,
	}
}

// Option mutates a Config, matching network.peerOption's
// func(Peer) Peer shape.
type Option func(Config) Config

// New builds a Config from Default() with opts applied in order.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}

func WithRoundTimeout(d time.Duration) Option {
	return func(c Config) Config {
		c.RoundTimeout = d
		return c
	}
}

func WithDedupCache(size int, ttl time.Duration) Option {
	return func(c Config) Config {
		c.DedupCacheSize = size
		c.DedupTTL = ttl
		return c
	}
}

func WithMaxTTL(ttl uint8) Option {
	return func(c Config) Config {
		c.MaxTTL = ttl
		return c
	}
}

func WithScanDutyCycle(d DutyCycle) Option {
	return func(c Config) Config {
		c.ScanDutyCycle = d
		return c
	}
}

func WithClockSkewBounds(future, past time.Duration) Option {
	return func(c Config) Config {
		c.MaxFutureClockSkew = future
		c.MaxPastClockSkew = past
		return c
	}
}

func WithReputationHalfLife(d time.Duration) Option {
	return func(c Config) Config {
		c.ReputationHalfLife = d
		return c
	}
}

func WithBanVoteFraction(f float64) Option {
	return func(c Config) Config {
		c.BanVoteFraction = f
		return c
	}
}

func WithDoSLimits(requestsPerSecond, burst int) Option {
	return func(c Config) Config {
		c.DoSRequestsPerSecond = requestsPerSecond
		c.DoSBurst = burst
		return c
	}
}

func WithAlertDedupWindow(d time.Duration) Option {
	return func(c Config) Config {
		c.AlertDedupWindow = d
		return c
	}
}
