package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := Default()
	if c.MaxTTL != 7 {
		t.Fatalf("expected default MaxTTL 7, got %d", c.MaxTTL)
	}
	if c.ScanDutyCycle != DutyAdaptive {
		t.Fatalf("expected default duty cycle Adaptive")
	}
}

func TestOptionsApplyInOrder(t *testing.T) {
	c := New(
		WithMaxTTL(3),
		WithRoundTimeout(5*time.Second),
		WithDoSLimits(10, 20),
	)
	if c.MaxTTL != 3 {
		t.Fatalf("expected MaxTTL 3, got %d", c.MaxTTL)
	}
	if c.RoundTimeout != 5*time.Second {
		t.Fatalf("expected round timeout 5s, got %v", c.RoundTimeout)
	}
	if c.DoSRequestsPerSecond != 10 || c.DoSBurst != 20 {
		t.Fatalf("expected DoS limits 10/20, got %d/%d", c.DoSRequestsPerSecond, c.DoSBurst)
	}
}

func TestLaterOptionWins(t *testing.T) {
	c := New(WithMaxTTL(3), WithMaxTTL(5))
	if c.MaxTTL != 5 {
		t.Fatalf("expected last option to win, got %d", c.MaxTTL)
	}
}
