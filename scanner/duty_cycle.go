package scanner

import "time"

// Priority orders scan requests. Only Critical has an effect: it
// forces an immediate scan regardless of phase.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// phase is the scanner's current half of the duty cycle.
type phase int

const (
	phaseIdle phase = iota
	phaseActive
)

// Stats accumulates per-session discovery statistics.
type Stats struct {
	Scans       int
	Discoveries int
	Connections int
}

// Efficiency is connections/scans, 0 if no scans have run yet.
func (s Stats) Efficiency() float64 {
	if s.Scans == 0 {
		return 0
	}
	return float64(s.Connections) / float64(s.Scans)
}

// Scanner is the adaptive duty-cycle state machine: given a
// configured Strategy and a stream of Tick(now) calls, it reports
// whether the radio should be actively scanning right now.
type Scanner struct {
	strategy Strategy
	power    PowerSnapshot

	phase          phase
	nextTransition time.Time
	initialized    bool

	discoveriesThisWindow int
	recentRatios          []float64 // discoveries-per-scan history for the Adaptive feedback loop

	pendingCritical bool
	stats           Stats
}

// New creates a Scanner fixed to the given strategy. Use NewAdaptive
// to let the strategy track the device's power/thermal state.
func New(strategy Strategy) *Scanner {
	return &Scanner{strategy: strategy}
}

// NewAdaptive creates a Scanner that starts in the Adaptive strategy,
// the default per SPEC_FULL.md's configuration surface
// (ble_strategy [Adaptive]).
func NewAdaptive() *Scanner {
	return New(StrategyAdaptive)
}

// SetPower updates the device snapshot the scanner reacts to; it
// takes effect on the next window boundary, not mid-window.
func (s *Scanner) SetPower(p PowerSnapshot) {
	s.power = p
}

// RequestScan registers an out-of-cycle scan request. A Critical
// request preempts an idle window immediately; requests of lower
// priority are ignored.
func (s *Scanner) RequestScan(p Priority, now time.Time) {
	if p == PriorityCritical {
		s.pendingCritical = true
	}
}

// durations computes the active/idle window lengths for the
// scanner's current strategy (resolving Adaptive's parameters from
// discovery-rate feedback and the current power/thermal state).
func (s *Scanner) durations() (active, idle time.Duration) {
	strategy := s.strategy
	if strategy == StrategyAdaptive {
		return s.adaptiveDurations()
	}
	if d, idl, ok := fixedDurations(strategy); ok {
		return d, idl
	}
	return 0, 0 // Disabled
}

func (s *Scanner) adaptiveDurations() (active, idle time.Duration) {
	base := time.Second
	baseIdle := 4 * time.Second

	ratio := s.recentDiscoveryRatio()
	switch {
	case len(s.recentRatios) == 0:
		active = base
	case ratio >= 2.0:
		active = time.Duration(float64(base) * 1.5)
	case ratio <= 0.5:
		active = time.Duration(float64(base) * 0.7)
	default:
		active = base
	}

	factor := thermalFactor(s.power.Thermal) * powerFactor(s.power)
	idle = time.Duration(float64(baseIdle) * factor)
	return active, idle
}

// recentDiscoveryRatio averages the last few windows' discoveries per
// scan, or 0 with no history yet (first window always runs at base duration).
func (s *Scanner) recentDiscoveryRatio() float64 {
	if len(s.recentRatios) == 0 {
		return 0
	}
	var sum float64
	for _, r := range s.recentRatios {
		sum += r
	}
	return sum / float64(len(s.recentRatios))
}

// Tick advances the scanner to now and reports whether the radio
// should be actively scanning. Strategy == Disabled always reports
// false. A pending Critical request forces true immediately and
// starts a fresh active window.
func (s *Scanner) Tick(now time.Time) bool {
	if s.strategy == StrategyDisabled {
		return false
	}

	if s.pendingCritical {
		s.pendingCritical = false
		s.beginActive(now)
		return true
	}

	if !s.initialized {
		s.beginActive(now)
		return true
	}

	if now.Before(s.nextTransition) {
		return s.phase == phaseActive
	}

	switch s.phase {
	case phaseActive:
		s.endActiveWindow()
		s.beginIdle(now)
		return false
	default:
		s.beginActive(now)
		return true
	}
}

func (s *Scanner) beginActive(now time.Time) {
	active, _ := s.durations()
	s.phase = phaseActive
	s.nextTransition = now.Add(active)
	s.initialized = true
	s.discoveriesThisWindow = 0
	s.stats.Scans++
}

func (s *Scanner) beginIdle(now time.Time) {
	_, idle := s.durations()
	s.phase = phaseIdle
	s.nextTransition = now.Add(idle)
}

func (s *Scanner) endActiveWindow() {
	const historyWindow = 10
	s.recentRatios = append(s.recentRatios, float64(s.discoveriesThisWindow))
	if len(s.recentRatios) > historyWindow {
		s.recentRatios = s.recentRatios[len(s.recentRatios)-historyWindow:]
	}
}

// RecordDiscovery registers one peer discovery within the current
// active window, feeding the Adaptive strategy's rate feedback.
func (s *Scanner) RecordDiscovery() {
	s.discoveriesThisWindow++
	s.stats.Discoveries++
}

// RecordConnection registers one successful connection resulting from
// a discovery, used to compute Stats.Efficiency.
func (s *Scanner) RecordConnection() {
	s.stats.Connections++
}

// Strategy reports the scanner's configured strategy.
func (s *Scanner) Strategy() Strategy { return s.strategy }

// SetStrategy overrides the configured strategy, e.g. when the
// operator pins a mode rather than letting SelectStrategy choose one.
func (s *Scanner) SetStrategy(strategy Strategy) { s.strategy = strategy }

// ApplyAutoStrategy sets the scanner's strategy from the current power
// snapshot using SelectStrategy — the caller decides when (e.g. on
// every power state change) to re-evaluate.
func (s *Scanner) ApplyAutoStrategy() {
	s.strategy = SelectStrategy(s.power)
}

// Stats returns a copy of the accumulated session statistics.
func (s *Scanner) Stats() Stats { return s.stats }
