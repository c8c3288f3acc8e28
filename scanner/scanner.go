package scanner

import "time"

// Strategy names one of the six duty-cycle strategies of
// SPEC_FULL.md §4.9.
type Strategy int

const (
	StrategyContinuous Strategy = iota
	StrategyStandard
	StrategyPowerSaver
	StrategyCritical
	StrategyAdaptive
	StrategyDisabled
)

func (s Strategy) String() string {
	switch s {
	case StrategyContinuous:
		return "Continuous"
	case StrategyStandard:
		return "Standard"
	case StrategyPowerSaver:
		return "PowerSaver"
	case StrategyCritical:
		return "Critical"
	case StrategyAdaptive:
		return "Adaptive"
	case StrategyDisabled:
		return "Disabled"
	default:
		return "Unknown"
	}
}

// ThermalState is the device's thermal condition, widening from
// Normal to Critical.
type ThermalState int

const (
	ThermalNormal ThermalState = iota
	ThermalWarm
	ThermalHot
	ThermalCritical
)

// criticalBatteryPercent is the non-charging battery level below
// which the scanner is fully disabled rather than merely slowed, per
// the "Disabled ... battery critical non-charging" row of
// SPEC_FULL.md's duty-cycle table. The table leaves the exact
// threshold unspecified; 5% is the value used here, distinct from the
// named 15%/30% thresholds for Critical/PowerSaver.
const criticalBatteryPercent = 5

// PowerSnapshot is the device state the scanner reacts to.
type PowerSnapshot struct {
	Charging       bool
	BatteryPercent int
	Thermal        ThermalState
	// AppActive reports whether the host application is in active
	// foreground use (as opposed to idling in the background); it
	// distinguishes the Standard strategy's "active" precondition
	// from the Adaptive default.
	AppActive bool
	Debug     bool
}

// SelectStrategy picks the duty-cycle strategy the table of
// SPEC_FULL.md §4.9 prescribes for the given power/thermal snapshot,
// most severe condition first: disabled overrides everything, then an
// explicit always-on mode, then the two battery/thermal tiers, then
// standard foreground use, defaulting to Adaptive.
func SelectStrategy(p PowerSnapshot) Strategy {
	switch {
	case !p.Charging && p.BatteryPercent < criticalBatteryPercent:
		return StrategyDisabled
	case p.Charging || p.Debug:
		return StrategyContinuous
	case p.BatteryPercent < 15 || p.Thermal == ThermalHot || p.Thermal == ThermalCritical:
		return StrategyCritical
	case p.BatteryPercent < 30 || p.Thermal == ThermalWarm:
		return StrategyPowerSaver
	case p.AppActive && p.Thermal == ThermalNormal:
		return StrategyStandard
	default:
		return StrategyAdaptive
	}
}

// fixedDurations returns the table-driven active/idle windows for
// every strategy except Adaptive (computed separately) and Disabled
// (no scanning at all).
func fixedDurations(s Strategy) (active, idle time.Duration, ok bool) {
	switch s {
	case StrategyContinuous:
		return 10 * time.Second, 100 * time.Millisecond, true
	case StrategyStandard:
		return time.Second, 4 * time.Second, true
	case StrategyPowerSaver:
		return 500 * time.Millisecond, 8 * time.Second, true
	case StrategyCritical:
		return 250 * time.Millisecond, 16 * time.Second, true
	default:
		return 0, 0, false
	}
}

// thermalFactor multiplies the adaptive idle window per
// SPEC_FULL.md's thermal ∈ {1.0, 1.5, 2.0, 4.0} scale.
func thermalFactor(t ThermalState) float64 {
	switch t {
	case ThermalNormal:
		return 1.0
	case ThermalWarm:
		return 1.5
	case ThermalHot:
		return 2.0
	case ThermalCritical:
		return 4.0
	default:
		return 1.0
	}
}

// powerFactor multiplies the adaptive idle window per SPEC_FULL.md's
// power ∈ {0.8, 1.0, 2.0, 3.0, 5.0} scale, banded by charging state
// and battery percent.
func powerFactor(p PowerSnapshot) float64 {
	switch {
	case p.Charging:
		return 0.8
	case p.BatteryPercent >= 50:
		return 1.0
	case p.BatteryPercent >= 30:
		return 2.0
	case p.BatteryPercent >= 15:
		return 3.0
	default:
		return 5.0
	}
}
