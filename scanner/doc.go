// Package scanner implements the adaptive BLE scan duty cycler:
// discovery without continuous radio-on, adjusting active/idle scan
// windows to the device's power and thermal state.
//
// discovery.Discover's timer-driven search() loop is the starting
// shape, but per SPEC_FULL.md §9's "reimplement coroutines as
// explicit state machines" guidance it is turned into an explicit
// Scanner.Tick(now) method with no background goroutine driving it:
// the caller (the cmd demo, or a test) decides when time advances and polls
// Tick for whether a scan window should be open.
package scanner
