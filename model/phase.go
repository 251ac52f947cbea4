package model

import "fmt"

// Phase is the discrete motion mode of an axis. The commanded phase is set by
// command handlers; the reported phase is derived from it at query time.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseMoving
	PhaseCrawling
	PhaseParking
	PhaseParked
	PhaseStopping
)

var phaseNames = map[Phase]string{
	PhaseStopped:  "STOPPED",
	PhaseMoving:   "MOVING",
	PhaseCrawling: "CRAWLING",
	PhaseParking:  "PARKING",
	PhaseParked:   "PARKED",
	PhaseStopping: "STOPPING",
}

// String returns the wire name of the phase, matching the names the dome
// control protocol reports in status payloads.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Terminal reports whether the phase is a rest phase that persists until the
// axis is re-commanded.
func (p Phase) Terminal() bool {
	return p == PhaseStopped || p == PhaseParked
}
