package motion

import (
	"fmt"

	"github.com/signalsfoundry/dome-simulator/model"
)

var _ Axis = (*LinearAxis)(nil)

// LinearAxis simulates a drive on a bounded linear range, such as the light
// and wind screen elevation. Targets outside [min, max] are rejected, and a
// crawl that reaches a range boundary holds there as stopped.
type LinearAxis struct {
	profile
	minPosition float64
	maxPosition float64
}

// NewLinearAxis constructs a bounded axis over [minPosition, maxPosition].
func NewLinearAxis(startPosition, minPosition, maxPosition, maxSpeed, startTai float64) *LinearAxis {
	a := &LinearAxis{
		profile:     newProfile(startPosition, maxSpeed, startTai),
		minPosition: minPosition,
		maxPosition: maxPosition,
	}
	// Replans start from the clamped position, so a crawl held at a range
	// boundary departs from the boundary rather than from the raw overrun.
	a.profile.normalize = func(raw float64) float64 {
		return clamp(raw, minPosition, maxPosition)
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetTarget implements Axis. In addition to the shared preconditions, the
// target position must lie within the axis range.
func (a *LinearAxis) SetTarget(issuedAt, endPosition, crawlVelocity float64, phase model.Phase) (float64, error) {
	if phase == model.PhaseMoving && (endPosition < a.minPosition || endPosition > a.maxPosition) {
		return 0, fmt.Errorf("%w: target position %v outside range [%v, %v]",
			ErrInvalidCommand, endPosition, a.minPosition, a.maxPosition)
	}
	return a.profile.setTarget(issuedAt, endPosition, crawlVelocity, phase)
}

// Stop implements Axis.
func (a *LinearAxis) Stop(issuedAt float64) error {
	return a.profile.stop(issuedAt)
}

// Park implements Axis. A bounded screen axis has no park position.
func (a *LinearAxis) Park(issuedAt float64) (float64, error) {
	return 0, fmt.Errorf("%w: axis does not support parking", ErrInvalidCommand)
}

// Evaluate implements Axis. A crawl past a range boundary reports the
// boundary position with the axis stopped.
func (a *LinearAxis) Evaluate(tai float64) (Sample, error) {
	raw, err := a.profile.evaluate(tai)
	if err != nil {
		return Sample{}, err
	}
	sample := Sample{Position: raw.rawPosition, Velocity: raw.velocity, Phase: raw.phase}
	if sample.Position < a.minPosition {
		sample = Sample{Position: a.minPosition, Velocity: 0, Phase: model.PhaseStopped}
	} else if sample.Position > a.maxPosition {
		sample = Sample{Position: a.maxPosition, Velocity: 0, Phase: model.PhaseStopped}
	}
	return sample, nil
}

// Target implements Axis.
func (a *LinearAxis) Target() (float64, float64) {
	return a.profile.target()
}

// SetMaxSpeed implements Axis.
func (a *LinearAxis) SetMaxSpeed(maxSpeed float64) {
	a.profile.setMaxSpeed(maxSpeed)
}
