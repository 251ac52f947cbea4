package motion

import (
	"math"

	"github.com/signalsfoundry/dome-simulator/model"
)

var _ Axis = (*CircularAxis)(nil)

// CircularAxis simulates a drive on the 0/2π circular coordinate space, such
// as the dome azimuth rotation. It can move to a target at maximum speed and
// crawl from there at the commanded velocity, or crawl indefinitely; the
// reported position wraps at the 0/2π seam while the underlying calculation
// stays continuous.
type CircularAxis struct {
	profile
	parkPosition float64
}

// NewCircularAxis constructs an azimuth-style axis at the given start
// position [rad] with the given maximum speed [rad/s]. startTai tells the
// axis what the TAI time currently is.
func NewCircularAxis(startPosition, maxSpeed, startTai float64) *CircularAxis {
	a := &CircularAxis{
		profile:      newProfile(WrapNonnegative(startPosition), maxSpeed, startTai),
		parkPosition: 0,
	}
	// Replans start from the wrapped position and take the short way around,
	// so a long crawl's accumulated revolutions never enter a transit plan.
	a.profile.normalize = WrapNonnegative
	a.profile.plan = planShortestArc
	return a
}

// planShortestArc resolves a circular transit: the displacement takes the
// short way around, and the raw endpoint is pinned to the target plus whole
// revolutions so the terminal position wraps back to the target exactly.
func planShortestArc(start, target float64) (float64, float64) {
	delta := ShortestArc(start, target)
	revolutions := math.Round((start + delta - target) / twoPi)
	return delta, target + twoPi*revolutions
}

// SetTarget implements Axis.
func (a *CircularAxis) SetTarget(issuedAt, endPosition, crawlVelocity float64, phase model.Phase) (float64, error) {
	return a.profile.setTarget(issuedAt, endPosition, crawlVelocity, phase)
}

// Stop implements Axis.
func (a *CircularAxis) Stop(issuedAt float64) error {
	return a.profile.stop(issuedAt)
}

// Park implements Axis. The azimuth park position is 0 rad.
func (a *CircularAxis) Park(issuedAt float64) (float64, error) {
	return a.profile.park(issuedAt, a.parkPosition)
}

// Evaluate implements Axis. The raw closed-form position is wrapped into
// [0, 2π) only here, at the reporting boundary.
func (a *CircularAxis) Evaluate(tai float64) (Sample, error) {
	raw, err := a.profile.evaluate(tai)
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Position: WrapNonnegative(raw.rawPosition),
		Velocity: raw.velocity,
		Phase:    raw.phase,
	}, nil
}

// Target implements Axis.
func (a *CircularAxis) Target() (float64, float64) {
	return a.profile.target()
}

// SetMaxSpeed implements Axis.
func (a *CircularAxis) SetMaxSpeed(maxSpeed float64) {
	a.profile.setMaxSpeed(maxSpeed)
}
