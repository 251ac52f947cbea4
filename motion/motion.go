// Package motion implements the analytic motion-profile engine for the dome
// simulator. An axis owns the commanded motion parameters of one drive and
// answers point-in-time queries in closed form, driven purely by elapsed time
// since the last command. There is no stepwise integration anywhere: repeated
// queries at arbitrary times are exact and mutually consistent.
package motion

import (
	"fmt"
	"math"
	"sync"

	"github.com/signalsfoundry/dome-simulator/model"
)

// Sample is one point-in-time evaluation of an axis.
type Sample struct {
	// Position [rad], normalized into the axis's reporting range.
	Position float64
	// Velocity [rad/s] at the sampled time.
	Velocity float64
	// Phase is the motion phase derived for the sampled time.
	Phase model.Phase
}

// Axis is the contract every simulated drive axis satisfies. Command methods
// mutate the axis's engine state; Evaluate never does.
type Axis interface {
	// SetTarget replans the axis from its current position toward
	// endPosition at maximum speed, crawling at crawlVelocity once the
	// target is reached. phase selects PhaseMoving or PhaseCrawling; for a
	// crawl the transit leg has zero duration and endPosition is ignored.
	// Returns the duration [s] of the transit leg.
	SetTarget(issuedAt, endPosition, crawlVelocity float64, phase model.Phase) (float64, error)

	// Stop freezes the axis at its position as of issuedAt.
	Stop(issuedAt float64) error

	// Park drives the axis to its park position and reports the TAI time at
	// which parking completes.
	Park(issuedAt float64) (float64, error)

	// Evaluate computes position, velocity, and phase for the given TAI
	// time. It is a pure function of tai and the stored engine state.
	Evaluate(tai float64) (Sample, error)

	// Target reports the current commanded end position and crawl velocity.
	Target() (endPosition, crawlVelocity float64)

	// SetMaxSpeed overrides the maximum speed, as driven by the runtime
	// config command. It affects subsequently issued commands.
	SetMaxSpeed(maxSpeed float64)
}

// profile is the engine state shared by all axis kinds. Command handlers are
// the only mutators; Evaluate reads under the same lock, so a telemetry cycle
// never observes a half-updated replan.
//
// The axis kind installs two hooks at construction. normalize maps a raw
// evaluated position into the axis's coordinate space; every replan stores
// the normalized position as the new start, so a crawl that accumulated
// revolutions (or ran past a range boundary) cannot inflate the next transit.
// plan resolves a transit toward a target into its signed displacement and
// raw endpoint, which is where a circular axis takes the shortest path
// across the seam.
type profile struct {
	mu sync.RWMutex

	startPosition float64
	startTai      float64
	endPosition   float64
	endTai        float64
	crawlVelocity float64
	commanded     model.Phase
	maxSpeed      float64
	// transitSpeed is the speed the current transit leg was planned with.
	// A config-driven maxSpeed change affects later commands only.
	transitSpeed float64

	normalize func(raw float64) float64
	plan      func(start, target float64) (delta, end float64)
}

func newProfile(startPosition, maxSpeed, startTai float64) profile {
	return profile{
		startPosition: startPosition,
		startTai:      startTai,
		endPosition:   startPosition,
		endTai:        startTai,
		crawlVelocity: 0,
		commanded:     model.PhaseStopped,
		maxSpeed:      maxSpeed,
		transitSpeed:  maxSpeed,
		normalize:     func(raw float64) float64 { return raw },
		plan: func(start, target float64) (float64, float64) {
			return target - start, target
		},
	}
}

// setTarget validates and applies a move or crawl command. Validation happens
// before any mutation so a rejected command leaves the engine untouched.
func (p *profile) setTarget(issuedAt, endPosition, crawlVelocity float64, phase model.Phase) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if phase != model.PhaseMoving && phase != model.PhaseCrawling {
		return 0, fmt.Errorf("%w: requested phase must be MOVING or CRAWLING, got %s", ErrInvalidCommand, phase)
	}
	if math.Abs(crawlVelocity) > p.maxSpeed {
		return 0, fmt.Errorf("%w: crawl velocity %v exceeds max speed %v", ErrInvalidCommand, math.Abs(crawlVelocity), p.maxSpeed)
	}

	current, err := p.evaluateLocked(issuedAt)
	if err != nil {
		return 0, err
	}

	p.startPosition = p.normalize(current.rawPosition)
	p.startTai = issuedAt
	p.crawlVelocity = crawlVelocity
	p.commanded = phase
	p.transitSpeed = p.maxSpeed

	var duration float64
	if phase == model.PhaseCrawling {
		// A crawl starts immediately: no transit leg, and the crawl base is
		// the position at command issuance.
		p.endPosition = p.startPosition
		duration = 0
	} else {
		delta, end := p.plan(p.startPosition, endPosition)
		p.endPosition = end
		duration = math.Abs(delta) / p.maxSpeed
	}
	p.endTai = p.startTai + duration
	return duration, nil
}

// stop freezes the axis at its position as of issuedAt. Stopping resolves to
// STOPPED for any query at or after issuedAt, so re-issuing a stop while
// already stopped just re-freezes the same position.
func (p *profile) stop(issuedAt float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.evaluateLocked(issuedAt)
	if err != nil {
		return err
	}

	frozen := p.normalize(current.rawPosition)
	p.startPosition = frozen
	p.endPosition = frozen
	p.startTai = issuedAt
	p.endTai = issuedAt
	p.crawlVelocity = 0
	p.commanded = model.PhaseStopping
	return nil
}

// park replans toward parkPosition with zero crawl velocity and returns the
// TAI time at which parking completes.
func (p *profile) park(issuedAt, parkPosition float64) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.evaluateLocked(issuedAt)
	if err != nil {
		return 0, err
	}

	p.startPosition = p.normalize(current.rawPosition)
	p.startTai = issuedAt
	delta, end := p.plan(p.startPosition, parkPosition)
	p.endPosition = end
	p.crawlVelocity = 0
	p.commanded = model.PhaseParking
	p.transitSpeed = p.maxSpeed
	p.endTai = issuedAt + math.Abs(delta)/p.maxSpeed
	return p.endTai, nil
}

func (p *profile) target() (float64, float64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.endPosition, p.crawlVelocity
}

func (p *profile) setMaxSpeed(maxSpeed float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxSpeed = maxSpeed
}

// rawSample is an evaluation before the axis-specific range normalization.
type rawSample struct {
	rawPosition float64
	velocity    float64
	phase       model.Phase
}

func (p *profile) evaluate(tai float64) (rawSample, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.evaluateLocked(tai)
}

// evaluateLocked is the closed-form profile calculation. Callers hold p.mu.
func (p *profile) evaluateLocked(tai float64) (rawSample, error) {
	if tai < p.startTai {
		return rawSample{}, fmt.Errorf("%w: tai %v < start tai %v", ErrTimeTravel, tai, p.startTai)
	}

	if tai < p.endTai {
		// Transit leg: constant velocity toward the end position.
		frac := (tai - p.startTai) / (p.endTai - p.startTai)
		raw := p.startPosition + (p.endPosition-p.startPosition)*frac
		velocity := p.transitSpeed
		if p.endPosition < p.startPosition {
			velocity = -p.transitSpeed
		}
		switch p.commanded {
		case model.PhaseParking:
			return rawSample{rawPosition: raw, velocity: velocity, phase: model.PhaseParking}, nil
		case model.PhaseStopping:
			return rawSample{rawPosition: raw, velocity: 0, phase: model.PhaseStopped}, nil
		case model.PhaseMoving:
			return rawSample{rawPosition: raw, velocity: velocity, phase: model.PhaseMoving}, nil
		default:
			return rawSample{}, fmt.Errorf("%w: commanded %s during transit leg", ErrUnreachablePhase, p.commanded)
		}
	}

	// Transit leg complete.
	switch p.commanded {
	case model.PhaseParking, model.PhaseParked:
		return rawSample{rawPosition: p.endPosition, velocity: 0, phase: model.PhaseParked}, nil
	case model.PhaseStopping, model.PhaseStopped:
		return rawSample{rawPosition: p.endPosition, velocity: 0, phase: model.PhaseStopped}, nil
	case model.PhaseMoving, model.PhaseCrawling:
		base := p.endPosition
		if p.commanded == model.PhaseCrawling {
			base = p.startPosition
		}
		raw := base + p.crawlVelocity*(tai-p.endTai)
		if p.crawlVelocity == 0 {
			// A crawl with zero velocity degenerates to stopped.
			return rawSample{rawPosition: raw, velocity: 0, phase: model.PhaseStopped}, nil
		}
		return rawSample{rawPosition: raw, velocity: p.crawlVelocity, phase: model.PhaseCrawling}, nil
	default:
		return rawSample{}, fmt.Errorf("%w: commanded %s after transit leg", ErrUnreachablePhase, p.commanded)
	}
}
