package state

import (
	"context"
	"sync"

	"github.com/signalsfoundry/dome-simulator/internal/logging"
	"github.com/signalsfoundry/dome-simulator/model"
	"github.com/signalsfoundry/dome-simulator/motion"
)

// azimuthMotorCount is the number of drive motors on the azimuth ring.
const azimuthMotorCount = 5

// AzimuthSystem is the status component for the Azimuth Motion Control
// System. It owns the azimuth axis engine, the ancillary equipment state
// (fans, inflatable seal), and the synthetic sensor channels, and assembles
// one immutable Snapshot per telemetry cycle.
//
// Command handlers and Status together form a single-writer/multiple-reader
// contract: the mutex serializes command mutation so a cycle's snapshot never
// mixes old and new target parameters.
type AzimuthSystem struct {
	mu sync.Mutex

	axis       motion.Axis
	limits     model.DriveLimits
	fans       model.OnOff
	seal       model.OnOff
	sensors    SensorModel
	commandTai float64

	log logging.Logger
}

// NewAzimuthSystem constructs the AMCS component around the given axis.
func NewAzimuthSystem(axis motion.Axis, limits model.DriveLimits, sensors SensorModel, log logging.Logger) *AzimuthSystem {
	if log == nil {
		log = logging.Noop()
	}
	if sensors == nil {
		sensors = DefaultRippleModel()
	}
	return &AzimuthSystem{
		axis:    axis,
		limits:  limits,
		fans:    model.Off,
		seal:    model.Off,
		sensors: sensors,
		log:     log,
	}
}

// MoveAz moves the dome to the given azimuth [rad] at maximum speed and
// crawls at velocity [rad/s] from there. It returns the transit duration.
func (s *AzimuthSystem) MoveAz(position, velocity, tai float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration, err := s.axis.SetTarget(tai, position, velocity, model.PhaseMoving)
	if err != nil {
		return 0, err
	}
	s.commandTai = tai
	s.log.Debug(context.Background(), "moveAz accepted",
		logging.Any("position", position),
		logging.Any("velocity", velocity),
		logging.Any("duration", duration),
	)
	return duration, nil
}

// CrawlAz crawls the dome indefinitely at velocity [rad/s].
func (s *AzimuthSystem) CrawlAz(velocity, tai float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration, err := s.axis.SetTarget(tai, 0, velocity, model.PhaseCrawling)
	if err != nil {
		return 0, err
	}
	s.commandTai = tai
	return duration, nil
}

// StopAz stops all azimuth motion instantaneously.
func (s *AzimuthSystem) StopAz(tai float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.axis.Stop(tai); err != nil {
		return err
	}
	s.commandTai = tai
	return nil
}

// Park drives the dome to azimuth 0 and returns the TAI time at which
// parking completes, so the caller can schedule a completion notification.
func (s *AzimuthSystem) Park(tai float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	endTai, err := s.axis.Park(tai)
	if err != nil {
		return 0, err
	}
	s.commandTai = tai
	return endTai, nil
}

// SetFans enables or disables the dome fans. This has no interaction with
// motion; the setting is only reflected in the status payload.
func (s *AzimuthSystem) SetFans(action model.OnOff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fans = action
}

// SetSeal inflates or deflates the inflatable seal.
func (s *AzimuthSystem) SetSeal(action model.OnOff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seal = action
}

// ApplyLimits overwrites the configurable drive limits at runtime.
func (s *AzimuthSystem) ApplyLimits(limits model.DriveLimits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = limits
	s.axis.SetMaxSpeed(limits.VMax)
}

// Limits returns the current drive limits.
func (s *AzimuthSystem) Limits() model.DriveLimits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits
}

// Status evaluates the axis at the given TAI time and assembles the AMCS
// snapshot. The returned snapshot is immutable; the next cycle supersedes it.
func (s *AzimuthSystem) Status(tai float64) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample, err := s.axis.Evaluate(tai)
	if err != nil {
		return nil, err
	}
	commandedPos, crawlVelocity := s.axis.Target()
	ch := s.sensors.Channels(tai-s.commandTai, azimuthMotorCount)

	return &Snapshot{
		Status:                sample.Phase.String(),
		Error:                 []string{"No Error"},
		Fans:                  s.fans.String(),
		Inflate:               s.seal.String(),
		PositionActual:        sample.Position,
		PositionCommanded:     motion.WrapNonnegative(commandedPos),
		VelocityActual:        sample.Velocity,
		VelocityCommanded:     crawlVelocity,
		DriveTorqueActual:     ch.TorqueActual,
		DriveTorqueCommanded:  ch.TorqueCommanded,
		DriveCurrentActual:    ch.CurrentActual,
		DriveTemperature:      ch.Temperature,
		EncoderHeadRaw:        ch.EncoderRaw,
		EncoderHeadCalibrated: ch.EncoderCalibrated,
		ResolverRaw:           ch.ResolverRaw,
		ResolverCalibrated:    ch.ResolverCalibrated,
		Timestamp:             tai,
	}, nil
}
