package state

import (
	"sync"

	"github.com/signalsfoundry/dome-simulator/internal/logging"
	"github.com/signalsfoundry/dome-simulator/model"
	"github.com/signalsfoundry/dome-simulator/motion"
)

// elevationMotorCount is the number of drive motors on the light/wind screen.
const elevationMotorCount = 2

// ElevationSystem is the status component for the Light and Wind Screen
// Control System: the bounded elevation axis plus its synthetic sensors.
type ElevationSystem struct {
	mu sync.Mutex

	axis       motion.Axis
	limits     model.DriveLimits
	sensors    SensorModel
	commandTai float64

	log logging.Logger
}

// NewElevationSystem constructs the LWSCS component around the given axis.
func NewElevationSystem(axis motion.Axis, limits model.DriveLimits, sensors SensorModel, log logging.Logger) *ElevationSystem {
	if log == nil {
		log = logging.Noop()
	}
	if sensors == nil {
		sensors = DefaultRippleModel()
	}
	return &ElevationSystem{
		axis:    axis,
		limits:  limits,
		sensors: sensors,
		log:     log,
	}
}

// MoveEl moves the screen to the given elevation [rad].
func (s *ElevationSystem) MoveEl(position, tai float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration, err := s.axis.SetTarget(tai, position, 0, model.PhaseMoving)
	if err != nil {
		return 0, err
	}
	s.commandTai = tai
	return duration, nil
}

// CrawlEl crawls the screen at velocity [rad/s] until it reaches a range
// boundary or is re-commanded.
func (s *ElevationSystem) CrawlEl(velocity, tai float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration, err := s.axis.SetTarget(tai, 0, velocity, model.PhaseCrawling)
	if err != nil {
		return 0, err
	}
	s.commandTai = tai
	return duration, nil
}

// StopEl stops all screen motion instantaneously.
func (s *ElevationSystem) StopEl(tai float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.axis.Stop(tai); err != nil {
		return err
	}
	s.commandTai = tai
	return nil
}

// ApplyLimits overwrites the configurable drive limits at runtime.
func (s *ElevationSystem) ApplyLimits(limits model.DriveLimits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = limits
	s.axis.SetMaxSpeed(limits.VMax)
}

// Limits returns the current drive limits.
func (s *ElevationSystem) Limits() model.DriveLimits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits
}

// Status evaluates the axis at the given TAI time and assembles the LWSCS
// snapshot.
func (s *ElevationSystem) Status(tai float64) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample, err := s.axis.Evaluate(tai)
	if err != nil {
		return nil, err
	}
	commandedPos, crawlVelocity := s.axis.Target()
	ch := s.sensors.Channels(tai-s.commandTai, elevationMotorCount)

	return &Snapshot{
		Status:                sample.Phase.String(),
		PositionActual:        sample.Position,
		PositionCommanded:     commandedPos,
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
