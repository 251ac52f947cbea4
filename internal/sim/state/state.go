// Package state holds the dome simulator's status aggregation: per-subsystem
// status components that sample the analytic motion engines once per
// telemetry cycle and assemble immutable snapshots for publication.
package state

import (
	"context"

	"github.com/signalsfoundry/dome-simulator/internal/logging"
)

// AxisMetricsRecorder receives the azimuth sample of every telemetry cycle,
// for Prometheus-friendly gauges.
type AxisMetricsRecorder interface {
	RecordCycle(position, velocity float64)
}

// SnapshotPublisher receives each cycle's assembled snapshots.
type SnapshotPublisher interface {
	PublishSnapshots(snaps CycleSnapshots)
}

// DomeState coordinates the subsystem status components. It holds references
// to the axis systems (which own their engine state) and owns the lifecycle
// of the snapshots it produces.
type DomeState struct {
	azimuth   *AzimuthSystem
	elevation *ElevationSystem

	log       logging.Logger
	metrics   AxisMetricsRecorder
	publisher SnapshotPublisher
}

// DomeStateOption customises DomeState construction.
type DomeStateOption func(*DomeState)

// WithMetricsRecorder attaches an optional per-cycle metrics recorder.
func WithMetricsRecorder(m AxisMetricsRecorder) DomeStateOption {
	return func(d *DomeState) {
		d.metrics = m
	}
}

// WithPublisher attaches an optional snapshot publisher.
func WithPublisher(p SnapshotPublisher) DomeStateOption {
	return func(d *DomeState) {
		d.publisher = p
	}
}

// NewDomeState wires the subsystem components together.
func NewDomeState(azimuth *AzimuthSystem, elevation *ElevationSystem, log logging.Logger, opts ...DomeStateOption) *DomeState {
	if log == nil {
		log = logging.Noop()
	}
	d := &DomeState{
		azimuth:   azimuth,
		elevation: elevation,
		log:       log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Azimuth returns the AMCS status component.
func (d *DomeState) Azimuth() *AzimuthSystem { return d.azimuth }

// Elevation returns the LWSCS status component.
func (d *DomeState) Elevation() *ElevationSystem { return d.elevation }

// Sample assembles the snapshots for one telemetry cycle. A time-travel
// failure from either axis is fatal to the cycle's snapshot and is returned
// unwrapped; it signals a clock bug upstream and is not retried here.
func (d *DomeState) Sample(tai float64) (CycleSnapshots, error) {
	amcs, err := d.azimuth.Status(tai)
	if err != nil {
		return CycleSnapshots{}, err
	}
	lwscs, err := d.elevation.Status(tai)
	if err != nil {
		return CycleSnapshots{}, err
	}
	return CycleSnapshots{AMCS: amcs, LWSCS: lwscs}, nil
}

// OnCycle is the telemetry cycle listener: it samples every subsystem and
// hands the snapshots to the configured publisher and metrics recorder.
func (d *DomeState) OnCycle(tai float64) {
	snaps, err := d.Sample(tai)
	if err != nil {
		d.log.Error(context.Background(), "telemetry cycle failed",
			logging.Any("tai", tai),
			logging.String("error", err.Error()),
		)
		return
	}

	if d.metrics != nil {
		d.metrics.RecordCycle(snaps.AMCS.PositionActual, snaps.AMCS.VelocityActual)
	}
	if d.publisher != nil {
		d.publisher.PublishSnapshots(snaps)
	}
}
