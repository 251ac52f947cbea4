package state

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/dome-simulator/model"
	"github.com/signalsfoundry/dome-simulator/motion"
)

func newTestDome(t *testing.T) *DomeState {
	t.Helper()
	azLimits := model.DefaultAzimuthLimits()
	elLimits := model.DefaultElevationLimits()
	az := NewAzimuthSystem(
		motion.NewCircularAxis(0, azLimits.VMax, 0),
		azLimits,
		StaticModel{Temperature: 20},
		nil,
	)
	el := NewElevationSystem(
		motion.NewLinearAxis(0, 0, math.Pi/2, elLimits.VMax, 0),
		elLimits,
		StaticModel{Temperature: 20},
		nil,
	)
	return NewDomeState(az, el, nil)
}

func TestSampleProducesBothSubsystems(t *testing.T) {
	dome := newTestDome(t)

	snaps, err := dome.Sample(10)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if snaps.AMCS == nil || snaps.LWSCS == nil {
		t.Fatalf("expected both subsystem snapshots, got %+v", snaps)
	}
	if snaps.AMCS.Status != model.PhaseStopped.String() {
		t.Errorf("AMCS status = %q, want %q", snaps.AMCS.Status, model.PhaseStopped)
	}
	if snaps.AMCS.Timestamp != 10 {
		t.Errorf("AMCS timestamp = %v, want 10", snaps.AMCS.Timestamp)
	}
	if got := len(snaps.AMCS.DriveTemperature); got != azimuthMotorCount {
		t.Errorf("AMCS drive temperature channels = %d, want %d", got, azimuthMotorCount)
	}
	if got := len(snaps.LWSCS.DriveTemperature); got != elevationMotorCount {
		t.Errorf("LWSCS drive temperature channels = %d, want %d", got, elevationMotorCount)
	}
}

func TestSnapshotWireFieldNames(t *testing.T) {
	dome := newTestDome(t)
	dome.Azimuth().SetFans(model.On)
	dome.Azimuth().SetSeal(model.On)

	snaps, err := dome.Sample(5)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	raw, err := json.Marshal(snaps)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	amcs, ok := decoded["AMCS"]
	if !ok {
		t.Fatalf("missing AMCS key in %s", raw)
	}
	for _, key := range []string{
		"status", "error", "fans", "inflate",
		"positionActual", "positionCommanded",
		"velocityActual", "velocityCommanded",
		"driveTorqueActual", "driveTorqueCommanded",
		"driveCurrentActual", "driveTemperature",
		"encoderHeadRaw", "encoderHeadCalibrated",
		"resolverRaw", "resolverCalibrated",
		"timestamp",
	} {
		if _, ok := amcs[key]; !ok {
			t.Errorf("AMCS snapshot missing field %q", key)
		}
	}

	lwscs, ok := decoded["LWSCS"]
	if !ok {
		t.Fatalf("missing LWSCS key in %s", raw)
	}
	for _, absent := range []string{"fans", "inflate"} {
		if _, ok := lwscs[absent]; ok {
			t.Errorf("LWSCS snapshot must not carry field %q", absent)
		}
	}
}

func TestAzimuthMoveThenStatus(t *testing.T) {
	dome := newTestDome(t)
	az := dome.Azimuth()

	duration, err := az.MoveAz(math.Pi, 0.1, 0)
	if err != nil {
		t.Fatalf("MoveAz: %v", err)
	}
	wantDuration := math.Pi / model.DefaultAzimuthLimits().VMax
	if math.Abs(duration-wantDuration) > 1e-9 {
		t.Fatalf("duration = %v, want %v", duration, wantDuration)
	}

	mid, err := az.Status(wantDuration / 2)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if mid.Status != model.PhaseMoving.String() {
		t.Errorf("mid status = %q, want MOVING", mid.Status)
	}
	if math.Abs(mid.PositionActual-math.Pi/2) > 1e-9 {
		t.Errorf("mid position = %v, want %v", mid.PositionActual, math.Pi/2)
	}
	if math.Abs(mid.PositionCommanded-math.Pi) > 1e-9 {
		t.Errorf("commanded position = %v, want %v", mid.PositionCommanded, math.Pi)
	}
	if math.Abs(mid.VelocityCommanded-0.1) > 1e-12 {
		t.Errorf("commanded velocity = %v, want 0.1", mid.VelocityCommanded)
	}

	after, err := az.Status(wantDuration + 10)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if after.Status != model.PhaseCrawling.String() {
		t.Errorf("post-transit status = %q, want CRAWLING", after.Status)
	}
}

func TestElevationRejectionLeavesStatusUntouched(t *testing.T) {
	dome := newTestDome(t)
	el := dome.Elevation()

	before, err := el.Status(1)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if _, err := el.MoveEl(math.Pi, 1); !errors.Is(err, motion.ErrInvalidCommand) {
		t.Fatalf("MoveEl out of range: err = %v, want ErrInvalidCommand", err)
	}

	after, err := el.Status(1)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if before.PositionActual != after.PositionActual || before.Status != after.Status {
		t.Errorf("rejected command mutated status: before %+v after %+v", before, after)
	}
}

func TestSampleTimeTravelIsFatal(t *testing.T) {
	dome := newTestDome(t)
	if _, err := dome.Azimuth().MoveAz(1, 0, 100); err != nil {
		t.Fatalf("MoveAz: %v", err)
	}

	if _, err := dome.Sample(50); !errors.Is(err, motion.ErrTimeTravel) {
		t.Fatalf("Sample before command time: err = %v, want ErrTimeTravel", err)
	}
}

type captureRecorder struct {
	position, velocity float64
	calls              int
}

func (c *captureRecorder) RecordCycle(position, velocity float64) {
	c.position, c.velocity = position, velocity
	c.calls++
}

type capturePublisher struct {
	last  CycleSnapshots
	calls int
}

func (c *capturePublisher) PublishSnapshots(snaps CycleSnapshots) {
	c.last = snaps
	c.calls++
}

func TestOnCycleFansOut(t *testing.T) {
	azLimits := model.DefaultAzimuthLimits()
	elLimits := model.DefaultElevationLimits()
	az := NewAzimuthSystem(motion.NewCircularAxis(1.25, azLimits.VMax, 0), azLimits, StaticModel{}, nil)
	el := NewElevationSystem(motion.NewLinearAxis(0, 0, math.Pi/2, elLimits.VMax, 0), elLimits, StaticModel{}, nil)

	rec := &captureRecorder{}
	pub := &capturePublisher{}
	dome := NewDomeState(az, el, nil, WithMetricsRecorder(rec), WithPublisher(pub))

	dome.OnCycle(2)
	if rec.calls != 1 || pub.calls != 1 {
		t.Fatalf("recorder calls = %d, publisher calls = %d, want 1 and 1", rec.calls, pub.calls)
	}
	if math.Abs(rec.position-1.25) > 1e-9 {
		t.Errorf("recorded position = %v, want 1.25", rec.position)
	}
	if pub.last.AMCS == nil || pub.last.LWSCS == nil {
		t.Errorf("published snapshots incomplete: %+v", pub.last)
	}

	// A failing cycle must not reach the fan-out targets.
	if _, err := az.MoveAz(2, 0, 100); err != nil {
		t.Fatalf("MoveAz: %v", err)
	}
	dome.OnCycle(50)
	if rec.calls != 1 || pub.calls != 1 {
		t.Errorf("failed cycle leaked to recorder/publisher: %d/%d", rec.calls, pub.calls)
	}
}

func TestRippleSensorsAreDeterministic(t *testing.T) {
	m := DefaultRippleModel()
	a := m.Channels(12.5, azimuthMotorCount)
	b := m.Channels(12.5, azimuthMotorCount)
	for i := range a.TorqueActual {
		if a.TorqueActual[i] != b.TorqueActual[i] {
			t.Fatalf("sensor model not deterministic at motor %d", i)
		}
	}
	if len(a.TorqueActual) != azimuthMotorCount {
		t.Fatalf("channel width = %d, want %d", len(a.TorqueActual), azimuthMotorCount)
	}
}
