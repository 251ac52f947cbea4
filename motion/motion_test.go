package motion

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/dome-simulator/model"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func mustEvaluate(t *testing.T, a Axis, tai float64) Sample {
	t.Helper()
	s, err := a.Evaluate(tai)
	if err != nil {
		t.Fatalf("Evaluate(%v) failed: %v", tai, err)
	}
	return s
}

func TestCircularAxis_MoveThenCrawl(t *testing.T) {
	// max speed 1 rad/s, start at 0: a move to π takes π seconds, then the
	// axis crawls at 0.1 rad/s.
	axis := NewCircularAxis(0, 1.0, 0)

	duration, err := axis.SetTarget(0, math.Pi, 0.1, model.PhaseMoving)
	if err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}
	if !near(duration, math.Pi) {
		t.Fatalf("duration = %v, want π", duration)
	}

	mid := mustEvaluate(t, axis, math.Pi/2)
	if mid.Phase != model.PhaseMoving || !near(mid.Velocity, 1.0) || !near(mid.Position, math.Pi/2) {
		t.Errorf("mid-transit sample = %+v, want MOVING v=1.0 pos≈π/2", mid)
	}

	arrival := mustEvaluate(t, axis, math.Pi)
	if arrival.Phase != model.PhaseCrawling || !near(arrival.Velocity, 0.1) || !near(arrival.Position, math.Pi) {
		t.Errorf("arrival sample = %+v, want CRAWLING v=0.1 pos≈π", arrival)
	}

	later := mustEvaluate(t, axis, math.Pi+10)
	if later.Phase != model.PhaseCrawling || !near(later.Position, math.Pi+1.0) {
		t.Errorf("crawl sample = %+v, want pos≈π+1.0", later)
	}
}

func TestCircularAxis_NegativeCrawlWrapsBelowZero(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 0)

	if _, err := axis.SetTarget(0, 0, -0.2, model.PhaseCrawling); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}

	// The reported position decreases monotonically modulo the wrap: right
	// after crossing 0 it comes back just under 2π.
	one := mustEvaluate(t, axis, 1)
	if !near(one.Position, 2*math.Pi-0.2) {
		t.Errorf("position after 1s = %v, want 2π-0.2", one.Position)
	}
	ten := mustEvaluate(t, axis, 10)
	if !near(ten.Position, 2*math.Pi-2.0) {
		t.Errorf("position after 10s = %v, want 2π-2.0", ten.Position)
	}
	if one.Phase != model.PhaseCrawling || ten.Phase != model.PhaseCrawling {
		t.Errorf("phases = %v, %v, want CRAWLING", one.Phase, ten.Phase)
	}
}

func TestCircularAxis_CrawlDisplacementIsExact(t *testing.T) {
	axis := NewCircularAxis(1.0, 1.0, 0)
	if _, err := axis.SetTarget(0, 0, 0.3, model.PhaseCrawling); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}

	s1 := mustEvaluate(t, axis, 1)
	s2 := mustEvaluate(t, axis, 2)
	if math.Abs((s2.Position-s1.Position)-0.3) > 1e-12 {
		t.Errorf("displacement = %v, want 0.3*(t2-t1)", s2.Position-s1.Position)
	}
}

func TestCircularAxis_EvaluateIsIdempotent(t *testing.T) {
	axis := NewCircularAxis(0.5, 1.0, 0)
	if _, err := axis.SetTarget(0, 2.5, 0.05, model.PhaseMoving); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}

	first := mustEvaluate(t, axis, 1.25)
	second := mustEvaluate(t, axis, 1.25)
	if first != second {
		t.Errorf("repeated evaluation differs: %+v vs %+v", first, second)
	}
}

func TestCircularAxis_ContinuityAtCommandIssuance(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 0)
	if _, err := axis.SetTarget(0, 3.0, 0, model.PhaseMoving); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}

	before := mustEvaluate(t, axis, 1.5)

	// Re-commanding mid-move replans from the evaluated position, not the
	// stale start, so the reported position is continuous at issuance.
	if _, err := axis.SetTarget(1.5, 0.25, 0, model.PhaseMoving); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}
	after := mustEvaluate(t, axis, 1.5)
	if !near(before.Position, after.Position) {
		t.Errorf("position jumped at re-command: %v -> %v", before.Position, after.Position)
	}
}

func TestCircularAxis_TimeTravelRejected(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 10)
	if _, err := axis.Evaluate(9.5); !errors.Is(err, ErrTimeTravel) {
		t.Fatalf("Evaluate before start tai: err = %v, want ErrTimeTravel", err)
	}
}

func TestCircularAxis_InvalidCommandLeavesStateUntouched(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 0)
	if _, err := axis.SetTarget(0, 2.0, 0.1, model.PhaseMoving); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}
	before := mustEvaluate(t, axis, 1.0)

	if _, err := axis.SetTarget(1.0, 4.0, 1.5, model.PhaseMoving); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("over-limit crawl velocity: err = %v, want ErrInvalidCommand", err)
	}
	if _, err := axis.SetTarget(1.0, 4.0, 0.1, model.PhaseParking); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("bad requested phase: err = %v, want ErrInvalidCommand", err)
	}

	after := mustEvaluate(t, axis, 1.0)
	if before != after {
		t.Errorf("failed command mutated state: %+v vs %+v", before, after)
	}
}

func TestCircularAxis_StopFreezes(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 0)
	if _, err := axis.SetTarget(0, 3.0, 0.1, model.PhaseMoving); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}

	if err := axis.Stop(1.0); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	at := mustEvaluate(t, axis, 1.0)
	if at.Phase != model.PhaseStopped || at.Velocity != 0 || !near(at.Position, 1.0) {
		t.Errorf("sample at stop time = %+v, want STOPPED v=0 pos≈1.0", at)
	}
	for _, tai := range []float64{2, 50, 1e6} {
		s := mustEvaluate(t, axis, tai)
		if s != at {
			t.Errorf("sample at %v = %+v, want frozen %+v", tai, s, at)
		}
	}

	// Re-issuing stop while already stopped re-freezes the same position.
	if err := axis.Stop(5.0); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	s := mustEvaluate(t, axis, 6.0)
	if s.Phase != model.PhaseStopped || !near(s.Position, 1.0) {
		t.Errorf("sample after repeated stop = %+v, want STOPPED pos≈1.0", s)
	}
}

func TestCircularAxis_ParkMidMove(t *testing.T) {
	// Start at 1.0 rad, max speed 0.5 rad/s, already stopped. Parking at
	// t=5 replans from the evaluated position: duration 2s, done at t=7.
	axis := NewCircularAxis(1.0, 0.5, 0)

	endTai, err := axis.Park(5)
	if err != nil {
		t.Fatalf("Park failed: %v", err)
	}
	if !near(endTai, 7.0) {
		t.Fatalf("park end tai = %v, want 7.0", endTai)
	}

	mid := mustEvaluate(t, axis, 6.0)
	if mid.Phase != model.PhaseParking || !near(mid.Velocity, -0.5) {
		t.Errorf("mid-park sample = %+v, want PARKING v=-0.5", mid)
	}

	done := mustEvaluate(t, axis, endTai)
	if done.Phase != model.PhaseParked || done.Position != 0 || done.Velocity != 0 {
		t.Errorf("sample at park completion = %+v, want PARKED pos=0 v=0", done)
	}
	for _, tai := range []float64{8, 100, 1e4} {
		s := mustEvaluate(t, axis, tai)
		if s != done {
			t.Errorf("terminal sample at %v = %+v, want %+v", tai, s, done)
		}
	}
}

func TestCircularAxis_ZeroLengthMove(t *testing.T) {
	axis := NewCircularAxis(2.0, 1.0, 0)
	duration, err := axis.SetTarget(3, 2.0, 0, model.PhaseMoving)
	if err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}
	if duration != 0 {
		t.Fatalf("duration = %v, want 0 for a zero-length move", duration)
	}

	// With zero crawl velocity the axis is immediately stopped at the target.
	s := mustEvaluate(t, axis, 3)
	if s.Phase != model.PhaseStopped || !near(s.Position, 2.0) {
		t.Errorf("sample = %+v, want STOPPED pos≈2.0", s)
	}
}

func TestCircularAxis_ZeroCrawlDegeneratesToStopped(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 0)
	if _, err := axis.SetTarget(0, 0, 0, model.PhaseCrawling); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}
	s := mustEvaluate(t, axis, 10)
	if s.Phase != model.PhaseStopped || s.Velocity != 0 {
		t.Errorf("sample = %+v, want STOPPED v=0", s)
	}
}

func TestCircularAxis_MoveAfterLongCrawlReplansFromWrapped(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 0)
	if _, err := axis.SetTarget(0, 0, 0.5, model.PhaseCrawling); err != nil {
		t.Fatalf("SetTarget crawl: %v", err)
	}

	// 100 s at 0.5 rad/s accumulates several revolutions; reported position
	// is the wrapped 6.0177 rad.
	pre := mustEvaluate(t, axis, 100)

	duration, err := axis.SetTarget(100, 1.0, 0, model.PhaseMoving)
	if err != nil {
		t.Fatalf("SetTarget move: %v", err)
	}

	// The transit is planned from the wrapped position, short way around.
	want := math.Abs(ShortestArc(pre.Position, 1.0))
	if !near(duration, want) {
		t.Fatalf("duration = %v, want shortest-path %v", duration, want)
	}
	if duration > math.Pi {
		t.Fatalf("duration = %v exceeds half a revolution at max speed", duration)
	}

	// Continuity at issuance still holds.
	post := mustEvaluate(t, axis, 100)
	if !near(post.Position, pre.Position) {
		t.Errorf("position at issuance = %v, want %v", post.Position, pre.Position)
	}

	mid := mustEvaluate(t, axis, 100+duration/2)
	if mid.Phase != model.PhaseMoving || !near(mid.Velocity, 1.0) {
		t.Errorf("mid sample = %+v, want MOVING at +1 rad/s across the seam", mid)
	}

	end := mustEvaluate(t, axis, 100+duration)
	if !near(end.Position, 1.0) {
		t.Errorf("arrival position = %v, want 1.0", end.Position)
	}
}

func TestCircularAxis_SeamCrossingMoveTakesShortestPath(t *testing.T) {
	axis := NewCircularAxis(6.1, 1.0, 0)

	duration, err := axis.SetTarget(0, 0.1, 0, model.PhaseMoving)
	if err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	want := 2*math.Pi - 6.0
	if !near(duration, want) {
		t.Fatalf("duration = %v, want %v (0.283 rad forward across the seam)", duration, want)
	}

	mid := mustEvaluate(t, axis, duration/2)
	if mid.Phase != model.PhaseMoving || !near(mid.Velocity, 1.0) {
		t.Errorf("mid sample = %+v, want MOVING at +1 rad/s", mid)
	}

	end := mustEvaluate(t, axis, duration)
	if !near(end.Position, 0.1) {
		t.Errorf("arrival position = %v, want 0.1", end.Position)
	}
}

func TestCircularAxis_StopAfterLongCrawlFreezesWrapped(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 0)
	if _, err := axis.SetTarget(0, 0, 0.5, model.PhaseCrawling); err != nil {
		t.Fatalf("SetTarget crawl: %v", err)
	}
	pre := mustEvaluate(t, axis, 100)

	if err := axis.Stop(100); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	frozen := mustEvaluate(t, axis, 1e6)
	if frozen.Phase != model.PhaseStopped || !near(frozen.Position, pre.Position) {
		t.Errorf("frozen sample = %+v, want STOPPED at %v", frozen, pre.Position)
	}
}

func TestCircularAxis_SpeedChangeLeavesPlannedTransitAlone(t *testing.T) {
	axis := NewCircularAxis(0, 1.0, 0)
	if _, err := axis.SetTarget(0, 2.0, 0, model.PhaseMoving); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}

	axis.SetMaxSpeed(2.0)

	// The in-flight leg keeps its planned slope and reported speed.
	mid := mustEvaluate(t, axis, 1)
	if !near(mid.Position, 1.0) || !near(mid.Velocity, 1.0) {
		t.Errorf("mid sample = %+v, want position 1.0 at +1 rad/s", mid)
	}

	// Commands issued after the change plan with the new limit.
	duration, err := axis.SetTarget(2.5, 3.0, 0, model.PhaseMoving)
	if err != nil {
		t.Fatalf("SetTarget after speed change: %v", err)
	}
	if !near(duration, 0.5) {
		t.Errorf("duration = %v, want 0.5 at the new max speed", duration)
	}
	mid = mustEvaluate(t, axis, 2.75)
	if !near(mid.Velocity, 2.0) {
		t.Errorf("velocity = %v, want 2.0", mid.Velocity)
	}
}
