package motion

import (
	"math"
	"testing"
)

func TestWrapNonnegative_Range(t *testing.T) {
	inputs := []float64{
		0, 1, math.Pi, 2*math.Pi - 1e-9, 2 * math.Pi, 7, -1, -math.Pi,
		-2 * math.Pi, 100, -100, 1e6, -1e6, 1e-12, -1e-12,
	}
	for _, in := range inputs {
		got := WrapNonnegative(in)
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("WrapNonnegative(%v) = %v, want value in [0, 2π)", in, got)
		}
	}
}

func TestWrapNonnegative_Periodicity(t *testing.T) {
	const eps = 1e-9
	for _, x := range []float64{0, 0.5, 1.75, math.Pi, 5.5} {
		base := WrapNonnegative(x)
		for _, k := range []float64{-3, -1, 1, 2, 10} {
			got := WrapNonnegative(x + k*2*math.Pi)
			if math.Abs(got-base) > eps {
				t.Errorf("WrapNonnegative(%v + %v*2π) = %v, want %v", x, k, got, base)
			}
		}
	}
}

func TestWrapNonnegative_NegativeWrapsHigh(t *testing.T) {
	got := WrapNonnegative(-0.25)
	want := 2*math.Pi - 0.25
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("WrapNonnegative(-0.25) = %v, want %v", got, want)
	}
}

func TestDegreesRadiansRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, 180, 270, 359.5} {
		back := RadToDeg(DegToRad(deg))
		if math.Abs(back-deg) > 1e-9 {
			t.Errorf("RadToDeg(DegToRad(%v)) = %v", deg, back)
		}
	}
}

func TestShortestArc(t *testing.T) {
	cases := []struct {
		name       string
		start, end float64
		want       float64
	}{
		{"forward", 0, 1, 1},
		{"backward", 1, 0, -1},
		{"half revolution is forward", 0, math.Pi, math.Pi},
		{"forward across the seam", 6.1, 0.1, 2*math.Pi - 6.0},
		{"backward across the seam", 0.1, 6.1, -(2*math.Pi - 6.0)},
		{"start beyond one revolution", 6.1 + 2*math.Pi, 0.1, 2*math.Pi - 6.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShortestArc(tc.start, tc.end)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("ShortestArc(%v, %v) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
			if got <= -math.Pi || got > math.Pi {
				t.Fatalf("ShortestArc(%v, %v) = %v outside (-π, π]", tc.start, tc.end, got)
			}
		})
	}
}
