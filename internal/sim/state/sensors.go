package state

import "math"

// SensorChannels holds one cycle's synthetic per-motor sensor readings.
type SensorChannels struct {
	TorqueActual       []float64
	TorqueCommanded    []float64
	CurrentActual      []float64
	Temperature        []float64
	EncoderRaw         []float64
	EncoderCalibrated  []float64
	ResolverRaw        []float64
	ResolverCalibrated []float64
}

// SensorModel produces the synthetic sensor channels for a subsystem. The
// mocked hardware has no physical model for these, so implementations only
// need to be deterministic in elapsed time and bounded; tests can then assert
// exact values without committing to unstated physics.
type SensorModel interface {
	Channels(elapsed float64, motors int) SensorChannels
}

// StaticModel reports all channels at zero with a fixed drive temperature,
// matching the hardware's idle defaults.
type StaticModel struct {
	// Temperature [deg C] reported for every motor.
	Temperature float64
}

// Channels implements SensorModel.
func (m StaticModel) Channels(elapsed float64, motors int) SensorChannels {
	return SensorChannels{
		TorqueActual:       make([]float64, motors),
		TorqueCommanded:    make([]float64, motors),
		CurrentActual:      make([]float64, motors),
		Temperature:        fill(motors, m.Temperature),
		EncoderRaw:         make([]float64, motors),
		EncoderCalibrated:  make([]float64, motors),
		ResolverRaw:        make([]float64, motors),
		ResolverCalibrated: make([]float64, motors),
	}
}

// RippleModel adds a bounded sinusoidal ripple on top of static baselines so
// dashboards see live-looking channels. Identical elapsed times yield
// identical readings.
type RippleModel struct {
	TorqueBase      float64 // [N m]
	CurrentBase     float64 // [A]
	TemperatureBase float64 // [deg C]
	Amplitude       float64 // ripple amplitude as a fraction of each base
	Period          float64 // ripple period [s]
}

// DefaultRippleModel returns the sensor model the simulator runs with.
func DefaultRippleModel() RippleModel {
	return RippleModel{
		TorqueBase:      150.0,
		CurrentBase:     8.5,
		TemperatureBase: 20.0,
		Amplitude:       0.02,
		Period:          60.0,
	}
}

// Channels implements SensorModel. Each motor's ripple is phase-shifted so
// the channels are distinguishable per motor.
func (m RippleModel) Channels(elapsed float64, motors int) SensorChannels {
	ch := SensorChannels{
		TorqueActual:       make([]float64, motors),
		TorqueCommanded:    fill(motors, m.TorqueBase),
		CurrentActual:      make([]float64, motors),
		Temperature:        make([]float64, motors),
		EncoderRaw:         make([]float64, motors),
		EncoderCalibrated:  make([]float64, motors),
		ResolverRaw:        make([]float64, motors),
		ResolverCalibrated: make([]float64, motors),
	}
	for i := 0; i < motors; i++ {
		ripple := math.Sin(2*math.Pi*elapsed/m.Period + float64(i))
		ch.TorqueActual[i] = m.TorqueBase * (1 + m.Amplitude*ripple)
		ch.CurrentActual[i] = m.CurrentBase * (1 + m.Amplitude*ripple)
		ch.Temperature[i] = m.TemperatureBase + m.Amplitude*ripple
		ch.EncoderRaw[i] = m.Amplitude * ripple
		ch.EncoderCalibrated[i] = ch.EncoderRaw[i]
		ch.ResolverRaw[i] = m.Amplitude * ripple
		ch.ResolverCalibrated[i] = ch.ResolverRaw[i]
	}
	return ch
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
