package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DomeCollector bundles Prometheus metrics for the command surface and the
// telemetry loop and provides a ready-to-serve /metrics handler.
type DomeCollector struct {
	gatherer prometheus.Gatherer

	Commands         *prometheus.CounterVec
	CommandDurations *prometheus.HistogramVec

	TelemetryCycles  prometheus.Counter
	TelemetryClients prometheus.Gauge
	AzimuthPosition  prometheus.Gauge
	AzimuthVelocity  prometheus.Gauge
}

// NewDomeCollector registers the simulator's Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewDomeCollector(reg prometheus.Registerer) (*DomeCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dome_commands_total",
		Help: "Total number of handled dome commands, labeled by command name and response code.",
	}, []string{"command", "code"})
	commands, err := registerCounterVec(reg, commands, "dome_commands_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dome_command_duration_seconds",
		Help:    "Dome command handling latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"command"})
	durations, err = registerHistogramVec(reg, durations, "dome_command_duration_seconds")
	if err != nil {
		return nil, err
	}

	cycles, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dome_telemetry_cycles_total",
		Help: "Total number of completed telemetry cycles.",
	}), "dome_telemetry_cycles_total")
	if err != nil {
		return nil, err
	}
	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dome_telemetry_clients",
		Help: "Current number of connected telemetry websocket clients.",
	}), "dome_telemetry_clients")
	if err != nil {
		return nil, err
	}
	position, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dome_azimuth_position_radians",
		Help: "Azimuth position of the latest telemetry cycle, in radians.",
	}), "dome_azimuth_position_radians")
	if err != nil {
		return nil, err
	}
	velocity, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dome_azimuth_velocity_radians_per_second",
		Help: "Azimuth velocity of the latest telemetry cycle, in radians per second.",
	}), "dome_azimuth_velocity_radians_per_second")
	if err != nil {
		return nil, err
	}

	return &DomeCollector{
		gatherer:         gatherer,
		Commands:         commands,
		CommandDurations: durations,
		TelemetryCycles:  cycles,
		TelemetryClients: clients,
		AzimuthPosition:  position,
		AzimuthVelocity:  velocity,
	}, nil
}

// RecordCommand records the outcome and latency of one handled command.
func (c *DomeCollector) RecordCommand(command string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Commands != nil {
		c.Commands.WithLabelValues(command, fmt.Sprintf("%d", code)).Inc()
	}
	if c.CommandDurations != nil {
		c.CommandDurations.WithLabelValues(command).Observe(elapsed.Seconds())
	}
}

// RecordCycle satisfies the state package's AxisMetricsRecorder interface so
// the telemetry loop can drive gauge values directly.
func (c *DomeCollector) RecordCycle(position, velocity float64) {
	if c == nil {
		return
	}
	if c.TelemetryCycles != nil {
		c.TelemetryCycles.Inc()
	}
	if c.AzimuthPosition != nil {
		c.AzimuthPosition.Set(position)
	}
	if c.AzimuthVelocity != nil {
		c.AzimuthVelocity.Set(velocity)
	}
}

// ClientConnected bumps the connected telemetry client gauge.
func (c *DomeCollector) ClientConnected() {
	if c != nil && c.TelemetryClients != nil {
		c.TelemetryClients.Inc()
	}
}

// ClientDisconnected drops the connected telemetry client gauge.
func (c *DomeCollector) ClientDisconnected() {
	if c != nil && c.TelemetryClients != nil {
		c.TelemetryClients.Dec()
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *DomeCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
