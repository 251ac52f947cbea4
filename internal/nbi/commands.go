package nbi

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/dome-simulator/internal/logging"
	"github.com/signalsfoundry/dome-simulator/internal/sim/state"
	"github.com/signalsfoundry/dome-simulator/model"
	"github.com/signalsfoundry/dome-simulator/motion"
	"github.com/signalsfoundry/dome-simulator/timectrl"
)

type handlerFunc func(ctx context.Context, params map[string]any, tai float64) (reply, error)

// Dispatcher routes decoded protocol commands to the dome state components.
type Dispatcher struct {
	dome     *state.DomeState
	clock    timectrl.Clock
	log      logging.Logger
	handlers map[string]handlerFunc
}

// NewDispatcher builds the command table over the provided dome state.
func NewDispatcher(dome *state.DomeState, clock timectrl.Clock, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Noop()
	}
	d := &Dispatcher{
		dome:  dome,
		clock: clock,
		log:   log,
	}
	d.handlers = map[string]handlerFunc{
		"moveAz":      d.handleMoveAz,
		"moveEl":      d.handleMoveEl,
		"crawlAz":     d.handleCrawlAz,
		"crawlEl":     d.handleCrawlEl,
		"stopAz":      d.handleStopAz,
		"stopEl":      d.handleStopEl,
		"stop":        d.handleStop,
		"park":        d.handlePark,
		"fans":        d.handleFans,
		"inflate":     d.handleInflate,
		"config":      d.handleConfig,
		"statusAMCS":  d.handleStatusAMCS,
		"statusLWSCS": d.handleStatusLWSCS,
	}
	return d
}

// Dispatch resolves a command name and executes its handler at the current
// TAI. Unknown commands map to CodeUnsupportedCommand; handler errors map to
// CodeIncorrectParameter.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd string, params map[string]any) reply {
	handler, ok := d.handlers[cmd]
	if !ok {
		return reply{Code: CodeUnsupportedCommand}
	}

	tai := d.clock.Now()
	rep, err := handler(ctx, params, tai)
	if err != nil {
		level := d.log.Warn
		if errors.Is(err, motion.ErrTimeTravel) || errors.Is(err, motion.ErrUnreachablePhase) {
			level = d.log.Error
		}
		level(ctx, "command rejected",
			logging.String("command", cmd),
			logging.Float64("tai", tai),
			logging.String("error", err.Error()),
		)
		return reply{Code: CodeIncorrectParameter}
	}
	return rep
}

func (d *Dispatcher) handleMoveAz(_ context.Context, params map[string]any, tai float64) (reply, error) {
	position, err := floatParam(params, "position")
	if err != nil {
		return reply{}, err
	}
	velocity, err := floatParam(params, "velocity")
	if err != nil {
		return reply{}, err
	}
	duration, err := d.dome.Azimuth().MoveAz(position, velocity, tai)
	if err != nil {
		return reply{}, err
	}
	return okReply(duration), nil
}

func (d *Dispatcher) handleMoveEl(_ context.Context, params map[string]any, tai float64) (reply, error) {
	position, err := floatParam(params, "position")
	if err != nil {
		return reply{}, err
	}
	duration, err := d.dome.Elevation().MoveEl(position, tai)
	if err != nil {
		return reply{}, err
	}
	return okReply(duration), nil
}

func (d *Dispatcher) handleCrawlAz(_ context.Context, params map[string]any, tai float64) (reply, error) {
	velocity, err := floatParam(params, "velocity")
	if err != nil {
		return reply{}, err
	}
	duration, err := d.dome.Azimuth().CrawlAz(velocity, tai)
	if err != nil {
		return reply{}, err
	}
	return okReply(duration), nil
}

func (d *Dispatcher) handleCrawlEl(_ context.Context, params map[string]any, tai float64) (reply, error) {
	velocity, err := floatParam(params, "velocity")
	if err != nil {
		return reply{}, err
	}
	duration, err := d.dome.Elevation().CrawlEl(velocity, tai)
	if err != nil {
		return reply{}, err
	}
	return okReply(duration), nil
}

func (d *Dispatcher) handleStopAz(_ context.Context, _ map[string]any, tai float64) (reply, error) {
	if err := d.dome.Azimuth().StopAz(tai); err != nil {
		return reply{}, err
	}
	return okReply(0), nil
}

func (d *Dispatcher) handleStopEl(_ context.Context, _ map[string]any, tai float64) (reply, error) {
	if err := d.dome.Elevation().StopEl(tai); err != nil {
		return reply{}, err
	}
	return okReply(0), nil
}

func (d *Dispatcher) handleStop(_ context.Context, _ map[string]any, tai float64) (reply, error) {
	if err := d.dome.Azimuth().StopAz(tai); err != nil {
		return reply{}, err
	}
	if err := d.dome.Elevation().StopEl(tai); err != nil {
		return reply{}, err
	}
	return okReply(0), nil
}

func (d *Dispatcher) handlePark(_ context.Context, _ map[string]any, tai float64) (reply, error) {
	endTai, err := d.dome.Azimuth().Park(tai)
	if err != nil {
		return reply{}, err
	}
	return okReply(endTai - tai), nil
}

func (d *Dispatcher) handleFans(_ context.Context, params map[string]any, _ float64) (reply, error) {
	action, err := onOffParam(params)
	if err != nil {
		return reply{}, err
	}
	d.dome.Azimuth().SetFans(action)
	return okReply(0), nil
}

func (d *Dispatcher) handleInflate(_ context.Context, params map[string]any, _ float64) (reply, error) {
	action, err := onOffParam(params)
	if err != nil {
		return reply{}, err
	}
	d.dome.Azimuth().SetSeal(action)
	return okReply(0), nil
}

// handleConfig updates the drive limits of one subsystem. Settings are a
// partial override: absent keys keep their current value.
func (d *Dispatcher) handleConfig(_ context.Context, params map[string]any, _ float64) (reply, error) {
	system, err := stringParam(params, "system")
	if err != nil {
		return reply{}, err
	}
	rawSettings, ok := params["settings"]
	if !ok {
		return reply{}, fmt.Errorf("missing parameter %q", "settings")
	}
	settings, ok := rawSettings.(map[string]any)
	if !ok {
		return reply{}, fmt.Errorf("parameter %q is not an object", "settings")
	}

	var limits model.DriveLimits
	switch system {
	case "AMCS":
		limits = d.dome.Azimuth().Limits()
	case "LWSCS":
		limits = d.dome.Elevation().Limits()
	default:
		return reply{}, fmt.Errorf("unknown system %q", system)
	}

	if err := applySetting(settings, "vmax", &limits.VMax); err != nil {
		return reply{}, err
	}
	if err := applySetting(settings, "amax", &limits.AMax); err != nil {
		return reply{}, err
	}
	if err := applySetting(settings, "jmax", &limits.JMax); err != nil {
		return reply{}, err
	}
	if limits.VMax <= 0 || limits.AMax <= 0 || limits.JMax <= 0 {
		return reply{}, fmt.Errorf("limits must be positive, got %+v", limits)
	}

	switch system {
	case "AMCS":
		d.dome.Azimuth().ApplyLimits(limits)
	case "LWSCS":
		d.dome.Elevation().ApplyLimits(limits)
	}
	return okReply(0), nil
}

func (d *Dispatcher) handleStatusAMCS(_ context.Context, _ map[string]any, tai float64) (reply, error) {
	snap, err := d.dome.Azimuth().Status(tai)
	if err != nil {
		return reply{}, err
	}
	return reply{Code: CodeOK, Body: map[string]any{"AMCS": snap}}, nil
}

func (d *Dispatcher) handleStatusLWSCS(_ context.Context, _ map[string]any, tai float64) (reply, error) {
	snap, err := d.dome.Elevation().Status(tai)
	if err != nil {
		return reply{}, err
	}
	return reply{Code: CodeOK, Body: map[string]any{"LWSCS": snap}}, nil
}

func onOffParam(params map[string]any) (model.OnOff, error) {
	action, err := stringParam(params, "action")
	if err != nil {
		return model.Off, err
	}
	return model.ParseOnOff(action)
}

func applySetting(settings map[string]any, key string, dst *float64) error {
	v, ok := settings[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return fmt.Errorf("setting %q is not a number", key)
	}
	*dst = f
	return nil
}
