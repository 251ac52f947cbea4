// Command dome-sim runs the dome hardware mock: the dome control protocol on
// a TCP port, a telemetry websocket plus Prometheus /metrics over HTTP, and
// the fixed-period snapshot cycle in between.
package main

import (
	"context"
	"flag"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/dome-simulator/internal/config"
	"github.com/signalsfoundry/dome-simulator/internal/logging"
	"github.com/signalsfoundry/dome-simulator/internal/nbi"
	"github.com/signalsfoundry/dome-simulator/internal/observability"
	"github.com/signalsfoundry/dome-simulator/internal/sim/state"
	"github.com/signalsfoundry/dome-simulator/internal/telemetry"
	"github.com/signalsfoundry/dome-simulator/motion"
	"github.com/signalsfoundry/dome-simulator/timectrl"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file; defaults apply when empty")
	commandAddr := flag.String("command-addr", "", "Override the TCP address the command server listens on")
	httpAddr := flag.String("http-addr", "", "Override the HTTP address for /metrics and /telemetry")
	flag.Parse()

	ctx := context.Background()
	log := logging.NewFromEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *commandAddr != "" {
		cfg.Command.ListenAddr = *commandAddr
	}
	if *httpAddr != "" {
		cfg.HTTP.ListenAddr = *httpAddr
	}
	if cfg.Logging.Level != "" || cfg.Logging.Format != "" {
		log = logging.New(logging.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: true,
		})
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewDomeCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	clock := timectrl.SystemClock{}
	now := clock.Now()

	hub := telemetry.NewHub(log, telemetry.WithClientGauge(collector))
	dome := state.NewDomeState(
		state.NewAzimuthSystem(
			motion.NewCircularAxis(cfg.Azimuth.StartPosition, cfg.Azimuth.VMax, now),
			cfg.Azimuth.Limits(),
			state.DefaultRippleModel(),
			log,
		),
		state.NewElevationSystem(
			motion.NewLinearAxis(cfg.Elevation.StartPosition, 0, math.Pi/2, cfg.Elevation.VMax, now),
			cfg.Elevation.Limits(),
			state.DefaultRippleModel(),
			log,
		),
		log,
		state.WithMetricsRecorder(collector),
		state.WithPublisher(hub),
	)

	server := nbi.NewServer(
		cfg.Command.ListenAddr,
		nbi.NewDispatcher(dome, clock, log),
		log,
		nbi.WithCommandRecorder(collector),
	)
	if err := server.Listen(); err != nil {
		log.Error(ctx, "failed to bind command listener", logging.String("error", err.Error()))
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(runCtx)

	cycle := timectrl.NewCycleLoop(clock, cfg.Telemetry.CyclePeriod)
	cycle.AddListener(dome.OnCycle)
	cycleDone := cycle.Start(runCtx)

	httpSrv := serveHTTP(cfg.HTTP.ListenAddr, collector, hub, log)

	go func() {
		if err := server.Serve(runCtx); err != nil {
			log.Error(ctx, "command server exited", logging.String("error", err.Error()))
			stop()
		}
	}()

	log.Info(ctx, "dome simulator running",
		logging.String("command_addr", server.Addr().String()),
		logging.String("http_addr", cfg.HTTP.ListenAddr),
		logging.Any("cycle_period", cfg.Telemetry.CyclePeriod),
	)

	<-runCtx.Done()
	log.Info(ctx, "shutting down dome simulator")
	<-cycleDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if httpSrv != nil {
		_ = httpSrv.Shutdown(shutdownCtx)
	}
}

func serveHTTP(addr string, collector *observability.DomeCollector, hub *telemetry.Hub, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.Handle("/telemetry", hub)

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "http server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving /metrics and /telemetry", logging.String("addr", addr))
	return srv
}
