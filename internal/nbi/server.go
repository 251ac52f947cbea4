package nbi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/dome-simulator/internal/logging"
)

const maxLineBytes = 1 << 20

// CommandRecorder receives per-command metrics. *observability.DomeCollector
// satisfies it; a nil recorder disables recording.
type CommandRecorder interface {
	RecordCommand(command string, code int, elapsed time.Duration)
}

// Server accepts dome protocol connections and runs one command loop per
// connection.
type Server struct {
	addr       string
	dispatcher *Dispatcher
	log        logging.Logger
	metrics    CommandRecorder
	tracer     trace.Tracer

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
}

// ServerOption customises Server construction.
type ServerOption func(*Server)

// WithCommandRecorder attaches a per-command metrics recorder.
func WithCommandRecorder(rec CommandRecorder) ServerOption {
	return func(s *Server) {
		s.metrics = rec
	}
}

// NewServer builds a protocol server bound to addr once Listen is called.
func NewServer(addr string, dispatcher *Dispatcher, log logging.Logger, opts ...ServerOption) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		addr:       addr,
		dispatcher: dispatcher,
		log:        log,
		tracer:     otel.Tracer("dome-simulator/nbi"),
		conns:      make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds the TCP listener. Call before Serve so callers can read the
// bound address when using port 0.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until the context is cancelled or the listener
// fails. It closes the listener on the way out.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		ln = s.listener
		s.mu.Unlock()
	}

	go func() {
		<-ctx.Done()
		ln.Close()
		// Unblock the per-connection command loops so Serve does not wait on
		// idle peers during shutdown.
		s.mu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
	}()

	s.log.Info(ctx, "command server listening", logging.String("addr", ln.Addr().String()))

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	ctx, log := logging.WithConnLogger(ctx, s.log)
	log = log.With(logging.String("remote", conn.RemoteAddr().String()))
	log.Info(ctx, "connection opened")
	defer log.Info(ctx, "connection closed")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rep := s.handleLine(ctx, log, line)
		raw, err := rep.encode()
		if err != nil {
			log.Error(ctx, "encode reply failed", logging.String("error", err.Error()))
			return
		}
		if _, err := writer.Write(raw); err != nil {
			log.Warn(ctx, "write reply failed", logging.String("error", err.Error()))
			return
		}
		if err := writer.Flush(); err != nil {
			log.Warn(ctx, "flush reply failed", logging.String("error", err.Error()))
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warn(ctx, "connection read failed", logging.String("error", err.Error()))
	}
}

func (s *Server) handleLine(ctx context.Context, log logging.Logger, line []byte) reply {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		log.Warn(ctx, "malformed request line", logging.String("error", err.Error()))
		return reply{Code: CodeIncorrectParameter}
	}
	if req.Command == "" {
		log.Warn(ctx, "request without command")
		return reply{Code: CodeUnsupportedCommand}
	}

	ctx, span := s.tracer.Start(ctx, "nbi.command",
		trace.WithAttributes(attribute.String("dome.command", req.Command)),
	)
	defer span.End()

	start := time.Now()
	rep := s.dispatcher.Dispatch(ctx, req.Command, req.Parameters)
	span.SetAttributes(attribute.Int("dome.response_code", int(rep.Code)))

	if s.metrics != nil {
		s.metrics.RecordCommand(req.Command, int(rep.Code), time.Since(start))
	}

	log.Debug(ctx, "command handled",
		logging.String("command", req.Command),
		logging.Int("code", int(rep.Code)),
		logging.Float64("timeout", rep.Timeout),
	)
	return rep
}
