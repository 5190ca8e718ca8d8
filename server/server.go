package server

import (
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/sprat/vm"
)

var log = commonlog.GetLogger("sprat.server")

// SpratServer exposes a running VM over Connect (HTTP/JSON and binary
// protobuf) on a single port.
type SpratServer struct {
	worker   *VMWorker
	sessions *SessionStore
	mux      *http.ServeMux
	http     *http.Server

	stopSweeper func()
}

// ServerOption configures a SpratServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	sessionLimit  int
	sessionTTL    time.Duration
	sweepInterval time.Duration
}

// WithSessionLimit caps the number of live sessions.
func WithSessionLimit(n int) ServerOption {
	return func(c *serverConfig) { c.sessionLimit = n }
}

// WithSessionTTL expires sessions idle for longer than ttl.
func WithSessionTTL(ttl time.Duration) ServerOption {
	return func(c *serverConfig) { c.sessionTTL = ttl }
}

// New creates a SpratServer wrapping v. From here on v must only be used
// through the server.
func New(v *vm.VM, opts ...ServerOption) *SpratServer {
	cfg := &serverConfig{
		sessionLimit:  256,
		sessionTTL:    30 * time.Minute,
		sweepInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	worker := NewVMWorker(v)
	sessions := NewSessionStore(cfg.sessionLimit)
	s := &SpratServer{
		worker:   worker,
		sessions: sessions,
		mux:      http.NewServeMux(),
	}

	evalSvc := NewEvalService(worker, sessions)
	sessionSvc := NewSessionService(worker, sessions)
	browseSvc := NewBrowseService(worker)

	s.mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(EvaluateProcedure, evalSvc.Evaluate))
	s.mux.Handle(CheckSyntaxProcedure, connect.NewUnaryHandler(CheckSyntaxProcedure, evalSvc.CheckSyntax))
	s.mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, sessionSvc.CreateSession))
	s.mux.Handle(DestroySessionProcedure, connect.NewUnaryHandler(DestroySessionProcedure, sessionSvc.DestroySession))
	s.mux.Handle(ListClassesProcedure, connect.NewUnaryHandler(ListClassesProcedure, browseSvc.ListClasses))
	s.mux.Handle(GetClassProcedure, connect.NewUnaryHandler(GetClassProcedure, browseSvc.GetClass))

	if cfg.sessionTTL > 0 {
		s.stopSweeper = sessions.StartSweeper(cfg.sweepInterval, cfg.sessionTTL)
	}
	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *SpratServer) Handler() http.Handler { return s.mux }

// ListenAndServe serves on addr ("host:port" or ":port") until Stop.
func (s *SpratServer) ListenAndServe(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.mux}
	log.Noticef("listening on %s", addr)
	log.Noticef("  Connect (HTTP/JSON): http://%s%s", addr, EvaluateProcedure)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the server down.
func (s *SpratServer) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	if s.http != nil {
		s.http.Close()
	}
	s.worker.Stop()
}
