package server

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chazu/sprat/vm"
)

// SessionService implements the SessionService handlers.
type SessionService struct {
	worker   *VMWorker
	sessions *SessionStore
}

// NewSessionService creates a SessionService.
func NewSessionService(worker *VMWorker, sessions *SessionStore) *SessionService {
	return &SessionService{worker: worker, sessions: sessions}
}

// CreateSession creates a workspace session with a fresh scope.
//
// Request:  {name?}
// Response: {session}
func (s *SessionService) CreateSession(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	scope, err := s.worker.Do(ctx, func(v *vm.VM) (any, error) {
		return v.NewScope(), nil
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	session, err := s.sessions.Create(stringField(req.Msg, "name"), scope.(*vm.Env))
	if err != nil {
		return nil, connect.NewError(connect.CodeResourceExhausted, err)
	}
	log.Debugf("created session %s", session.ID)
	return reply(map[string]any{"session": session.ID})
}

// DestroySession drops a session and its scope.
//
// Request:  {session}
// Response: {}
func (s *SessionService) DestroySession(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	id := stringField(req.Msg, "session")
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session is required"))
	}
	if !s.sessions.Destroy(id) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %s", errSessionNotFound, id))
	}
	log.Debugf("destroyed session %s", id)
	return reply(map[string]any{})
}
