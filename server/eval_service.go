package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chazu/sprat/compiler"
	"github.com/chazu/sprat/vm"
)

// EvalService implements the EvaluationService handlers.
type EvalService struct {
	worker   *VMWorker
	sessions *SessionStore
}

// NewEvalService creates an EvalService.
func NewEvalService(worker *VMWorker, sessions *SessionStore) *EvalService {
	return &EvalService{worker: worker, sessions: sessions}
}

// Evaluate runs source in a session's scope, or at the program's top level
// when no session is given.
//
// Request:  {source, session?}
// Response: {success, result?, class?, output, error?, diagnostics}
func (s *EvalService) Evaluate(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	source := stringField(req.Msg, "source")
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	var session *Session
	if id := stringField(req.Msg, "session"); id != "" {
		var ok bool
		if session, ok = s.sessions.Get(id); !ok {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %s", errSessionNotFound, id))
		}
	}

	result, err := s.worker.Do(ctx, func(v *vm.VM) (any, error) {
		return evaluate(v, session, source), nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, connect.NewError(connect.CodeDeadlineExceeded, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return reply(result.(map[string]any))
}

// evaluate runs on the worker goroutine. Output written by System during
// the evaluation is captured and returned with the result.
func evaluate(v *vm.VM, session *Session, source string) map[string]any {
	var out bytes.Buffer
	prev := v.Output()
	v.SetOutput(&out)
	defer v.SetOutput(prev)

	scope := v.TopLevel()
	name := "<eval>"
	if session != nil {
		scope = session.Scope
		name = "<" + session.ID + ">"
	}

	value, err := v.EvalIn(scope, name, source)
	if err != nil {
		return map[string]any{
			"success":     false,
			"output":      out.String(),
			"error":       err.Error(),
			"diagnostics": []any{diagnostic(err)},
		}
	}

	printed, err := v.PrintString(value)
	if err != nil {
		printed = v.Describe(value)
	}
	fields := map[string]any{
		"success":     true,
		"result":      printed,
		"output":      out.String(),
		"diagnostics": []any{},
	}
	if vt := value.VTable(); vt != nil {
		fields["class"] = vt.Name()
	}
	return fields
}

// CheckSyntax parses source without evaluating it.
//
// Request:  {source}
// Response: {valid, incomplete, diagnostics}
func (s *EvalService) CheckSyntax(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	source := stringField(req.Msg, "source")
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}
	_, err := compiler.Parse(source)
	if err != nil {
		return reply(map[string]any{
			"valid":       false,
			"incomplete":  compiler.IsIncomplete(err),
			"diagnostics": []any{diagnostic(err)},
		})
	}
	return reply(map[string]any{
		"valid":       true,
		"incomplete":  false,
		"diagnostics": []any{},
	})
}
