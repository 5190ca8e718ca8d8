package server

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chazu/sprat/compiler"
	"github.com/chazu/sprat/vm"
)

// Service messages are google.protobuf.Struct values, so clients can use
// the Connect JSON protocol without generated stubs.

const (
	EvaluationServiceName = "sprat.v1.EvaluationService"
	SessionServiceName    = "sprat.v1.SessionService"
	BrowsingServiceName   = "sprat.v1.BrowsingService"

	EvaluateProcedure       = "/" + EvaluationServiceName + "/Evaluate"
	CheckSyntaxProcedure    = "/" + EvaluationServiceName + "/CheckSyntax"
	CreateSessionProcedure  = "/" + SessionServiceName + "/CreateSession"
	DestroySessionProcedure = "/" + SessionServiceName + "/DestroySession"
	ListClassesProcedure    = "/" + BrowsingServiceName + "/ListClasses"
	GetClassProcedure       = "/" + BrowsingServiceName + "/GetClass"
)

func stringField(msg *structpb.Struct, key string) string {
	return msg.GetFields()[key].GetStringValue()
}

// reply wraps fields in a Connect response.
func reply(fields map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encoding response: %w", err))
	}
	return connect.NewResponse(msg), nil
}

func stringList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

// diagnostic describes err with 1-based positions, if err carries a span.
func diagnostic(err error) map[string]any {
	d := map[string]any{
		"severity": "error",
		"message":  err.Error(),
	}
	var (
		span    compiler.Span
		hasSpan bool
	)
	var u *vm.Unwind
	var pe *compiler.Error
	switch {
	case errors.As(err, &u):
		d["message"] = u.Message()
		d["kind"] = u.Kind().String()
		span, hasSpan = u.Span()
	case errors.As(err, &pe):
		d["message"] = pe.Message
		d["kind"] = "syntax error"
		if pe.Incomplete {
			d["kind"] = vm.EndOfInput.String()
		}
		span, hasSpan = pe.Span, true
	}
	if hasSpan {
		d["line"] = span.Start.Line
		d["column"] = span.Start.Column
		d["endLine"] = span.End.Line
		d["endColumn"] = span.End.Column
	}
	return d
}
