package server

import (
	"context"
	"os"
	"testing"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chazu/sprat/vm"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
//
// One VM serves the read-only tests. Tests that define things create their
// own environment with newTestEnv.
// ---------------------------------------------------------------------------

var (
	testVM       *vm.VM
	testWorker   *VMWorker
	testSessions *SessionStore
)

const testProgram = `
"""A point in the plane."""
class Point {
    | x y |
    method: sum { ^x + y }
}

interface Shape {
    requires: area
    method: describe { ^'a shape' }
}

class Square {
    | side |
    is: Shape
    method: area { ^side * side }
}
`

func TestMain(m *testing.M) {
	testVM = vm.NewVM()
	if _, err := testVM.EvalNamed("program.spr", testProgram); err != nil {
		panic(err)
	}
	testWorker = NewVMWorker(testVM)
	testSessions = NewSessionStore(0)

	code := m.Run()

	testWorker.Stop()
	os.Exit(code)
}

func newTestEvalService() *EvalService {
	return NewEvalService(testWorker, testSessions)
}

func newTestSessionService() *SessionService {
	return NewSessionService(testWorker, testSessions)
}

func newTestBrowseService() *BrowseService {
	return NewBrowseService(testWorker)
}

// testEnv bundles a fresh VM with its worker and session store.
type testEnv struct {
	VM       *vm.VM
	Worker   *VMWorker
	Sessions *SessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	v := vm.NewVM()
	w := NewVMWorker(v)
	t.Cleanup(w.Stop)
	return &testEnv{VM: v, Worker: w, Sessions: NewSessionStore(0)}
}

func (e *testEnv) evalService() *EvalService {
	return NewEvalService(e.Worker, e.Sessions)
}

func (e *testEnv) sessionService() *SessionService {
	return NewSessionService(e.Worker, e.Sessions)
}

func bg() context.Context {
	return context.Background()
}

// request builds a Connect request from plain fields.
func request(t *testing.T, fields map[string]any) *connect.Request[structpb.Struct] {
	t.Helper()
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return connect.NewRequest(msg)
}

func field(resp *connect.Response[structpb.Struct], key string) *structpb.Value {
	return resp.Msg.GetFields()[key]
}

func wantCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	if got := connect.CodeOf(err); got != code {
		t.Fatalf("error code = %v, want %v (%v)", got, code, err)
	}
}
