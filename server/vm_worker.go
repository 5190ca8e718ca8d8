package server

import (
	"context"
	"fmt"

	"github.com/chazu/sprat/vm"
)

// vmRequest is a unit of work for the VM goroutine.
type vmRequest struct {
	fn   func(*vm.VM) (any, error)
	done chan vmResult
}

type vmResult struct {
	value any
	err   error
}

// VMWorker serializes all VM access through a single goroutine. The Sprat
// runtime is single-threaded; every handler goes through the worker.
type VMWorker struct {
	vm       *vm.VM
	requests chan vmRequest
	quit     chan struct{}
}

// NewVMWorker creates a VMWorker and starts its goroutine.
func NewVMWorker(v *vm.VM) *VMWorker {
	w := &VMWorker{
		vm:       v,
		requests: make(chan vmRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *VMWorker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn on the VM. A panic in a primitive is reported as an
// error rather than taking the server down.
func (w *VMWorker) execute(fn func(*vm.VM) (any, error)) (result vmResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("recovered from VM panic: %v", r)
			result = vmResult{err: fmt.Errorf("internal error: %v", r)}
		}
	}()
	value, err := fn(w.vm)
	return vmResult{value: value, err: err}
}

// Do runs fn on the VM goroutine and waits for it. If ctx ends first Do
// returns ctx.Err(); fn still runs to completion.
func (w *VMWorker) Do(ctx context.Context, fn func(*vm.VM) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := vmRequest{fn: fn, done: make(chan vmResult, 1)}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.quit:
		return nil, errWorkerStopped
	}
	select {
	case res := <-req.done:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.quit:
		return nil, errWorkerStopped
	}
}

// Stop shuts down the worker goroutine.
func (w *VMWorker) Stop() {
	close(w.quit)
}
