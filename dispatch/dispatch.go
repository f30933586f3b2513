// Package dispatch funnels injection requests through one background
// worker so callers never block on remote thread waits and requests
// cannot interleave on the shared payload slot.
package dispatch

import (
	"sync"

	"winshield/shared"
)

// Op identifies what a queued request does.
type Op int

const (
	OpApply Op = iota
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpApply:
		return "apply"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Injector is the part of the injection surface the dispatcher drives.
type Injector interface {
	Apply(hwnd uintptr, mode shared.Mode, autoUnload bool) error
	RemoveAgent(hwnd uintptr) error
}

// Result reports the outcome of one queued request.
type Result struct {
	Window uintptr
	Op     Op
	Mode   shared.Mode
	Err    error
}

type request struct {
	op         Op
	hwnd       uintptr
	mode       shared.Mode
	autoUnload bool
	done       chan Result
}

// Dispatcher runs requests in submission order on a single worker.
// There is no cancellation; a submitted request always produces exactly
// one Result on its channel.
type Dispatcher struct {
	inj  Injector
	reqs chan request

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a dispatcher over inj with the given queue depth.
func New(inj Injector, queueDepth int) *Dispatcher {
	if queueDepth <= 0 {
		queueDepth = 16
	}
	d := &Dispatcher{
		inj:  inj,
		reqs: make(chan request, queueDepth),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for req := range d.reqs {
		res := Result{Window: req.hwnd, Op: req.op, Mode: req.mode}
		switch req.op {
		case OpApply:
			res.Err = d.inj.Apply(req.hwnd, req.mode, req.autoUnload)
		case OpRemove:
			res.Err = d.inj.RemoveAgent(req.hwnd)
		}
		req.done <- res
	}
}

// Apply queues an affinity change and returns the channel its Result
// will arrive on. Submission blocks only when the queue is full.
func (d *Dispatcher) Apply(hwnd uintptr, mode shared.Mode, autoUnload bool) <-chan Result {
	return d.submit(request{op: OpApply, hwnd: hwnd, mode: mode, autoUnload: autoUnload})
}

// Remove queues an agent removal.
func (d *Dispatcher) Remove(hwnd uintptr) <-chan Result {
	return d.submit(request{op: OpRemove, hwnd: hwnd})
}

func (d *Dispatcher) submit(req request) <-chan Result {
	req.done = make(chan Result, 1)
	d.reqs <- req
	return req.done
}

// Close drains the queue and stops the worker. Submitting after Close
// panics, so callers stop submitting first.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.reqs)
	})
	d.wg.Wait()
}
