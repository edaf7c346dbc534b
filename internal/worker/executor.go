// File: internal/worker/executor.go
// Package worker provides a small control-plane task pool used for work
// that must not run on a queue's dedicated polling goroutine, such as
// the deferred bypass NIC close scheduled by internal/bypass's
// DetachBypass. Data-path packet processing never goes through this
// pool — see internal/bypass for the dedicated busy-poll loops.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adapted from the teacher's core/concurrency/executor.go: same
// local-queue-plus-global-fallback dispatch and graceful resize, with
// PinCurrentThread calls replaced by internal/affinity and the bespoke
// lock-free queue kept as unexported worker.queue.

package worker

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/netgroup-polito/ringpmd/api"
	"github.com/netgroup-polito/ringpmd/internal/affinity"
)

// Task is a unit of control-plane work.
type Task = func()

// Pool satisfies api.Executor, so callers that only need "submit work,
// query/resize concurrency" can depend on the interface instead of
// this package.
var _ api.Executor = (*Pool)(nil)

// Pool manages a fixed-then-resizable set of worker goroutines.
type Pool struct {
	global  chan Task
	locals  []*queue[Task]
	workers []*poolWorker
	closed  atomic.Bool
	closeCh chan struct{}
	resize  chan int
	mu      sync.Mutex
	wg      sync.WaitGroup
	numaID  int
}

// NewPool creates a Pool with numWorkers goroutines; when numaID >= 0
// each is pinned to CPU (worker index mod NumCPU) with numaID recorded
// (use -1 to skip pinning, e.g. in tests).
func NewPool(numWorkers, numaID int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	p := &Pool{
		global:  make(chan Task, numWorkers*4),
		closeCh: make(chan struct{}),
		resize:  make(chan int),
		numaID:  numaID,
	}
	p.locals = make([]*queue[Task], numWorkers)
	p.workers = make([]*poolWorker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		p.locals[i] = newQueue[Task](256)
	}
	for i := 0; i < numWorkers; i++ {
		w := &poolWorker{id: i, pool: p, local: p.locals[i], stopCh: make(chan struct{}), stoppedCh: make(chan struct{})}
		p.workers[i] = w
		p.wg.Add(1)
		go w.run(&p.wg)
	}
	go p.manageResize()
	return p
}

// Submit enqueues a task, falling back to the global queue when the
// chosen local queue is full.
func (p *Pool) Submit(t Task) error {
	if p.closed.Load() {
		return ErrClosed
	}
	p.mu.Lock()
	n := len(p.locals)
	p.mu.Unlock()
	if n == 0 {
		return ErrInvalidWorkerCount
	}
	idx := int(time.Now().UnixNano()) % n
	if p.locals[idx].Enqueue(t) {
		return nil
	}
	select {
	case p.global <- t:
		return nil
	case <-p.closeCh:
		return ErrClosed
	default:
		return ErrClosed
	}
}

// Resize scales the worker pool to newCount goroutines.
func (p *Pool) Resize(newCount int) {
	select {
	case p.resize <- newCount:
	case <-p.closeCh:
		return
	}
	if newCount <= 0 {
		newCount = 1
	}
	// Return only once manageResize has applied the new count.
	for p.NumWorkers() != newCount {
		select {
		case <-p.closeCh:
			return
		case <-time.After(time.Millisecond):
		}
	}
}

func (p *Pool) manageResize() {
	for newCount := range p.resize {
		p.mu.Lock()
		if newCount <= 0 {
			newCount = 1
		}
		current := len(p.workers)
		if newCount > current {
			for i := current; i < newCount; i++ {
				q := newQueue[Task](256)
				p.locals = append(p.locals, q)
				w := &poolWorker{id: i, pool: p, local: q, stopCh: make(chan struct{}), stoppedCh: make(chan struct{})}
				p.workers = append(p.workers, w)
				p.wg.Add(1)
				go w.run(&p.wg)
			}
		} else if newCount < current {
			for i := newCount; i < current; i++ {
				close(p.workers[i].stopCh)
			}
			for i := newCount; i < current; i++ {
				<-p.workers[i].stoppedCh
			}
			p.workers = p.workers[:newCount]
			p.locals = p.locals[:newCount]
		}
		p.mu.Unlock()
	}
}

// Close stops all workers and waits for them to drain.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.closeCh)
		close(p.resize)
		p.mu.Lock()
		for _, w := range p.workers {
			close(w.stopCh)
		}
		p.mu.Unlock()
		p.wg.Wait()
	}
}

// NumWorkers reports the current worker count.
func (p *Pool) NumWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

type poolWorker struct {
	id        int
	pool      *Pool
	local     *queue[Task]
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func (w *poolWorker) run(wg *sync.WaitGroup) {
	defer func() {
		wg.Done()
		close(w.stoppedCh)
	}()
	if w.pool.numaID >= 0 {
		pin := affinity.NewPinner()
		if err := pin.Pin(w.id%runtime.NumCPU(), w.pool.numaID); err == nil {
			defer pin.Unpin()
		}
	}
	for {
		select {
		case <-w.stopCh:
			return
		default:
			if t, ok := w.local.Dequeue(); ok {
				w.safeRun(t)
				continue
			}
			select {
			case t := <-w.pool.global:
				w.safeRun(t)
			case <-w.stopCh:
				return
			default:
				time.Sleep(time.Millisecond)
			}
		}
	}
}

func (w *poolWorker) safeRun(t Task) {
	defer func() { recover() }()
	t()
}
