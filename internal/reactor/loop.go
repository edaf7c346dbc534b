// File: internal/reactor/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop drives an api.Reactor with one fixed handler and no backoff
// (Reactor.Wait blocks), adapted from the teacher's core/concurrency/eventloop.go
// batching discipline. Unlike the teacher's channel-fed EventLoop, Loop
// calls Reactor.Wait directly each cycle since epoll already blocks.

package reactor

import (
	"context"

	"github.com/netgroup-polito/ringpmd/api"
)

// Handler processes a single readiness event.
type Handler interface {
	HandleEvent(ev api.Event)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ev api.Event)

func (f HandlerFunc) HandleEvent(ev api.Event) { f(ev) }

// Loop pairs a Reactor with a fixed handler and a batch-sized event
// buffer, running until its context is cancelled.
type Loop struct {
	r       api.Reactor
	handler Handler
	batch   []api.Event
}

// NewLoop constructs a Loop over an already-registered Reactor.
func NewLoop(r api.Reactor, batchSize int, h Handler) *Loop {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Loop{r: r, handler: h, batch: make([]api.Event, batchSize)}
}

// Run blocks, dispatching ready events to the handler until ctx is done
// or the reactor returns a non-transient error.
func (l *Loop) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.r.Close()
		case <-done:
		}
	}()

	for {
		n, err := l.r.Wait(l.batch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		for i := 0; i < n; i++ {
			l.handler.HandleEvent(l.batch[i])
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
