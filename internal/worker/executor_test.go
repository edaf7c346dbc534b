package worker_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/netgroup-polito/ringpmd/internal/worker"
)

func TestPool_SubmitRunsTasks(t *testing.T) {
	p := worker.NewPool(4, -1)
	defer p.Close()

	var counter int64
	task := func() { atomic.AddInt64(&counter, 1) }

	for i := 0; i < 20; i++ {
		if err := p.Submit(task); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt64(&counter) == 0 {
		t.Fatal("tasks not executed")
	}
}

func TestPool_ResizeKeepsProcessing(t *testing.T) {
	p := worker.NewPool(4, -1)
	defer p.Close()

	var counter int64
	task := func() { atomic.AddInt64(&counter, 1) }
	for i := 0; i < 20; i++ {
		_ = p.Submit(task)
	}
	time.Sleep(100 * time.Millisecond)
	before := atomic.LoadInt64(&counter)

	p.Resize(8)
	if p.NumWorkers() != 8 {
		t.Fatalf("expected 8 workers, got %d", p.NumWorkers())
	}
	for i := 0; i < 100; i++ {
		_ = p.Submit(task)
	}
	p.Resize(2)
	time.Sleep(200 * time.Millisecond)
	if atomic.LoadInt64(&counter) < before+20 {
		t.Fatal("tasks lost during resize")
	}
}

func TestPool_SubmitAfterCloseFails(t *testing.T) {
	p := worker.NewPool(2, -1)
	p.Close()
	if err := p.Submit(func() {}); err != worker.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
