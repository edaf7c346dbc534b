package ring

import (
	"runtime"
	"sync"
	"testing"
)

func TestRing_FIFOOrder(t *testing.T) {
	r := New[int](16)
	for i := 0; i < 10; i++ {
		if !r.Enqueue(i) {
			t.Fatalf("enqueue %d failed unexpectedly", i)
		}
	}
	for i := 0; i < 10; i++ {
		v, ok := r.Dequeue()
		if !ok || v != i {
			t.Fatalf("expected %d, got %d (ok=%v)", i, v, ok)
		}
	}
	if _, ok := r.Dequeue(); ok {
		t.Fatalf("expected empty ring")
	}
}

func TestRing_CapacityRoundsUpAndRejectsOverflow(t *testing.T) {
	r := New[int](10)
	if r.Cap() != 16 {
		t.Fatalf("expected capacity rounded to 16, got %d", r.Cap())
	}
	for i := 0; i < 16; i++ {
		if !r.Enqueue(i) {
			t.Fatalf("enqueue %d should have succeeded", i)
		}
	}
	if r.Enqueue(999) {
		t.Fatalf("enqueue into full ring should fail")
	}
}

func TestRing_SPSCConcurrent(t *testing.T) {
	r := New[int](1024)
	const n = 200000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.Enqueue(i) {
				runtime.Gosched()
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for {
				v, ok := r.Dequeue()
				if ok {
					if v != i {
						t.Errorf("out of order: expected %d, got %d", i, v)
					}
					break
				}
				runtime.Gosched()
			}
		}
	}()

	wg.Wait()
}
