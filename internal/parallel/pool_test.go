package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}

	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	expected := runtime.GOMAXPROCS(0)
	if pool.Workers() != expected {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
	}
}

func TestWorkerPool_CreateNegativeWorkers(t *testing.T) {
	pool := NewWorkerPool(-5)
	defer pool.Close()

	expected := runtime.GOMAXPROCS(0)
	if pool.Workers() != expected {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	numTasks := 100

	work := make([]func(), numTasks)
	for i := range work {
		work[i] = func() {
			counter.Add(1)
		}
	}

	pool.ExecuteAll(work)

	if counter.Load() != int64(numTasks) {
		t.Errorf("counter = %d, want %d", counter.Load(), numTasks)
	}
}

func TestWorkerPool_ExecuteAll_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	pool.ExecuteAll(nil)
	pool.ExecuteAll([]func(){})
}

func TestWorkerPool_ExecuteAll_EachOnce(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	const n = 257
	hits := make([]atomic.Int32, n)
	work := make([]func(), n)
	for i := range work {
		work[i] = func() { hits[i].Add(1) }
	}

	pool.ExecuteAll(work)

	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Fatalf("item %d ran %d times, want 1", i, got)
		}
	}
}

func TestWorkerPool_ExecuteAll_DisjointRows(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	const rows, width = 100, 64
	buf := make([]byte, rows*width)
	var work []func()
	for _, b := range SplitRows(rows, 4, pool.Workers()) {
		work = append(work, func() {
			for y := b.Start; y < b.End; y++ {
				for x := range width {
					buf[y*width+x] = byte(y)
				}
			}
		})
	}
	pool.ExecuteAll(work)

	for y := range rows {
		for x := range width {
			if buf[y*width+x] != byte(y) {
				t.Fatalf("buf[%d][%d] = %d, want %d", y, x, buf[y*width+x], y)
			}
		}
	}
}

func TestWorkerPool_ExecuteAll_Concurrent(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 50)
			for i := range work {
				work[i] = func() { counter.Add(1) }
			}
			pool.ExecuteAll(work)
		}()
	}
	wg.Wait()

	if counter.Load() != 400 {
		t.Errorf("counter = %d, want 400", counter.Load())
	}
}

func TestWorkerPool_WorkStealing(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	// Round-robin puts every slow item on worker 0's queue; the others must
	// steal to finish in time.
	work := make([]func(), 16)
	for i := range work {
		if i%4 == 0 {
			work[i] = func() { time.Sleep(20 * time.Millisecond) }
		} else {
			work[i] = func() {}
		}
	}

	done := make(chan struct{})
	go func() {
		pool.ExecuteAll(work)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ExecuteAll did not complete")
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestWorkerPool_Close(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}

	// Second close must not panic.
	pool.Close()
}

func TestWorkerPool_ExecuteAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	var counter atomic.Int64
	work := make([]func(), 10)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)

	if counter.Load() != 10 {
		t.Errorf("counter = %d after Close, want 10", counter.Load())
	}
}

func TestWorkerPool_CloseDuringExecuteAll(t *testing.T) {
	for range 50 {
		pool := NewWorkerPool(2)

		var counter atomic.Int64
		work := make([]func(), 200)
		for i := range work {
			work[i] = func() { counter.Add(1) }
		}

		var wg sync.WaitGroup
		wg.Add(4)
		for range 3 {
			go func() {
				defer wg.Done()
				pool.ExecuteAll(work)
			}()
		}
		go func() {
			defer wg.Done()
			pool.Close()
		}()

		finished := make(chan struct{})
		go func() {
			wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(10 * time.Second):
			t.Fatal("ExecuteAll did not return after a concurrent Close")
		}
		if got := counter.Load(); got != 600 {
			t.Fatalf("counter = %d, want 600", got)
		}
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkWorkerPool_ExecuteAll(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	work := make([]func(), 64)
	for i := range work {
		work[i] = func() {}
	}

	b.ReportAllocs()
	for b.Loop() {
		pool.ExecuteAll(work)
	}
}
