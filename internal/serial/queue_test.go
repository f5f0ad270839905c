package serial

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/prodcon/internal/errors"
	"github.com/Iron-Ham/prodcon/internal/logging"
)

func TestQueue_RunsInPostingOrder(t *testing.T) {
	q := New(nil)
	defer q.Close()

	var got []int
	for i := range 100 {
		if err := q.Post(func() { got = append(got, i) }); err != nil {
			t.Fatalf("Post failed: %v", err)
		}
	}
	if err := q.Sync(func() {}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if len(got) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestQueue_NeverRunsTasksConcurrently(t *testing.T) {
	q := New(nil)
	defer q.Close()

	var inFlight, maxInFlight atomic.Int32
	var wg conc.WaitGroup
	for range 16 {
		wg.Go(func() {
			for range 200 {
				_ = q.Post(func() {
					n := inFlight.Add(1)
					if n > maxInFlight.Load() {
						maxInFlight.Store(n)
					}
					inFlight.Add(-1)
				})
			}
		})
	}
	wg.Wait()
	_ = q.Sync(func() {})

	if maxInFlight.Load() != 1 {
		t.Errorf("max concurrent tasks = %d, want 1", maxInFlight.Load())
	}
	if got := q.Processed(); got != 16*200+1 {
		t.Errorf("Processed() = %d, want %d", got, 16*200+1)
	}
}

func TestQueue_UnsynchronizedStateIsConsistent(t *testing.T) {
	q := New(nil)
	defer q.Close()

	// count is only touched from inside the queue, so no lock is needed.
	count := 0
	var wg conc.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 500 {
				_ = q.Post(func() { count++ })
				_ = q.Post(func() {
					if count > 0 {
						count--
					}
				})
			}
		})
	}
	wg.Wait()

	var final int
	_ = q.Sync(func() { final = count })
	if final < 0 {
		t.Fatalf("count went negative: %d", final)
	}
}

func TestQueue_CloseDrainsPending(t *testing.T) {
	q := New(nil)

	var ran atomic.Int32
	for range 50 {
		_ = q.Post(func() { ran.Add(1) })
	}
	q.Close()

	if ran.Load() != 50 {
		t.Errorf("ran %d tasks before Close returned, want 50", ran.Load())
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", q.Len())
	}
}

func TestQueue_PostAfterClose(t *testing.T) {
	q := New(nil)
	q.Close()
	q.Close()

	if err := q.Post(func() {}); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("Post after Close = %v, want ErrClosed", err)
	}
	if err := q.Sync(func() {}); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("Sync after Close = %v, want ErrClosed", err)
	}
}

func TestQueue_PanicDoesNotStopWorker(t *testing.T) {
	var buf bytes.Buffer
	q := New(logging.NewWriterLogger(&buf, logging.LevelError))
	defer q.Close()

	_ = q.Post(func() { panic("bad task") })

	ran := false
	if err := q.Sync(func() { ran = true }); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !ran {
		t.Error("task after a panicking task did not run")
	}
	if !strings.Contains(buf.String(), "serial task panicked") {
		t.Errorf("panic was not logged: %s", buf.String())
	}
}
