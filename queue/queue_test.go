package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeEngine struct {
	volume float64
	sets   int
}

func (e *fakeEngine) setVolume(v float64) Func {
	return func() error {
		e.volume = v
		e.sets++
		return nil
	}
}

func TestLastWriteWins(t *testing.T) {
	q := New()
	engine := new(fakeEngine)

	q.Queue("volume", engine.setVolume(0.53))
	q.Queue("volume", engine.setVolume(0.2))

	if got := q.Size(); got != 1 {
		t.Errorf("Size(): got %d; want 1", got)
	}
	if engine.sets != 0 {
		t.Fatal("requests must not run before Start")
	}

	q.Start()

	if engine.sets != 1 || engine.volume != 0.2 {
		t.Errorf("volume set %d times to %v; want once to 0.2", engine.sets, engine.volume)
	}
	if got := q.Size(); got != 0 {
		t.Errorf("Size() after Start: got %d; want 0", got)
	}
}

func TestFlushOrder(t *testing.T) {
	q := New()

	var order []Key
	record := func(k Key) Func {
		return func() error {
			order = append(order, k)
			return nil
		}
	}

	q.Queue("paused", record("paused"))
	q.Queue("volume", record("volume"))
	q.Queue("currentTime", record("currentTime"))
	q.Queue("paused", record("paused"))

	if keys := q.Keys(); len(keys) != 3 || keys[0] != "paused" {
		t.Errorf("Keys(): got %v", keys)
	}

	q.Flush()

	want := []Key{"paused", "volume", "currentTime"}
	if len(order) != len(want) {
		t.Fatalf("got %v; want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("flush %d: got %s; want %s", i, order[i], want[i])
		}
	}

	if q.IsServing() {
		t.Error("Flush must not start serving")
	}
}

func TestServingRunsImmediately(t *testing.T) {
	q := New()
	q.Start()

	ran := false
	q.Queue("paused", func() error {
		ran = true
		return nil
	})
	if !ran || q.Size() != 0 {
		t.Error("serving queue should run requests synchronously")
	}

	q.Stop()
	ran = false
	q.Queue("paused", func() error {
		ran = true
		return nil
	})
	if ran || q.Size() != 1 {
		t.Error("stopped queue should buffer requests")
	}
}

func TestServe(t *testing.T) {
	q := New()
	n := 0
	q.Queue("muted", func() error {
		n++
		return nil
	})

	q.Serve("volume")
	q.Serve("muted")
	q.Serve("muted")

	if n != 1 || q.Size() != 0 {
		t.Errorf("request ran %d times, %d pending; want 1 and 0", n, q.Size())
	}
}

func TestErrorsDoNotAbortFlush(t *testing.T) {
	var failed []Key
	q := New(WithName("test"), WithErrorHandler(func(k Key, err error) {
		failed = append(failed, k)
	}))

	ran := 0
	q.Queue("a", func() error { return errors.New("autoplay blocked") })
	q.Queue("b", func() error { panic("engine gone") })
	q.Queue("c", func() error {
		ran++
		return nil
	})

	q.Flush()

	if ran != 1 {
		t.Error("request after failures should still run")
	}
	if len(failed) != 2 || failed[0] != "a" || failed[1] != "b" {
		t.Errorf("failed: got %v; want [a b]", failed)
	}
}

func TestDestroyDropsRequests(t *testing.T) {
	q := New()
	ran := false
	q.Queue("paused", func() error {
		ran = true
		return nil
	})

	q.Start()
	q.Queue("volume", func() error { return nil })
	q.Destroy()

	if q.IsServing() || q.Size() != 0 {
		t.Error("destroyed queue should be stopped and empty")
	}

	ran = false
	q.Queue("paused", func() error {
		ran = true
		return nil
	})
	q.Reset()
	q.Flush()
	if ran {
		t.Error("reset must drop pending requests without running them")
	}
}

func TestWaitForFlush(t *testing.T) {
	q := New()
	q.Flush()

	done := make(chan error, 1)
	go func() {
		done <- q.WaitForFlush(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("WaitForFlush returned for a flush that happened before the call")
	case <-time.After(20 * time.Millisecond):
	}

	q.Start()
	waitReleased(t, done, nil, q.Flush)
}

// waitReleased waits for done to deliver want, calling release again
// whenever the waiter may have missed an earlier release.
func waitReleased(t *testing.T, done <-chan error, want error, release func()) {
	t.Helper()

	deadline := time.After(time.Second)
	for {
		select {
		case err := <-done:
			if err != want {
				t.Errorf("WaitForFlush(): got %v; want %v", err, want)
			}
			return
		case <-time.After(5 * time.Millisecond):
			release()
		case <-deadline:
			t.Fatal("WaitForFlush was not released")
		}
	}
}

func TestWaitForFlushReleasedByReset(t *testing.T) {
	q := New()

	done := make(chan error, 1)
	go func() {
		done <- q.WaitForFlush(context.Background())
	}()

	waitReleased(t, done, ErrQueueReset, q.Destroy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.WaitForFlush(ctx); err != context.Canceled {
		t.Errorf("cancelled wait: got %v; want %v", err, context.Canceled)
	}
}

func TestQueueDuringFlushRunsImmediatelyAfterStart(t *testing.T) {
	q := New()

	inner := false
	q.Queue("paused", func() error {
		q.Queue("volume", func() error {
			inner = true
			return nil
		})
		return nil
	})

	q.Start()

	if !inner {
		t.Error("request queued by a request during Start should run")
	}
	if q.Size() != 0 {
		t.Errorf("Size(): got %d; want 0", q.Size())
	}
}
