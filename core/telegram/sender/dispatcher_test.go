package sender

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 8, Workers: 1})
	defer d.Close()

	var ran atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		ran.Add(1)
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	if ran.Load() != 1 {
		t.Fatalf("ran = %d", ran.Load())
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})
	defer d.Close()

	block := make(chan struct{})
	release := make(chan struct{})
	_ = d.Enqueue(context.Background(), "a", "", func() error {
		close(block)
		<-release
		return nil
	})
	<-block

	// Worker is busy; fill the single queue slot, then expect ErrQueueFull.
	_ = d.Enqueue(context.Background(), "b", "", func() error { return nil })
	err := d.Enqueue(context.Background(), "c", "", func() error { return nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	close(release)
}

func TestDispatcherClosedQueue(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 1, Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "a", "", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(Options{QueueSize: 4, Workers: 1, MaxRetries: 0})
	done := make(chan struct{})
	_ = d.Enqueue(context.Background(), "a", "", func() error {
		defer close(done)
		return errors.New("permanent")
	})
	<-done
	d.Close()
	if got := d.ErrorCount(); got != 1 {
		t.Fatalf("ErrorCount = %d, want 1", got)
	}
}
