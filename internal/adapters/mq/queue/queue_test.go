package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func job(name string, ran *atomic.Int32) Job {
	return Job{Name: name, Run: func(context.Context) { ran.Add(1) }}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()
	var ran atomic.Int32

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, job("rebuild", &ran)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	j := <-q.Dequeue(ctx)
	if j.Name != "rebuild" {
		t.Errorf("expected rebuild, got %v", j.Name)
	}
	j.Run(ctx)
	if ran.Load() != 1 {
		t.Errorf("expected job to run once, ran %d", ran.Load())
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()
	var ran atomic.Int32

	if !q.Enqueue(ctx, job("a", &ran)) || !q.Enqueue(ctx, job("b", &ran)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, job("c", &ran)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Int32

	if q.Enqueue(ctx, job("late", &ran)) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_Concurrency(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(8))
	ctx := context.Background()
	const producers, perProducer = 4, 50
	var ran atomic.Int32

	var consumers sync.WaitGroup
	for i := 0; i < 2; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for j := range q.Dequeue(ctx) {
				j.Run(ctx)
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < perProducer; n++ {
				for !q.Enqueue(ctx, job("x", &ran)) {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	consumers.Wait()

	if got := ran.Load(); got != producers*perProducer {
		t.Errorf("expected %d jobs to run, got %d", producers*perProducer, got)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()
	var ran atomic.Int32

	if !q.Enqueue(ctx, job("a", &ran)) {
		t.Error("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, job("b", &ran)) {
		t.Error("expected enqueue to fail after closing")
	}

	// queued jobs stay receivable after close
	var got []Job
	for j := range q.Dequeue(ctx) {
		got = append(got, j)
	}
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("expected the queued job to drain, got %d", len(got))
	}

	var dropped error
	Job{Cancel: func(err error) { dropped = err }}.Drop(ErrClosed)
	if !errors.Is(dropped, ErrClosed) {
		t.Errorf("expected Drop to pass the error through, got %v", dropped)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
