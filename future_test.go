package tindak

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFutureCompletesOnce(t *testing.T) {
	f := newFuture[string]()
	f.complete("first", nil)
	f.complete("second", errors.New("late"))

	value, err := f.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "first" {
		t.Errorf("Expected first completion to win, got %q", value)
	}
}

func TestFutureGetRespectsContext(t *testing.T) {
	f := newFuture[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error for pending future, got %v", err)
	}
}

func TestFutureTryGet(t *testing.T) {
	f := newFuture[int]()
	if _, _, ok := f.TryGet(); ok {
		t.Error("Expected pending future to report not ok")
	}

	f.complete(7, nil)
	value, err, ok := f.TryGet()
	if !ok || err != nil || value != 7 {
		t.Errorf("TryGet = (%d, %v, %v), want (7, nil, true)", value, err, ok)
	}
}

func TestFutureDoneChannel(t *testing.T) {
	f := newFuture[int]()
	select {
	case <-f.Done():
		t.Fatal("Done closed before completion")
	default:
	}

	f.complete(1, nil)
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("Done never closed")
	}
}
