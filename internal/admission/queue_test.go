package admission

import (
	"testing"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/pkg/metrics"
)

func TestQueue_AcquireRelease(t *testing.T) {
	q := New(metrics.New(), 1)
	release, err := q.Acquire(t.Context(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected len 1, got %d", q.Len())
	}
	release()
	if q.Len() != 0 {
		t.Fatalf("expected len 0 after release, got %d", q.Len())
	}
}

func TestQueue_TimesOutWhenFull(t *testing.T) {
	q := New(metrics.New(), 1)
	release, err := q.Acquire(t.Context(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	_, err = q.Acquire(t.Context(), 50*time.Millisecond)
	if err != ErrTooManyRequests {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}
}

func TestQueue_ReleaseIsIdempotent(t *testing.T) {
	q := New(metrics.New(), 2)
	release, err := q.Acquire(t.Context(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
	release()
	if q.Len() != 0 {
		t.Fatalf("expected len 0, got %d", q.Len())
	}
}
