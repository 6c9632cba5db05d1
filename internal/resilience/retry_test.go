package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoll_SucceedsImmediately(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 3, func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 probe, got %d", calls)
	}
}

func TestPoll_SucceedsAfterPending(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 5, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 probes, got %d", calls)
	}
}

func TestPoll_BudgetExhausted(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 4, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected exactly 4 probes, got %d", calls)
	}
}

func TestPoll_TerminalFailureStopsEarly(t *testing.T) {
	terminal := errors.New("asset failed")
	calls := 0
	err := Poll(context.Background(), time.Millisecond, 10, func(ctx context.Context) (bool, error) {
		calls++
		return true, terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 probe, got %d", calls)
	}
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Poll(ctx, time.Hour, 10, func(ctx context.Context) (bool, error) {
		calls++
		cancel() // cancel while waiting for the next attempt
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 probe before cancellation, got %d", calls)
	}
}

func TestPoll_InvalidBudget(t *testing.T) {
	err := Poll(context.Background(), time.Millisecond, 0, func(ctx context.Context) (bool, error) {
		t.Fatal("cond must not be called")
		return false, nil
	})
	if err == nil {
		t.Fatal("expected error for non-positive maxAttempts")
	}
}
