package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/greengate/backoffice/internal/repositories"
)

type stubCounterRepository struct {
	mu     sync.Mutex
	nextFn func(context.Context, string) (int64, error)
	calls  []string
}

func (s *stubCounterRepository) Next(ctx context.Context, counterID string) (int64, error) {
	s.mu.Lock()
	s.calls = append(s.calls, counterID)
	s.mu.Unlock()
	if s.nextFn != nil {
		return s.nextFn(ctx, counterID)
	}
	return 0, nil
}

func TestCounterServiceNextPreOrderNumber(t *testing.T) {
	repo := &stubCounterRepository{}
	repo.nextFn = func(context.Context, string) (int64, error) {
		return 42, nil
	}

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	number, err := svc.NextPreOrderNumber(context.Background())
	if err != nil {
		t.Fatalf("next pre-order number: %v", err)
	}
	if number != "PO-00042" {
		t.Fatalf("expected PO-00042, got %s", number)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.calls) != 1 || repo.calls[0] != "preOrder" {
		t.Fatalf("expected one call for preOrder counter, got %v", repo.calls)
	}
}

func TestCounterServiceNumberWidensBeyondPad(t *testing.T) {
	repo := &stubCounterRepository{}
	repo.nextFn = func(context.Context, string) (int64, error) {
		return 123456, nil
	}

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	number, err := svc.NextPreOrderNumber(context.Background())
	if err != nil {
		t.Fatalf("next pre-order number: %v", err)
	}
	if number != "PO-123456" {
		t.Fatalf("expected PO-123456, got %s", number)
	}
}

func TestCounterServiceNextOrderNumber(t *testing.T) {
	repo := &stubCounterRepository{}
	repo.nextFn = func(context.Context, string) (int64, error) {
		return 7, nil
	}

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	number, err := svc.NextOrderNumber(context.Background())
	if err != nil {
		t.Fatalf("next order number: %v", err)
	}
	if number != "ORD-000007" {
		t.Fatalf("expected ORD-000007, got %s", number)
	}
}

func TestCounterServiceWrapsRepositoryErrors(t *testing.T) {
	repo := &stubCounterRepository{}
	repo.nextFn = func(context.Context, string) (int64, error) {
		return 0, repositories.NewCounterError(repositories.CounterErrorUnavailable, "transaction aborted", nil)
	}

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	if _, err := svc.NextPreOrderNumber(context.Background()); !errors.Is(err, ErrCounterUnavailable) {
		t.Fatalf("expected ErrCounterUnavailable, got %v", err)
	}
}
