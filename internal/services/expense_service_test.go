package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/repositories"
)

type stubExpenseRepository struct {
	mu          sync.Mutex
	insertFn    func(context.Context, domain.Expense) error
	updateFn    func(context.Context, domain.Expense) error
	deleteFn    func(context.Context, string) error
	findFn      func(context.Context, string) (domain.Expense, error)
	listFn      func(context.Context, repositories.ExpenseListFilter) (domain.Page[domain.Expense], error)
	listRangeFn func(context.Context, string, *time.Time, *time.Time) ([]domain.Expense, error)
	inserted    []domain.Expense
	updated     []domain.Expense
}

func (s *stubExpenseRepository) Insert(ctx context.Context, expense domain.Expense) error {
	s.mu.Lock()
	s.inserted = append(s.inserted, expense)
	s.mu.Unlock()
	if s.insertFn != nil {
		return s.insertFn(ctx, expense)
	}
	return nil
}

func (s *stubExpenseRepository) Update(ctx context.Context, expense domain.Expense) error {
	s.mu.Lock()
	s.updated = append(s.updated, expense)
	s.mu.Unlock()
	if s.updateFn != nil {
		return s.updateFn(ctx, expense)
	}
	return nil
}

func (s *stubExpenseRepository) Delete(ctx context.Context, expenseID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, expenseID)
	}
	return nil
}

func (s *stubExpenseRepository) FindByID(ctx context.Context, expenseID string) (domain.Expense, error) {
	if s.findFn != nil {
		return s.findFn(ctx, expenseID)
	}
	return domain.Expense{}, &stubRepoError{notFound: true}
}

func (s *stubExpenseRepository) List(ctx context.Context, filter repositories.ExpenseListFilter) (domain.Page[domain.Expense], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.Page[domain.Expense]{}, nil
}

func (s *stubExpenseRepository) ListInRange(ctx context.Context, storeID string, from, to *time.Time) ([]domain.Expense, error) {
	if s.listRangeFn != nil {
		return s.listRangeFn(ctx, storeID, from, to)
	}
	return nil, nil
}

func TestExpenseServiceCreate(t *testing.T) {
	repo := &stubExpenseRepository{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewExpenseService(ExpenseServiceDeps{
		Expenses:    repo,
		Clock:       func() time.Time { return now },
		IDGenerator: func() string { return "TEST" },
	})
	if err != nil {
		t.Fatalf("new expense service: %v", err)
	}

	expense, err := svc.Create(context.Background(), CreateExpenseCommand{
		Store:    domain.StoreRef{ID: "store-1"},
		Category: "Fuel",
		Amount:   45.50,
		Note:     " weekly refill ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if expense.ID != "exp_TEST" {
		t.Fatalf("expected id exp_TEST, got %s", expense.ID)
	}
	if expense.Note != "weekly refill" {
		t.Fatalf("expected trimmed note, got %q", expense.Note)
	}
	if !expense.IncurredAt.Equal(now) {
		t.Fatalf("expected incurredAt defaulted to now, got %v", expense.IncurredAt)
	}
}

func TestExpenseServiceCreateValidation(t *testing.T) {
	repo := &stubExpenseRepository{}
	svc, err := NewExpenseService(ExpenseServiceDeps{Expenses: repo})
	if err != nil {
		t.Fatalf("new expense service: %v", err)
	}

	cases := []struct {
		name string
		cmd  CreateExpenseCommand
	}{
		{"missing store", CreateExpenseCommand{Category: "Fuel", Amount: 10}},
		{"missing category", CreateExpenseCommand{Store: domain.StoreRef{ID: "store-1"}, Amount: 10}},
		{"non-positive amount", CreateExpenseCommand{Store: domain.StoreRef{ID: "store-1"}, Category: "Fuel"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.cmd); !errors.Is(err, ErrExpenseInvalidInput) {
				t.Fatalf("expected ErrExpenseInvalidInput, got %v", err)
			}
		})
	}
}

func TestExpenseServiceSummaryGroupsByCategory(t *testing.T) {
	repo := &stubExpenseRepository{}
	repo.listRangeFn = func(_ context.Context, storeID string, _, _ *time.Time) ([]domain.Expense, error) {
		if storeID != "store-1" {
			t.Fatalf("expected store-1, got %s", storeID)
		}
		return []domain.Expense{
			{Category: "Fuel", Amount: 10.10},
			{Category: "Fuel", Amount: 20.20},
			{Category: "Maintenance", Amount: 99.95},
		}, nil
	}

	svc, err := NewExpenseService(ExpenseServiceDeps{Expenses: repo})
	if err != nil {
		t.Fatalf("new expense service: %v", err)
	}

	summary, err := svc.Summary(context.Background(), "store-1", nil, nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if summary.Count != 3 {
		t.Fatalf("expected 3 expenses, got %d", summary.Count)
	}
	if summary.GrandTotal != 130.25 {
		t.Fatalf("expected grand total 130.25, got %v", summary.GrandTotal)
	}
	if len(summary.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(summary.Categories))
	}

	// Sorted by category name.
	if summary.Categories[0].Category != "Fuel" || summary.Categories[1].Category != "Maintenance" {
		t.Fatalf("unexpected category order: %+v", summary.Categories)
	}
	if summary.Categories[0].Count != 2 || summary.Categories[0].Total != 30.30 {
		t.Fatalf("unexpected fuel summary: %+v", summary.Categories[0])
	}
	if summary.Categories[1].Count != 1 || summary.Categories[1].Total != 99.95 {
		t.Fatalf("unexpected maintenance summary: %+v", summary.Categories[1])
	}
}

func TestExpenseServiceUpdateNotFound(t *testing.T) {
	repo := &stubExpenseRepository{}
	svc, err := NewExpenseService(ExpenseServiceDeps{Expenses: repo})
	if err != nil {
		t.Fatalf("new expense service: %v", err)
	}

	amount := 12.0
	_, err = svc.Update(context.Background(), UpdateExpenseCommand{ExpenseID: "exp_missing", Amount: &amount})
	if !errors.Is(err, ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
}
