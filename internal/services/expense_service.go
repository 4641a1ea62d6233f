package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/repositories"
)

var (
	// ErrExpenseInvalidInput signals the caller provided invalid data.
	ErrExpenseInvalidInput = errors.New("expense: invalid input")
	// ErrExpenseNotFound indicates the expense could not be located.
	ErrExpenseNotFound = errors.New("expense: not found")
)

// ExpenseServiceDeps bundles collaborators required to construct the expense service.
type ExpenseServiceDeps struct {
	Expenses    repositories.ExpenseRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type expenseService struct {
	expenses repositories.ExpenseRepository
	clock    func() time.Time
	newID    func() string
}

// NewExpenseService wires dependencies into a concrete ExpenseService implementation.
func NewExpenseService(deps ExpenseServiceDeps) (ExpenseService, error) {
	if deps.Expenses == nil {
		return nil, errors.New("expense service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}

	return &expenseService{
		expenses: deps.Expenses,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *expenseService) Create(ctx context.Context, cmd CreateExpenseCommand) (domain.Expense, error) {
	storeID := strings.TrimSpace(cmd.Store.ID)
	if storeID == "" {
		return domain.Expense{}, fmt.Errorf("%w: store is required", ErrExpenseInvalidInput)
	}
	category := strings.TrimSpace(cmd.Category)
	if category == "" {
		return domain.Expense{}, fmt.Errorf("%w: category is required", ErrExpenseInvalidInput)
	}
	if cmd.Amount <= 0 {
		return domain.Expense{}, fmt.Errorf("%w: amount must be positive", ErrExpenseInvalidInput)
	}

	now := s.clock()
	incurredAt := cmd.IncurredAt.UTC()
	if cmd.IncurredAt.IsZero() {
		incurredAt = now
	}

	expense := domain.Expense{
		ID:         "exp_" + s.newID(),
		StoreID:    storeID,
		Category:   category,
		Amount:     cmd.Amount,
		Note:       strings.TrimSpace(cmd.Note),
		IncurredAt: incurredAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.expenses.Insert(ctx, expense); err != nil {
		return domain.Expense{}, s.mapRepositoryError(err)
	}
	return expense, nil
}

func (s *expenseService) Update(ctx context.Context, cmd UpdateExpenseCommand) (domain.Expense, error) {
	expenseID := strings.TrimSpace(cmd.ExpenseID)
	if expenseID == "" {
		return domain.Expense{}, fmt.Errorf("%w: expense id is required", ErrExpenseInvalidInput)
	}

	expense, err := s.expenses.FindByID(ctx, expenseID)
	if err != nil {
		return domain.Expense{}, s.mapRepositoryError(err)
	}

	if category := strings.TrimSpace(cmd.Category); category != "" {
		expense.Category = category
	}
	if cmd.Amount != nil {
		if *cmd.Amount <= 0 {
			return domain.Expense{}, fmt.Errorf("%w: amount must be positive", ErrExpenseInvalidInput)
		}
		expense.Amount = *cmd.Amount
	}
	if cmd.Note != nil {
		expense.Note = strings.TrimSpace(*cmd.Note)
	}
	if cmd.IncurredAt != nil && !cmd.IncurredAt.IsZero() {
		expense.IncurredAt = cmd.IncurredAt.UTC()
	}
	expense.UpdatedAt = s.clock()

	if err := s.expenses.Update(ctx, expense); err != nil {
		return domain.Expense{}, s.mapRepositoryError(err)
	}
	return expense, nil
}

func (s *expenseService) Delete(ctx context.Context, expenseID string) error {
	expenseID = strings.TrimSpace(expenseID)
	if expenseID == "" {
		return fmt.Errorf("%w: expense id is required", ErrExpenseInvalidInput)
	}
	if err := s.expenses.Delete(ctx, expenseID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *expenseService) Get(ctx context.Context, expenseID string) (domain.Expense, error) {
	expenseID = strings.TrimSpace(expenseID)
	if expenseID == "" {
		return domain.Expense{}, fmt.Errorf("%w: expense id is required", ErrExpenseInvalidInput)
	}
	expense, err := s.expenses.FindByID(ctx, expenseID)
	if err != nil {
		return domain.Expense{}, s.mapRepositoryError(err)
	}
	return expense, nil
}

func (s *expenseService) List(ctx context.Context, filter repositories.ExpenseListFilter) (domain.Page[domain.Expense], error) {
	page, err := s.expenses.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Expense]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// Summary groups a store's expenses by category over the optional date range.
// Sums run on decimals so category totals stay exact regardless of how many
// records accumulate.
func (s *expenseService) Summary(ctx context.Context, storeID string, from, to *time.Time) (ExpenseSummary, error) {
	storeID = strings.TrimSpace(storeID)

	expenses, err := s.expenses.ListInRange(ctx, storeID, from, to)
	if err != nil {
		return ExpenseSummary{}, s.mapRepositoryError(err)
	}

	totals := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	grand := decimal.Zero

	for _, expense := range expenses {
		amount := decimal.NewFromFloat(expense.Amount)
		totals[expense.Category] = totals[expense.Category].Add(amount)
		counts[expense.Category]++
		grand = grand.Add(amount)
	}

	categories := make([]ExpenseCategorySummary, 0, len(totals))
	for category, total := range totals {
		categories = append(categories, ExpenseCategorySummary{
			Category: category,
			Count:    counts[category],
			Total:    total.InexactFloat64(),
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})

	return ExpenseSummary{
		StoreID:    storeID,
		From:       from,
		To:         to,
		Count:      len(expenses),
		GrandTotal: grand.InexactFloat64(),
		Categories: categories,
	}, nil
}

func (s *expenseService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrExpenseNotFound, err)
	}
	return err
}
