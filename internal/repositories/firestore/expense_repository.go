package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/greengate/backoffice/internal/domain"
	pfirestore "github.com/greengate/backoffice/internal/platform/firestore"
	"github.com/greengate/backoffice/internal/repositories"
)

const expensesCollection = "expenses"

// ExpenseRepository implements repositories.ExpenseRepository backed by Firestore.
type ExpenseRepository struct {
	expenses *pfirestore.BaseRepository[domain.Expense]
}

// NewExpenseRepository constructs a Firestore-backed expense repository.
func NewExpenseRepository(provider *pfirestore.Provider) (*ExpenseRepository, error) {
	if provider == nil {
		return nil, errors.New("expense repository requires firestore provider")
	}
	return &ExpenseRepository{
		expenses: pfirestore.NewBaseRepository[domain.Expense](provider, expensesCollection),
	}, nil
}

// Insert creates the expense document.
func (r *ExpenseRepository) Insert(ctx context.Context, expense domain.Expense) error {
	if strings.TrimSpace(expense.ID) == "" {
		return errors.New("expense insert: id is required")
	}
	_, err := r.expenses.Create(ctx, expense.ID, expense)
	return err
}

// Update overwrites the expense document.
func (r *ExpenseRepository) Update(ctx context.Context, expense domain.Expense) error {
	if strings.TrimSpace(expense.ID) == "" {
		return errors.New("expense update: id is required")
	}
	_, err := r.expenses.Set(ctx, expense.ID, expense)
	return err
}

// Delete removes the expense document.
func (r *ExpenseRepository) Delete(ctx context.Context, expenseID string) error {
	return r.expenses.Delete(ctx, expenseID)
}

// FindByID fetches an expense by document id.
func (r *ExpenseRepository) FindByID(ctx context.Context, expenseID string) (domain.Expense, error) {
	doc, err := r.expenses.Get(ctx, expenseID)
	if err != nil {
		return domain.Expense{}, err
	}
	expense := doc.Data
	expense.ID = doc.ID
	return expense, nil
}

// List returns expenses matching the filter, newest first.
func (r *ExpenseRepository) List(ctx context.Context, filter repositories.ExpenseListFilter) (domain.Page[domain.Expense], error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	docs, err := r.expenses.Query(ctx, func(query firestore.Query) firestore.Query {
		query = applyExpenseFilters(query, filter.StoreID, filter.From, filter.To)
		if category := strings.TrimSpace(filter.Category); category != "" {
			query = query.Where("category", "==", category)
		}
		query = query.OrderBy("incurredAt", firestore.Desc)
		if offset := filter.Offset(); offset > 0 {
			query = query.Offset(offset)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.Page[domain.Expense]{}, err
	}

	page := domain.Page[domain.Expense]{Items: make([]domain.Expense, 0, len(docs))}
	for i, doc := range docs {
		if i == pageSize {
			next := filter.Page + 1
			if filter.Page <= 0 {
				next = 2
			}
			page.NextPage = &next
			break
		}
		expense := doc.Data
		expense.ID = doc.ID
		page.Items = append(page.Items, expense)
	}
	return page, nil
}

// ListInRange returns every expense for the store within the optional range,
// unpaginated, for summary aggregation.
func (r *ExpenseRepository) ListInRange(ctx context.Context, storeID string, from, to *time.Time) ([]domain.Expense, error) {
	docs, err := r.expenses.Query(ctx, func(query firestore.Query) firestore.Query {
		return applyExpenseFilters(query, storeID, from, to)
	})
	if err != nil {
		return nil, err
	}
	expenses := make([]domain.Expense, 0, len(docs))
	for _, doc := range docs {
		expense := doc.Data
		expense.ID = doc.ID
		expenses = append(expenses, expense)
	}
	return expenses, nil
}

func applyExpenseFilters(query firestore.Query, storeID string, from, to *time.Time) firestore.Query {
	if trimmed := strings.TrimSpace(storeID); trimmed != "" {
		query = query.Where("storeId", "==", trimmed)
	}
	if from != nil {
		query = query.Where("incurredAt", ">=", from.UTC())
	}
	if to != nil {
		query = query.Where("incurredAt", "<", to.UTC())
	}
	return query
}
