package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/greengate/backoffice/internal/platform/firestore"
	"github.com/greengate/backoffice/internal/repositories"
)

// Registry bundles every Firestore repository over a shared provider.
type Registry struct {
	provider      *pfirestore.Provider
	preOrders     *PreOrderRepository
	orders        *OrderRepository
	products      *ProductRepository
	counters      *CounterRepository
	expenses      *ExpenseRepository
	notifications *NotificationRepository
	templates     *TemplateRepository
}

// NewRegistry constructs the full repository set on top of the provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	preOrders, err := NewPreOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}
	expenses, err := NewExpenseRepository(provider)
	if err != nil {
		return nil, err
	}
	notifications, err := NewNotificationRepository(provider)
	if err != nil {
		return nil, err
	}
	templates, err := NewTemplateRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:      provider,
		preOrders:     preOrders,
		orders:        orders,
		products:      products,
		counters:      counters,
		expenses:      expenses,
		notifications: notifications,
		templates:     templates,
	}, nil
}

// PreOrders returns the pre-order repository.
func (r *Registry) PreOrders() repositories.PreOrderRepository { return r.preOrders }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Products returns the product repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Counters returns the counter repository.
func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

// Expenses returns the expense repository.
func (r *Registry) Expenses() repositories.ExpenseRepository { return r.expenses }

// Notifications returns the notification repository.
func (r *Registry) Notifications() repositories.NotificationRepository { return r.notifications }

// Templates returns the price-list template repository.
func (r *Registry) Templates() repositories.TemplateRepository { return r.templates }

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close()
}
