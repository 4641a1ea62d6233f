package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/greengate/backoffice/internal/platform/config"
	"github.com/greengate/backoffice/internal/repositories"
	"github.com/greengate/backoffice/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Counters      services.CounterService
	Orders        services.OrderService
	PreOrders     services.PreOrderService
	Expenses      services.ExpenseService
	Notifications services.NotificationService
	Templates     services.TemplateService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations; tests can supply in-memory registries and publishers.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, mail services.MailPublisher) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}
	if mail == nil {
		return nil, errors.New("mail publisher is required")
	}

	svc, err := buildServices(reg, mail)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, mail services.MailPublisher) (Services, error) {
	var svc Services

	counterSvc, err := services.NewCounterService(services.CounterServiceDeps{
		Repository: reg.Counters(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build counter service: %w", err)
	}
	svc.Counters = counterSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:   reg.Orders(),
		Counters: counterSvc,
		Clock:    time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	preOrderSvc, err := services.NewPreOrderService(services.PreOrderServiceDeps{
		PreOrders: reg.PreOrders(),
		Products:  reg.Products(),
		Orders:    orderSvc,
		Counters:  counterSvc,
		Clock:     time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build preorder service: %w", err)
	}
	svc.PreOrders = preOrderSvc

	expenseSvc, err := services.NewExpenseService(services.ExpenseServiceDeps{
		Expenses: reg.Expenses(),
		Clock:    time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build expense service: %w", err)
	}
	svc.Expenses = expenseSvc

	notificationSvc, err := services.NewNotificationService(services.NotificationServiceDeps{
		Notifications: reg.Notifications(),
		Clock:         time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build notification service: %w", err)
	}
	svc.Notifications = notificationSvc

	templateSvc, err := services.NewTemplateService(services.TemplateServiceDeps{
		Templates: reg.Templates(),
		Mail:      mail,
		Clock:     time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build template service: %w", err)
	}
	svc.Templates = templateSvc

	return svc, nil
}
