package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/greengate/backoffice/internal/repositories"
)

const (
	preOrderCounterID = "preOrder"
	orderCounterID    = "order"
)

// ErrCounterUnavailable indicates the sequence value could not be allocated.
// Callers must not create the dependent record when this is returned.
var ErrCounterUnavailable = errors.New("counter: unavailable")

// CounterServiceDeps bundles collaborators required to construct a counter service instance.
type CounterServiceDeps struct {
	Repository repositories.CounterRepository
}

type counterService struct {
	repo repositories.CounterRepository
}

// NewCounterService constructs a service that formats sequence numbers on top of the repository.
func NewCounterService(deps CounterServiceDeps) (CounterService, error) {
	if deps.Repository == nil {
		return nil, errors.New("counter service: repository is required")
	}
	return &counterService{repo: deps.Repository}, nil
}

// NextPreOrderNumber allocates the next pre-order number, PO- followed by the
// zero-padded sequence. The pad widens on its own once the counter outgrows
// five digits.
func (s *counterService) NextPreOrderNumber(ctx context.Context) (string, error) {
	value, err := s.repo.Next(ctx, preOrderCounterID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}
	return fmt.Sprintf("PO-%05d", value), nil
}

// NextOrderNumber allocates the next committed-order number.
func (s *counterService) NextOrderNumber(ctx context.Context) (string, error) {
	value, err := s.repo.Next(ctx, orderCounterID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}
	return fmt.Sprintf("ORD-%06d", value), nil
}
