package repositories

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyConfirmed signals a conversion attempt against a pre-order that
// has already been converted. The conversion transaction aborts without side
// effects when it observes this state.
var ErrAlreadyConfirmed = errors.New("repositories: pre-order already confirmed")

// CounterErrorCode categorises counter repository failures.
type CounterErrorCode string

const (
	// CounterErrorInvalidInput indicates the caller supplied invalid counter parameters.
	CounterErrorInvalidInput CounterErrorCode = "invalid_input"
	// CounterErrorUnavailable indicates the backing store rejected the increment.
	CounterErrorUnavailable CounterErrorCode = "unavailable"
)

// CounterError describes a failure raised by the counter repository.
type CounterError struct {
	Code    CounterErrorCode
	Message string
	cause   error
}

// NewCounterError constructs a CounterError with an optional cause.
func NewCounterError(code CounterErrorCode, message string, cause error) *CounterError {
	return &CounterError{Code: code, Message: message, cause: cause}
}

func (e *CounterError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("counter %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CounterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// StockShortage reports one product whose on-hand stock cannot cover the
// requested quantity.
type StockShortage struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError carries item-level detail for insufficient-stock rejections.
type StockError struct {
	Shortages []StockShortage
}

func (e *StockError) Error() string {
	if e == nil || len(e.Shortages) == 0 {
		return "insufficient stock"
	}
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}
