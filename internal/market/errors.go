package market

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by every store and by the reconciliation service.
// Callers wrap them with fmt.Errorf("...: %w", ErrX) and match with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
)

// Invalid builds a validation error for a single field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// InconsistencyWarning is reported per record when a read-side join finds a
// dangling reference. It never aborts the listing that produced it.
type InconsistencyWarning struct {
	OrderID   string `json:"orderId"`
	ProductID string `json:"plantId"`
	Reason    string `json:"reason"`
}

func (w InconsistencyWarning) String() string {
	return fmt.Sprintf("order %s: %s (plant %s)", w.OrderID, w.Reason, w.ProductID)
}

// Kind returns a short stable code for err, used by the transport layer.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}
