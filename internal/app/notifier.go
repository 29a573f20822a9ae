package app

import (
	"context"

	"github.com/solera/gemvault/internal/domain"
)

// Notifier receives a change event after every successful status transition.
// Implementations must be best-effort and non-blocking from the caller's
// point of view; a failed delivery never fails the operation.
type Notifier interface {
	StatusChanged(ctx context.Context, change domain.StatusChange)
}
