package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for subscription records.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	// Delete removes the subscription; the owning ledger is removed by the
	// database cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}
