package delivery

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving delivery
// ledgers. A ledger is read and written as one aggregate (config + log).
type Repository interface {
	Create(ctx context.Context, ledger *Ledger) error
	// Update persists the ledger's config and replaces its stored event log
	// with ledger.Log in a single transaction.
	Update(ctx context.Context, ledger *Ledger) error
	GetBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) (*Ledger, error)
	ListAll(ctx context.Context) ([]*Ledger, error)
	DeleteBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) error
}
