package database

import (
	"context"
	"database/sql"
	"fmt"

	"delivery_scheduler/internal/domain/subscription"

	"github.com/google/uuid"
)

var ErrSubscriptionNotFound = fmt.Errorf("subscription not found")

type PostgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `INSERT INTO subscriptions (id, subscribed_by, product_id)
               VALUES ($1, $2, $3)
               RETURNING created_at`
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query, sub.ID, sub.SubscribedBy, sub.ProductID).Scan(&sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating subscription: %w", err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	query := `SELECT id, subscribed_by, product_id, created_at
               FROM subscriptions WHERE id = $1`
	sub := &subscription.Subscription{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&sub.ID, &sub.SubscribedBy, &sub.ProductID, &sub.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("error getting subscription by ID: %w", err)
	}
	return sub, nil
}

func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// The ledger and its events follow via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted subscription rows: %w", err)
	}
	if affected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
