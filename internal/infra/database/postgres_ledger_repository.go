package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"delivery_scheduler/internal/domain/delivery"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array and driver registration
)

// Custom errors specific to the ledger repository
var ErrLedgerNotFound = fmt.Errorf("delivery ledger not found")
var ErrDuplicateLedger = fmt.Errorf("delivery ledger for this subscription already exists")

type PostgresLedgerRepository struct {
	db *sql.DB
}

func NewPostgresLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

func (r *PostgresLedgerRepository) Create(ctx context.Context, ledger *delivery.Ledger) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for ledger create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	query := `INSERT INTO delivery_ledgers (subscription_id, days, quantity)
               VALUES ($1, $2, $3)
               RETURNING id, created_at, updated_at`
	err = txn.QueryRowContext(ctx, query, ledger.SubscriptionID, pq.Array(ledger.Config.Days), ledger.Config.Quantity).
		Scan(&ledger.ID, &ledger.CreatedAt, &ledger.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "delivery_ledgers_subscription_id_key") {
			return ErrDuplicateLedger
		}
		return fmt.Errorf("error creating delivery ledger: %w", err)
	}

	if err := insertEvents(ctx, txn, ledger.ID, ledger.Log); err != nil {
		return err
	}

	return txn.Commit()
}

func (r *PostgresLedgerRepository) Update(ctx context.Context, ledger *delivery.Ledger) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for ledger update: %w", err)
	}
	defer txn.Rollback()

	query := `UPDATE delivery_ledgers
               SET days = $1, quantity = $2, updated_at = NOW()
               WHERE id = $3
               RETURNING updated_at`
	err = txn.QueryRowContext(ctx, query, pq.Array(ledger.Config.Days), ledger.Config.Quantity, ledger.ID).
		Scan(&ledger.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrLedgerNotFound
		}
		return fmt.Errorf("error updating delivery ledger: %w", err)
	}

	// The log is owned by the ledger and written as a whole: replace it.
	if _, err := txn.ExecContext(ctx, `DELETE FROM delivery_events WHERE ledger_id = $1`, ledger.ID); err != nil {
		return fmt.Errorf("error clearing delivery events: %w", err)
	}
	if err := insertEvents(ctx, txn, ledger.ID, ledger.Log); err != nil {
		return err
	}

	return txn.Commit()
}

func insertEvents(ctx context.Context, txn *sql.Tx, ledgerID int64, events []delivery.Event) error {
	if len(events) == 0 {
		return nil
	}

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO delivery_events (ledger_id, delivery_at, quantity, delivered, cancelled)
                                         VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for event insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx, ledgerID, ev.DeliveryAt, ev.Quantity, ev.Delivered, ev.Cancelled); err != nil {
			return fmt.Errorf("error inserting delivery event (L:%d at %s): %w", ledgerID, ev.DeliveryAt, err)
		}
	}
	return nil
}

func (r *PostgresLedgerRepository) GetBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) (*delivery.Ledger, error) {
	query := `SELECT id, subscription_id, days, quantity, created_at, updated_at
               FROM delivery_ledgers WHERE subscription_id = $1`
	ledger := &delivery.Ledger{}
	err := r.db.QueryRowContext(ctx, query, subscriptionID).
		Scan(&ledger.ID, &ledger.SubscriptionID, pq.Array(&ledger.Config.Days), &ledger.Config.Quantity, &ledger.CreatedAt, &ledger.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLedgerNotFound
		}
		return nil, fmt.Errorf("error getting delivery ledger by subscription ID: %w", err)
	}

	ledger.Log, err = r.loadEvents(ctx, ledger.ID)
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func (r *PostgresLedgerRepository) ListAll(ctx context.Context) ([]*delivery.Ledger, error) {
	query := `SELECT id, subscription_id, days, quantity, created_at, updated_at
               FROM delivery_ledgers ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing delivery ledgers: %w", err)
	}
	defer rows.Close()

	ledgers := make([]*delivery.Ledger, 0)
	byID := make(map[int64]*delivery.Ledger)
	for rows.Next() {
		ledger := &delivery.Ledger{}
		if err := rows.Scan(&ledger.ID, &ledger.SubscriptionID, pq.Array(&ledger.Config.Days), &ledger.Config.Quantity, &ledger.CreatedAt, &ledger.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning delivery ledger: %w", err)
		}
		ledger.Log = make([]delivery.Event, 0)
		ledgers = append(ledgers, ledger)
		byID[ledger.ID] = ledger
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery ledgers: %w", err)
	}

	evRows, err := r.db.QueryContext(ctx, `SELECT ledger_id, delivery_at, quantity, delivered, cancelled
               FROM delivery_events ORDER BY ledger_id, delivery_at`)
	if err != nil {
		return nil, fmt.Errorf("error listing delivery events: %w", err)
	}
	defer evRows.Close()

	for evRows.Next() {
		var ledgerID int64
		var ev delivery.Event
		if err := evRows.Scan(&ledgerID, &ev.DeliveryAt, &ev.Quantity, &ev.Delivered, &ev.Cancelled); err != nil {
			return nil, fmt.Errorf("error scanning delivery event: %w", err)
		}
		if ledger, ok := byID[ledgerID]; ok {
			ledger.Log = append(ledger.Log, ev)
		}
	}
	if err = evRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery events: %w", err)
	}

	return ledgers, nil
}

func (r *PostgresLedgerRepository) DeleteBySubscriptionID(ctx context.Context, subscriptionID uuid.UUID) error {
	// Events go with the ledger via ON DELETE CASCADE.
	res, err := r.db.ExecContext(ctx, `DELETE FROM delivery_ledgers WHERE subscription_id = $1`, subscriptionID)
	if err != nil {
		return fmt.Errorf("error deleting delivery ledger: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted ledger rows: %w", err)
	}
	if affected == 0 {
		return ErrLedgerNotFound
	}
	return nil
}

func (r *PostgresLedgerRepository) loadEvents(ctx context.Context, ledgerID int64) ([]delivery.Event, error) {
	query := `SELECT delivery_at, quantity, delivered, cancelled
               FROM delivery_events WHERE ledger_id = $1 ORDER BY delivery_at`

	rows, err := r.db.QueryContext(ctx, query, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("error loading delivery events: %w", err)
	}
	defer rows.Close()

	events := make([]delivery.Event, 0)
	for rows.Next() {
		var ev delivery.Event
		if err := rows.Scan(&ev.DeliveryAt, &ev.Quantity, &ev.Delivered, &ev.Cancelled); err != nil {
			return nil, fmt.Errorf("error scanning delivery event: %w", err)
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery events: %w", err)
	}
	return events, nil
}
