package app

import (
	"context"
	"fmt"
	"time"

	"delivery_scheduler/internal/domain/delivery"
	"delivery_scheduler/internal/domain/subscription"
	idb "delivery_scheduler/internal/infra/database" // For repository sentinel errors

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the delivery service
var ErrNoEditRequested = fmt.Errorf("either cancel or a valid quantity must be provided")
var ErrEventNotFound = fmt.Errorf("no scheduled delivery found for the given date")
var ErrPastOrTodayDelivery = fmt.Errorf("cannot update past or today's delivery")
var ErrTomorrowCutOff = fmt.Errorf("too late to modify tomorrow's delivery, must be done before 12 PM")
var ErrAlreadyDelivered = fmt.Errorf("cannot modify a delivery that has already been marked as delivered")
var ErrEventCancelled = fmt.Errorf("cannot update quantity of a cancelled delivery")

// DeliveryService implements the request-driven scheduler operations: config
// save/update with log regeneration, log reads, and guarded single-event
// edits. All day and cut-off arithmetic happens in the injected business
// timezone; "now" is injected so tests can pin the clock.
type DeliveryService struct {
	subRepo    subscription.Repository
	ledgerRepo delivery.Repository
	loc        *time.Location
	now        func() time.Time
	logger     *logrus.Logger
}

func NewDeliveryService(
	sr subscription.Repository,
	lr delivery.Repository,
	loc *time.Location,
	now func() time.Time,
	logger *logrus.Logger,
) *DeliveryService {
	if now == nil {
		now = time.Now
	}
	return &DeliveryService{
		subRepo:    sr,
		ledgerRepo: lr,
		loc:        loc,
		now:        now,
		logger:     logger,
	}
}

// SaveOrUpdateConfig validates and stores a new recurrence config for the
// subscription and regenerates the event log over the window from today
// (business-local) through the end of the current month. Events before the
// window are preserved verbatim; the window itself is replaced wholesale, so
// manual in-window edits do not survive a config change. Returns true when a
// new ledger was created, false when an existing one was updated.
func (s *DeliveryService) SaveOrUpdateConfig(ctx context.Context, subscriptionID uuid.UUID, cfg delivery.Config) (created bool, err error) {
	if err := cfg.Validate(); err != nil {
		return false, err
	}

	if _, err := s.subRepo.GetByID(ctx, subscriptionID); err != nil {
		if err == idb.ErrSubscriptionNotFound {
			return false, err
		}
		return false, fmt.Errorf("failed to resolve subscription: %w", err)
	}

	now := s.now().In(s.loc)
	windowStart := delivery.StartOfDay(now, s.loc)
	windowEnd := delivery.EndOfMonth(now, s.loc)
	generated := delivery.GenerateEvents(windowStart, windowEnd, cfg, s.loc)

	ledger, err := s.ledgerRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if err != idb.ErrLedgerNotFound {
			return false, fmt.Errorf("failed to load delivery ledger: %w", err)
		}
		ledger = &delivery.Ledger{
			SubscriptionID: subscriptionID,
			Config:         cfg,
			Log:            generated,
		}
		if err := s.ledgerRepo.Create(ctx, ledger); err != nil {
			return false, fmt.Errorf("failed to create delivery ledger: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			"subscription_id": subscriptionID,
			"events":          len(generated),
		}).Info("Delivery config saved and logs generated")
		return true, nil
	}

	ledger.Config = cfg
	ledger.MergeGenerated(windowStart, generated, s.loc)
	if err := s.ledgerRepo.Update(ctx, ledger); err != nil {
		return false, fmt.Errorf("failed to update delivery ledger: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"subscription_id": subscriptionID,
		"events":          len(generated),
	}).Info("Delivery config updated and future logs regenerated")
	return false, nil
}

// Logs returns the date-ordered event log for the subscription.
func (s *DeliveryService) Logs(ctx context.Context, subscriptionID uuid.UUID) ([]delivery.Event, error) {
	ledger, err := s.ledgerRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if err == idb.ErrLedgerNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load delivery ledger: %w", err)
	}
	return ledger.Log, nil
}

// Ledger returns the full aggregate (config + log) for the subscription.
func (s *DeliveryService) Ledger(ctx context.Context, subscriptionID uuid.UUID) (*delivery.Ledger, error) {
	ledger, err := s.ledgerRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if err == idb.ErrLedgerNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load delivery ledger: %w", err)
	}
	return ledger, nil
}

// OverrideEvent applies a guarded edit to the single event scheduled on the
// given business-local day: either a cancellation or a quantity change, never
// both. The cut-off policy: past and current days are never editable, and
// tomorrow's delivery is editable only before noon business-local. Delivered
// events are immutable; cancelled events refuse quantity changes. All checks
// run before any write, so a rejected edit mutates nothing.
func (s *DeliveryService) OverrideEvent(ctx context.Context, subscriptionID uuid.UUID, date time.Time, cancel bool, quantity *int) error {
	ledger, err := s.ledgerRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if err == idb.ErrLedgerNotFound {
			return err
		}
		return fmt.Errorf("failed to load delivery ledger: %w", err)
	}

	requested := delivery.StartOfDay(date, s.loc)
	now := s.now().In(s.loc)
	today := delivery.StartOfDay(now, s.loc)
	tomorrow := today.AddDate(0, 0, 1)

	if !requested.After(today) {
		return ErrPastOrTodayDelivery
	}
	if requested.Equal(tomorrow) && now.Hour() >= 12 {
		return ErrTomorrowCutOff
	}

	event := ledger.EventOn(requested, s.loc)
	if event == nil {
		return ErrEventNotFound
	}
	if event.Delivered {
		return ErrAlreadyDelivered
	}

	switch {
	case cancel:
		event.Cancelled = true
	case quantity != nil:
		if event.Cancelled {
			return ErrEventCancelled
		}
		if *quantity <= 0 {
			return delivery.ErrNonPositiveQuantity
		}
		event.Quantity = *quantity
	default:
		return ErrNoEditRequested
	}

	if err := s.ledgerRepo.Update(ctx, ledger); err != nil {
		return fmt.Errorf("failed to persist delivery log update: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"subscription_id": subscriptionID,
		"date":            requested.Format("2006-01-02"),
		"cancel":          cancel,
	}).Info("Delivery log updated")
	return nil
}

// RegenerateLogs re-runs generation for one ledger over the current calendar
// month using its stored config, with the same merge policy as a config
// update.
func (s *DeliveryService) RegenerateLogs(ctx context.Context, subscriptionID uuid.UUID) error {
	ledger, err := s.ledgerRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if err == idb.ErrLedgerNotFound {
			return err
		}
		return fmt.Errorf("failed to load delivery ledger: %w", err)
	}

	now := s.now().In(s.loc)
	windowStart := delivery.StartOfMonth(now, s.loc)
	windowEnd := delivery.EndOfMonth(now, s.loc)
	generated := delivery.GenerateEvents(windowStart, windowEnd, ledger.Config, s.loc)

	ledger.MergeGenerated(windowStart, generated, s.loc)
	if err := s.ledgerRepo.Update(ctx, ledger); err != nil {
		return fmt.Errorf("failed to persist regenerated logs: %w", err)
	}
	s.logger.WithField("subscription_id", subscriptionID).Info("Delivery logs regenerated for current month")
	return nil
}
