package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the scheduler's projection of a subscription record. The
// full lifecycle (signup, payment, product) lives outside this service; the
// scheduler only needs identity and ownership.
type Subscription struct {
	ID           uuid.UUID
	SubscribedBy uuid.UUID
	ProductID    uuid.UUID
	CreatedAt    time.Time
}
