package delivery

import "time"

// Event is a single scheduled delivery for a subscription.
// Exactly one event may exist per business-local calendar day in a ledger.
type Event struct {
	// DeliveryAt is the absolute instant of the delivery (18:30 business-local
	// on the scheduled day), stored in UTC.
	DeliveryAt time.Time
	Quantity   int
	Delivered  bool
	Cancelled  bool
}

// Day returns the business-local calendar day of the event, normalized to
// midnight in loc. Events are keyed by this value within a ledger.
func (e Event) Day(loc *time.Location) time.Time {
	local := e.DeliveryAt.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
