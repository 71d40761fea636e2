package delivery

import (
	"time"

	"github.com/google/uuid"
)

// Ledger is the per-subscription delivery record: the current recurrence
// config plus the full, date-ordered log of delivery events. The ledger owns
// its events; callers address an event by (subscription, business-local day).
type Ledger struct {
	ID             int64
	SubscriptionID uuid.UUID
	Config         Config
	Log            []Event
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MergeGenerated applies the regeneration merge policy: events strictly
// before windowStart (business-local) are kept verbatim, everything from
// windowStart on is replaced by the freshly generated events. Manual edits
// inside the window, cancellations included, do not survive a merge.
func (l *Ledger) MergeGenerated(windowStart time.Time, generated []Event, loc *time.Location) {
	start := StartOfDay(windowStart, loc)
	kept := make([]Event, 0, len(l.Log))
	for _, ev := range l.Log {
		if ev.Day(loc).Before(start) {
			kept = append(kept, ev)
		}
	}
	l.Log = append(kept, generated...)
}

// EventOn returns a pointer into the log for the event scheduled on the given
// business-local day, or nil if no delivery is scheduled that day.
func (l *Ledger) EventOn(day time.Time, loc *time.Location) *Event {
	want := StartOfDay(day, loc)
	for i := range l.Log {
		if l.Log[i].Day(loc).Equal(want) {
			return &l.Log[i]
		}
	}
	return nil
}
