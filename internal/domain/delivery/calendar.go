package delivery

import "time"

// Deliveries always happen at 18:30 business-local time.
const (
	deliveryHour   = 18
	deliveryMinute = 30
)

// StartOfDay normalizes t to midnight of its calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// StartOfMonth returns midnight on the first day of t's month in loc.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// EndOfMonth returns midnight on the last day of t's month in loc. Used as an
// inclusive generation window bound.
func EndOfMonth(t time.Time, loc *time.Location) time.Time {
	return StartOfMonth(t, loc).AddDate(0, 1, -1)
}

// GenerateEvents produces the delivery events for every day in [start, end]
// (inclusive, whole days in loc) whose weekday is in cfg.Days. Each event is
// scheduled at 18:30 local time with the config's default quantity and both
// flags false. Pure function: the result depends only on the arguments.
func GenerateEvents(start, end time.Time, cfg Config, loc *time.Location) []Event {
	allowed := cfg.WeekdaySet()
	events := make([]Event, 0)

	day := StartOfDay(start, loc)
	last := StartOfDay(end, loc)
	for !day.After(last) {
		if allowed[day.Weekday()] {
			at := time.Date(day.Year(), day.Month(), day.Day(), deliveryHour, deliveryMinute, 0, 0, loc)
			events = append(events, Event{
				DeliveryAt: at.UTC(),
				Quantity:   cfg.Quantity,
				Delivered:  false,
				Cancelled:  false,
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return events
}
