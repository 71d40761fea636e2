package delivery

import (
	"fmt"
	"strings"
	"time"
)

// Validation errors raised by Config.Validate.
var (
	ErrNoDaysConfigured    = fmt.Errorf("at least one delivery day is required")
	ErrNonPositiveQuantity = fmt.Errorf("quantity must be a positive integer")
	ErrInvalidWeekday      = fmt.Errorf("invalid weekday")
)

// weekdayNames maps lowercase day names to Go weekdays.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Config is the weekly recurrence configuration of a ledger: which weekdays
// get a delivery, and the default quantity per generated event.
type Config struct {
	Days     []string // lowercase weekday names, e.g. ["monday", "thursday"]
	Quantity int
}

// ParseWeekday resolves a day name (case-insensitive) to a time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
	}
	return wd, nil
}

// Validate checks the recurrence invariants: a non-empty set of valid weekday
// names and a positive quantity.
func (c Config) Validate() error {
	if len(c.Days) == 0 {
		return ErrNoDaysConfigured
	}
	if c.Quantity <= 0 {
		return ErrNonPositiveQuantity
	}
	for _, d := range c.Days {
		if _, err := ParseWeekday(d); err != nil {
			return err
		}
	}
	return nil
}

// WeekdaySet returns the configured days as a lookup set. The config must
// have been validated first; unknown names are silently skipped here.
func (c Config) WeekdaySet() map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(c.Days))
	for _, d := range c.Days {
		if wd, err := ParseWeekday(d); err == nil {
			set[wd] = true
		}
	}
	return set
}
