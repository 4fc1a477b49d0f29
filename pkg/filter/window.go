package filter

import (
	"fmt"
	"time"
)

// Duration converts the offset into a time.Duration.
func (o TimeOffset) Duration() (time.Duration, error) {
	var unit time.Duration

	switch o.Unit {
	case Days:
		unit = 24 * time.Hour
	case Hours:
		unit = time.Hour
	case Minutes:
		unit = time.Minute
	default:
		return 0, fmt.Errorf("unknown time unit %q", o.Unit)
	}

	return time.Duration(o.Value) * unit, nil
}

// Window resolves the frame against the given clock value and returns the
// absolute [start, end] pair. Dynamic frames are expected to be resolved
// fresh on every evaluation; callers pass time.Now().
func (f TimeFrame) Window(now time.Time) (start, end time.Time, err error) {
	fromDur, err := f.From.Duration()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}

	toDur, err := f.To.Duration()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}

	return now.Add(-fromDur), now.Add(-toDur), nil
}
