package openinghours

import (
	"errors"
	"fmt"
	"time"
)

// ValidateIntervals checks that ivs is a valid result of Intervals(from, to):
// the intervals cover [from, to) without gaps or overlaps, are not empty and
// adjacent intervals differ in state or comment.
func ValidateIntervals(ivs []Interval, from, to time.Time) error {
	if len(ivs) == 0 {
		return fmt.Errorf("no intervals for %v - %v", from, to)
	}
	var errs []error
	if first := ivs[0].Start; !first.Equal(from) {
		errs = append(errs, fmt.Errorf("first interval starts at %v, want %v", first, from))
	}
	if last := ivs[len(ivs)-1].End; !last.Equal(to) {
		errs = append(errs, fmt.Errorf("last interval ends at %v, want %v", last, to))
	}
	for i, iv := range ivs {
		if !iv.Start.Before(iv.End) {
			errs = append(errs, fmt.Errorf("interval %d (%v) is empty", i, iv))
		}
		if iv.State != StateOpen && iv.State != StateClosed && iv.State != StateUnknown {
			errs = append(errs, fmt.Errorf("interval %d (%v) has invalid state %d", i, iv, int(iv.State)))
		}
		if i == 0 {
			continue
		}
		prev := ivs[i-1]
		switch {
		case iv.Start.Before(prev.End):
			errs = append(errs, fmt.Errorf("interval %d (%v) overlaps interval %d (%v)", i, iv, i-1, prev))
		case iv.Start.After(prev.End):
			errs = append(errs, fmt.Errorf("gap between interval %d (%v) and interval %d (%v)", i-1, prev, i, iv))
		}
		if iv.State == prev.State && iv.Comment == prev.Comment {
			errs = append(errs, fmt.Errorf("interval %d (%v) is not merged with interval %d (%v)", i, iv, i-1, prev))
		}
	}
	return errors.Join(errs...)
}
