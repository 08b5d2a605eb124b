package openinghours

import (
	"time"

	"go.uber.org/zap"

	"github.com/ngrash/go-openinghours/internal/civil"
	"github.com/ngrash/go-openinghours/internal/ohir"
)

// nextChangeWindow is the length of the ranges NextChange materializes at a time.
const nextChangeWindow = 31 * 24 * time.Hour

// Intervals returns intervals covering [from, to) without gaps, sorted by
// start. Adjacent intervals always differ in state or comment. Days start
// at midnight in the location of from.
func (s *Schedule) Intervals(from, to time.Time) ([]Interval, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}
	loc := from.Location()
	to = to.In(loc)
	env := s.env(loc)

	var (
		b       = builder{from: from, to: to}
		first   = civil.Of(from)
		last    = civil.Of(to)
		spill   = ohir.Day(s.rules, first.AddDays(-1), env).Overflow()
		skipped int
	)
	for d := first; !d.After(last); {
		plan := ohir.Day(s.rules, d, env)
		if !plan.Matched && len(spill) == 0 {
			// Nothing happens until a rule can match again.
			next := civil.Min(s.nextCandidate(d.AddDays(1), env.Env), last.AddDays(1))
			b.add(d.In(loc), next.In(loc), s.defaultState, "")
			skipped += d.DaysUntil(next)
			d = next
			continue
		}
		for _, seg := range ohir.Layer(s.defaultState, spill, plan.Own()) {
			b.add(d.At(seg.Start, loc), d.At(seg.End, loc), seg.State, seg.Comment)
		}
		spill = plan.Overflow()
		d = d.AddDays(1)
	}
	s.logger.Debug("materialized intervals",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("intervals", len(b.out)),
		zap.Int("skipped_days", skipped))
	return b.out, nil
}

// OpenIntervals returns the open and unknown intervals within [from, to).
func (s *Schedule) OpenIntervals(from, to time.Time) ([]Interval, error) {
	all, err := s.Intervals(from, to)
	if err != nil {
		return nil, err
	}
	var out []Interval
	for _, iv := range all {
		if iv.State != StateClosed {
			out = append(out, iv)
		}
	}
	return out, nil
}

// State returns the state at t.
func (s *Schedule) State(t time.Time) State {
	return s.at(t).State
}

// Comment returns the comment of the interval containing t.
func (s *Schedule) Comment(t time.Time) string {
	return s.at(t).Comment
}

// IsOpen reports whether the state at t is open.
func (s *Schedule) IsOpen(t time.Time) bool {
	return s.State(t) == StateOpen
}

func (s *Schedule) at(t time.Time) Interval {
	ivs, err := s.Intervals(t, t.Add(time.Minute))
	if err != nil || len(ivs) == 0 {
		return Interval{State: s.defaultState}
	}
	return ivs[0]
}

// NextChange returns the first instant after t at which the state or comment
// changes. ok is false if nothing changes before limit.
func (s *Schedule) NextChange(t, limit time.Time) (next time.Time, ok bool) {
	cur := s.at(t)
	for from := t; from.Before(limit); from = from.Add(nextChangeWindow) {
		to := from.Add(nextChangeWindow)
		if to.After(limit) {
			to = limit
		}
		ivs, err := s.Intervals(from, to)
		if err != nil {
			return time.Time{}, false
		}
		for _, iv := range ivs {
			if iv.State != cur.State || iv.Comment != cur.Comment {
				return iv.Start, true
			}
		}
	}
	return time.Time{}, false
}

// builder collects clipped and merged intervals.
type builder struct {
	from, to time.Time
	out      []Interval
}

func (b *builder) add(start, end time.Time, state State, comment string) {
	if start.Before(b.from) {
		start = b.from
	}
	if end.After(b.to) {
		end = b.to
	}
	if !start.Before(end) {
		return
	}
	if n := len(b.out); n > 0 {
		last := &b.out[n-1]
		if last.State == state && last.Comment == comment && !last.End.Before(start) {
			if end.After(last.End) {
				last.End = end
			}
			return
		}
		// Days shortened by a DST change may produce overlaps.
		if start.Before(last.End) {
			start = last.End
			if !start.Before(end) {
				return
			}
		}
	}
	b.out = append(b.out, Interval{Start: start, End: end, State: state, Comment: comment})
}
