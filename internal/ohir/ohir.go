// Package ohir combines the rules of an opening_hours value into the plan of a single day.
package ohir

import (
	"sort"

	"github.com/ngrash/go-openinghours/internal/civil"
	"github.com/ngrash/go-openinghours/internal/ohexpand"
	"github.com/ngrash/go-openinghours/ohdata"
)

const (
	MinutesPerDay = 24 * 60
	// MaxMinutes bounds a day plan. Segments beyond MinutesPerDay spill into the next day.
	MaxMinutes = 2 * MinutesPerDay

	// OpenEndComment is attached to the unknown segment of an open end without comment.
	OpenEndComment = "Specified as open end. Closing time was guessed."
)

// EventFunc returns the time of a solar event on day d in minutes after midnight.
// ok is false if the event cannot be resolved.
type EventFunc func(d civil.Date, e ohdata.Event) (minutes int, ok bool)

// Env carries the external data rule evaluation depends on.
type Env struct {
	ohexpand.Env
	// Events resolves event-relative times. If nil, spans using events are ignored.
	Events EventFunc
}

// Segment is a painted part of a day.
type Segment struct {
	// Start and End are minutes after the day's midnight, Start < End <= MaxMinutes.
	Start, End int
	State      ohdata.State
	Comment    string
	// Rule is the index of the rule that painted the segment.
	Rule int
}

// DayPlan is the result of evaluating all rules on one day.
type DayPlan struct {
	Date civil.Date
	// Matched reports whether any rule matched the day.
	Matched bool
	// Segments are sorted and do not overlap. Minutes not covered by any
	// segment take the default state.
	Segments []Segment
}

// Own returns the segments within the day itself.
func (p DayPlan) Own() []Segment {
	return clip(p.Segments, 0, MinutesPerDay, 0)
}

// Overflow returns the segments beyond midnight, shifted to the next day.
func (p DayPlan) Overflow() []Segment {
	return clip(p.Segments, MinutesPerDay, MaxMinutes, -MinutesPerDay)
}

func clip(segs []Segment, from, to, shift int) []Segment {
	var out []Segment
	for _, s := range segs {
		s.Start = max(s.Start, from)
		s.End = min(s.End, to)
		if s.Start >= s.End {
			continue
		}
		s.Start += shift
		s.End += shift
		out = append(out, s)
	}
	return out
}

// Day evaluates rules on day d.
//
// A normal rule that matches replaces whatever earlier rules painted on the
// day, unless it is a closed rule with time spans, which overrides only those
// spans. An additional rule paints on top. A fallback rule fills only the
// minutes no preceding rule painted. A rule none of whose spans resolve on d,
// such as an event span without coordinates, does not match.
func Day(rules []ohdata.Rule, d civil.Date, env Env) DayPlan {
	p := DayPlan{Date: d}
	for i, r := range rules {
		if !r.AlwaysOpen && !ohexpand.MatchesRule(r, d, env.Env) {
			continue
		}
		state := r.State()
		comment := r.Comment
		if comment == "" {
			comment = holidayName(r, d, env)
		}
		segs := ruleSegments(r, d, env, state, comment)
		if len(segs) == 0 {
			continue
		}
		p.Matched = true

		paint := p.paint
		switch {
		case r.Relation == ohdata.RelationFallback:
			paint = p.fill
		case r.Relation == ohdata.RelationAdditional:
		case state == ohdata.StateClosed && len(r.Spans) > 0:
		default:
			p.Segments = nil
		}
		for _, s := range segs {
			s.Rule = i
			paint(s)
		}
	}
	return p
}

// ruleSegments returns the segments r paints on d with the given state and comment.
func ruleSegments(r ohdata.Rule, d civil.Date, env Env, state ohdata.State, comment string) []Segment {
	if len(r.Spans) == 0 {
		return []Segment{{Start: 0, End: MinutesPerDay, State: state, Comment: comment}}
	}
	var out []Segment
	for _, span := range r.Spans {
		for _, s := range resolveSpan(span, d, env) {
			switch {
			case !s.openEnd || state != ohdata.StateOpen:
				s.State, s.Comment = state, comment
			case comment != "":
				s.Comment = comment
			default:
				s.Comment = OpenEndComment
			}
			out = append(out, s.Segment)
		}
	}
	return out
}

// Layer returns the segments covering a whole day: the default state at the
// bottom, the overflow of the previous day above it and the day's own
// segments on top.
func Layer(def ohdata.State, overflow, own []Segment) []Segment {
	p := DayPlan{Segments: []Segment{{Start: 0, End: MinutesPerDay, State: def, Rule: -1}}}
	for _, s := range overflow {
		p.paint(s)
	}
	for _, s := range own {
		p.paint(s)
	}
	return p.Segments
}

// paint puts s on top of the segments painted so far.
func (p *DayPlan) paint(s Segment) {
	out := make([]Segment, 0, len(p.Segments)+2)
	for _, e := range p.Segments {
		if e.End <= s.Start || e.Start >= s.End {
			out = append(out, e)
			continue
		}
		if e.Start < s.Start {
			left := e
			left.End = s.Start
			out = append(out, left)
		}
		if e.End > s.End {
			right := e
			right.Start = s.End
			out = append(out, right)
		}
	}
	out = append(out, s)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	p.Segments = out
}

// fill paints the parts of s that are not painted yet.
func (p *DayPlan) fill(s Segment) {
	start := s.Start
	var gaps []Segment
	for _, e := range p.Segments {
		if e.End <= start || e.Start >= s.End {
			continue
		}
		if e.Start > start {
			gap := s
			gap.Start, gap.End = start, e.Start
			gaps = append(gaps, gap)
		}
		start = max(start, e.End)
	}
	if start < s.End {
		gap := s
		gap.Start = start
		gaps = append(gaps, gap)
	}
	for _, g := range gaps {
		p.paint(g)
	}
}

// holidayName returns the name of the holiday a PH or SH selector of r matches on d.
func holidayName(r ohdata.Rule, d civil.Date, env Env) string {
	for _, g := range r.Groups {
		for _, sel := range g.Items {
			h, ok := sel.(ohdata.HolidaySelector)
			if !ok {
				continue
			}
			if name, ok := ohexpand.HolidayName(h, d, env.Env); ok {
				return name
			}
		}
	}
	return ""
}

type resolvedSegment struct {
	Segment
	openEnd bool
}

// resolveSpan returns the parts of span on day d. An open end contributes an
// unknown part from its last known time until midnight.
func resolveSpan(span ohdata.TimeSpan, d civil.Date, env Env) []resolvedSegment {
	start, ok := resolvePoint(span.Start, d, env)
	if !ok {
		return nil
	}
	var end int
	switch {
	case span.HasEnd:
		end, ok = resolvePoint(span.End, d, env)
		if !ok {
			return nil
		}
		if span.IsEventRelative() && end <= start {
			end += MinutesPerDay
		}
	case span.OpenEnd:
		end = start
	default:
		// A point in time.
		end = start + 1
	}
	start = max(start, 0)
	end = min(end, MaxMinutes)

	var out []resolvedSegment
	if start < end {
		out = append(out, resolvedSegment{Segment: Segment{Start: start, End: end}})
	}
	if span.OpenEnd {
		if tail := max(end, start); tail < MinutesPerDay {
			out = append(out, resolvedSegment{Segment: Segment{Start: tail, End: MinutesPerDay, State: ohdata.StateUnknown}, openEnd: true})
		}
	}
	return out
}

func resolvePoint(p ohdata.TimePoint, d civil.Date, env Env) (int, bool) {
	if p.Event == ohdata.EventNone {
		return p.Minutes, true
	}
	if env.Events == nil {
		return 0, false
	}
	m, ok := env.Events(d, p.Event)
	if !ok {
		return 0, false
	}
	return m + p.Minutes, true
}
