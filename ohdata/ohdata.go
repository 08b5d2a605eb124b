// Package ohdata provides a tokenizer and parser for the opening_hours values
// used by OpenStreetMap (https://wiki.openstreetmap.org/wiki/Key:opening_hours).
//
// The parser is tolerant: a malformed rule is reported as a Warning and
// skipped, and parsing resumes at the next rule separator. Only a value
// without a single usable rule is an error.
package ohdata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var errInvalidName = errors.New("invalid name")

// State is the state of a point in time.
type State int

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateUnknown:
		return "unknown"
	default:
		return "<UNDEFINED>"
	}
}

const (
	StateClosed State = iota
	StateOpen
	StateUnknown
)

// Modifier is the state keyword of a rule.
type Modifier int

func (m Modifier) String() string {
	switch m {
	case ModifierImplicit:
		return ""
	case ModifierOpen:
		return keywordOpen
	case ModifierClosed:
		return keywordClosed
	case ModifierOff:
		return keywordOff
	case ModifierUnknown:
		return keywordUnknown
	default:
		return "<UNDEFINED>"
	}
}

const (
	// ModifierImplicit means the rule has no state keyword. It behaves like ModifierOpen.
	ModifierImplicit Modifier = iota
	ModifierOpen
	ModifierClosed
	ModifierOff
	ModifierUnknown
)

// Relation is how a rule relates to the rules before it.
type Relation int

func (r Relation) String() string {
	switch r {
	case RelationNormal:
		return ";"
	case RelationAdditional:
		return ","
	case RelationFallback:
		return "||"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// RelationNormal is the first rule or a rule after ";". It overrides earlier rules on the days it matches.
	RelationNormal Relation = iota
	// RelationAdditional is a rule after ",". It adds to earlier rules.
	RelationAdditional
	// RelationFallback is a rule after "||". It applies only on days no earlier rule matched.
	RelationFallback
)

// Dimension is the calendar dimension a selector group constrains.
type Dimension int

func (d Dimension) String() string {
	switch d {
	case DimensionYear:
		return "Year"
	case DimensionMonthDay:
		return "MonthDay"
	case DimensionWeek:
		return "Week"
	case DimensionWeekday:
		return "Weekday"
	default:
		return "<UNDEFINED>"
	}
}

const (
	DimensionYear Dimension = iota
	DimensionMonthDay
	DimensionWeek
	// DimensionWeekday groups weekdays and holidays.
	DimensionWeekday
)

// HolidayKind distinguishes public and school holidays.
type HolidayKind int

func (k HolidayKind) String() string {
	switch k {
	case PublicHoliday:
		return "PH"
	case SchoolHoliday:
		return "SH"
	default:
		return "<UNDEFINED>"
	}
}

const (
	PublicHoliday HolidayKind = iota
	SchoolHoliday
)

// Event is a solar event a time point can be relative to.
type Event int

func (e Event) String() string {
	switch e {
	case EventNone:
		return ""
	case EventSunrise:
		return "sunrise"
	case EventSunset:
		return "sunset"
	case EventDawn:
		return "dawn"
	case EventDusk:
		return "dusk"
	default:
		return "<UNDEFINED>"
	}
}

const (
	EventNone Event = iota
	EventSunrise
	EventSunset
	EventDawn
	EventDusk
)

// Selector is a condition on calendar days.
// It is one of WeekdayRange, HolidaySelector, WeekRange, YearRange or MonthDayRange.
type Selector interface {
	fmt.Stringer
	selector()
}

// NthRange selects occurrences of a weekday within a month.
// Positive values count from the start of the month, negative values from the end.
// From equals To for a single occurrence.
type NthRange struct {
	From, To int
}

// WeekdayRange selects weekdays, e.g. Mo-Fr, Sa[1,3] or Su[-1] -1 day.
type WeekdayRange struct {
	From, To time.Weekday
	Step     int        // Step selects every Step-th day of the range, counted from From.
	Nth      []NthRange // Nth restricts the range to occurrences within the month.
	Offset   int        // Offset shifts the selected days by a number of days.
}

func (WeekdayRange) selector() {}

func (w WeekdayRange) String() string {
	var b strings.Builder
	b.WriteString(weekdayAbbrev(w.From))
	if w.To != w.From {
		b.WriteString("-")
		b.WriteString(weekdayAbbrev(w.To))
	}
	if w.Step > 1 {
		b.WriteString("/" + strconv.Itoa(w.Step))
	}
	if len(w.Nth) > 0 {
		parts := make([]string, len(w.Nth))
		for i, n := range w.Nth {
			parts[i] = strconv.Itoa(n.From)
			if n.To != n.From {
				parts[i] += "-" + strconv.Itoa(n.To)
			}
		}
		b.WriteString("[" + strings.Join(parts, ",") + "]")
	}
	b.WriteString(formatDayOffset(w.Offset))
	return b.String()
}

// HolidaySelector selects public or school holidays, optionally shifted by a number of days.
type HolidaySelector struct {
	Kind   HolidayKind
	Offset int
}

func (HolidaySelector) selector() {}

func (h HolidaySelector) String() string {
	return h.Kind.String() + formatDayOffset(h.Offset)
}

// WeekRange selects ISO 8601 week numbers.
type WeekRange struct {
	From, To int
	Step     int // Step is zero or one for every week.
}

func (WeekRange) selector() {}

func (w WeekRange) String() string {
	s := fmt.Sprintf("week %02d", w.From)
	if w.To != w.From {
		s += fmt.Sprintf("-%02d", w.To)
	}
	if w.Step > 1 {
		s += "/" + strconv.Itoa(w.Step)
	}
	return s
}

// YearRange selects years.
type YearRange struct {
	From, To int
	Step     int
	OpenEnd  bool // OpenEnd selects every year from From on; To is ignored.
}

func (YearRange) selector() {}

func (y YearRange) String() string {
	s := strconv.Itoa(y.From)
	switch {
	case y.OpenEnd:
		return s + "+"
	case y.To != y.From:
		s += "-" + strconv.Itoa(y.To)
	}
	if y.Step > 1 {
		s += "/" + strconv.Itoa(y.Step)
	}
	return s
}

// DatePoint is a calendar day in a month-day selector.
// Year is zero for a day in every year. Day is zero for a whole month,
// meaning the first day at the start and the last day at the end of a range.
type DatePoint struct {
	Year   int
	Month  time.Month
	Day    int
	Easter bool // Easter means the date is Easter Sunday; Month and Day are unused.
	Offset int  // Offset shifts the date by a number of days.
}

func (p DatePoint) String() string {
	var parts []string
	if p.Year != 0 {
		parts = append(parts, strconv.Itoa(p.Year))
	}
	if p.Easter {
		parts = append(parts, keywordEaster)
	} else {
		parts = append(parts, p.Month.String()[:3])
		if p.Day != 0 {
			parts = append(parts, fmt.Sprintf("%02d", p.Day))
		}
	}
	return strings.Join(parts, " ") + formatDayOffset(p.Offset)
}

// MonthDayRange selects a range of calendar days, e.g. Jan-Mar, Dec 24-26, easter or Dec 25+.
// A range whose end lies before its start in the calendar wraps over the year end.
type MonthDayRange struct {
	From, To DatePoint
	Step     int
	OpenEnd  bool // OpenEnd selects every day from From on; To is ignored.
}

func (MonthDayRange) selector() {}

func (m MonthDayRange) String() string {
	s := m.From.String()
	switch {
	case m.OpenEnd:
		return s + "+"
	case m.To != m.From:
		s += "-" + m.To.String()
	}
	if m.Step > 1 {
		s += "/" + strconv.Itoa(m.Step)
	}
	return s
}

// SelectorGroup is a list of selectors of one dimension. A day matches the group
// if it matches any of its items.
type SelectorGroup struct {
	Dimension Dimension
	Items     []Selector
}

func (g SelectorGroup) String() string {
	parts := make([]string, len(g.Items))
	for i, item := range g.Items {
		parts[i] = item.String()
	}
	return strings.Join(parts, ",")
}

// TimePoint is a time of day, either absolute or relative to a solar event.
type TimePoint struct {
	Event Event
	// Minutes is the number of minutes after 00:00 for absolute time points
	// and the signed offset from the event otherwise.
	Minutes int
}

func (p TimePoint) String() string {
	if p.Event == EventNone {
		return formatMinutes(p.Minutes)
	}
	switch {
	case p.Minutes > 0:
		return "(" + p.Event.String() + "+" + formatMinutes(p.Minutes) + ")"
	case p.Minutes < 0:
		return "(" + p.Event.String() + "-" + formatMinutes(-p.Minutes) + ")"
	}
	return p.Event.String()
}

// TimeSpan is a time range within a day. A span without end is a point in time.
type TimeSpan struct {
	Start, End TimePoint
	HasEnd     bool
	// OpenEnd means the closing time is not known.
	OpenEnd bool
	// Wrap means the span continues past midnight into the next day.
	// Absolute spans that wrap store End as minutes past the start of the day, e.g. 26:00.
	Wrap bool
}

// IsEventRelative reports whether either end of the span depends on a solar event.
func (s TimeSpan) IsEventRelative() bool {
	return s.Start.Event != EventNone || (s.HasEnd && s.End.Event != EventNone)
}

func (s TimeSpan) String() string {
	str := s.Start.String()
	if s.HasEnd {
		end := s.End
		if end.Event == EventNone && end.Minutes > minutesPerDay && s.Wrap {
			end.Minutes -= minutesPerDay
		}
		str += "-" + end.String()
	}
	if s.OpenEnd {
		str += "+"
	}
	return str
}

// Rule is one rule of an opening_hours value.
type Rule struct {
	Groups   []SelectorGroup // Groups must all match a day for the rule to apply.
	Spans    []TimeSpan      // Spans are the times of the day; empty means the whole day.
	Modifier Modifier
	Relation Relation
	Comment  string
	// AlwaysOpen is set for 24/7.
	AlwaysOpen bool
	Offset     int    // Offset is the byte offset of the rule in the value.
	Text       string // Text is the source text of the rule.
}

// State returns the state the rule assigns to the times it covers.
// A rule with only a comment, or with selectors and a comment but no
// times, is unknown: the comment describes when it is open.
func (r Rule) State() State {
	switch r.Modifier {
	case ModifierClosed, ModifierOff:
		return StateClosed
	case ModifierUnknown:
		return StateUnknown
	case ModifierOpen:
		return StateOpen
	}
	if r.Comment != "" && len(r.Spans) == 0 && !r.AlwaysOpen {
		return StateUnknown
	}
	return StateOpen
}

// String returns the rule in normalized syntax.
func (r Rule) String() string {
	var parts []string
	if r.AlwaysOpen {
		parts = append(parts, keywordAlwaysOpen)
	}
	for i, g := range r.Groups {
		s := g.String()
		if g.Dimension != DimensionWeekday && (i+1 == len(r.Groups) || r.Groups[i+1].Dimension == DimensionWeekday) {
			s += ":"
		}
		parts = append(parts, s)
	}
	if len(r.Spans) > 0 {
		spans := make([]string, len(r.Spans))
		for i, s := range r.Spans {
			spans[i] = s.String()
		}
		parts = append(parts, strings.Join(spans, ","))
	}
	if m := r.Modifier.String(); m != "" {
		parts = append(parts, m)
	}
	if r.Comment != "" {
		parts = append(parts, strconv.Quote(r.Comment))
	}
	return strings.Join(parts, " ")
}

// Warning describes a part of the value that was skipped or can never match.
type Warning struct {
	Message string // Message is the English description.
	Offset  int    // Offset is the byte offset of the offending text.
	Text    string // Text is the offending text.

	// Format and Args produce Message. They allow rendering the warning in another language.
	Format string
	Args   []any
}

func (w Warning) String() string {
	return fmt.Sprintf("offset %d: %q: %s", w.Offset, w.Text, w.Message)
}

// NewWarning returns a warning whose message is fmt.Sprintf(format, args...).
func NewWarning(offset int, text string, format string, args ...any) Warning {
	return Warning{
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
		Text:    text,
		Format:  format,
		Args:    args,
	}
}

// ParseError is returned when a value contains no usable rule.
// It carries the position of the first problem.
type ParseError struct {
	Offset int
	Text   string
	Err    error
}

// Error returns a string representation of the parse error, implementing the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %q: %v", e.Offset, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const minutesPerDay = 24 * 60

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func formatDayOffset(n int) string {
	switch {
	case n == 1:
		return " +1 day"
	case n == -1:
		return " -1 day"
	case n > 0:
		return fmt.Sprintf(" +%d days", n)
	case n < 0:
		return fmt.Sprintf(" %d days", n)
	}
	return ""
}

func weekdayAbbrev(w time.Weekday) string {
	return w.String()[:2]
}
