// Package ohexpand evaluates selectors of opening_hours rules against calendar days.
//
// Every selector has a predicate (Matches) and an accelerator (Next) that
// returns the earliest day on or after a given day that can match. Next is
// conservative: it never skips a matching day, but the day it returns is not
// guaranteed to match when selectors are combined.
package ohexpand

import (
	"fmt"
	"time"

	"github.com/ngrash/go-openinghours/internal/civil"
	"github.com/ngrash/go-openinghours/ohdata"
)

// HolidayCalendar resolves PH and SH selectors.
type HolidayCalendar interface {
	Holiday(kind ohdata.HolidayKind, d civil.Date) (name string, ok bool)
	NextHoliday(kind ohdata.HolidayKind, d civil.Date) (civil.Date, bool)
}

// Env carries the external data selectors depend on.
type Env struct {
	// Holidays resolves holiday selectors. If nil, holiday selectors never match.
	Holidays HolidayCalendar
}

const (
	// weekdayHorizon bounds the scan for nth weekday selectors. Every nth
	// occurrence from 1 to 5 appears at least once within this many days.
	weekdayHorizon = 400
	// yearHorizon bounds the years searched for recurring month-day ranges.
	yearHorizon = 8
	// maxRuleIterations bounds the search for a day matching all groups of a rule.
	maxRuleIterations = 1000
)

// Matches reports whether day d matches sel.
func Matches(sel ohdata.Selector, d civil.Date, env Env) bool {
	switch s := sel.(type) {
	case ohdata.WeekdayRange:
		return matchWeekday(s, d)
	case ohdata.HolidaySelector:
		return matchHoliday(s, d, env)
	case ohdata.WeekRange:
		return matchWeek(s, d)
	case ohdata.YearRange:
		return matchYear(s, d)
	case ohdata.MonthDayRange:
		return matchMonthDay(s, d)
	}
	panic(fmt.Errorf("invalid selector: %T", sel))
}

// Next returns the earliest day on or after d that matches sel,
// or civil.Never if there is none.
func Next(sel ohdata.Selector, d civil.Date, env Env) civil.Date {
	switch s := sel.(type) {
	case ohdata.WeekdayRange:
		return nextWeekday(s, d)
	case ohdata.HolidaySelector:
		return nextHoliday(s, d, env)
	case ohdata.WeekRange:
		return nextWeek(s, d)
	case ohdata.YearRange:
		return nextYear(s, d)
	case ohdata.MonthDayRange:
		return nextMonthDay(s, d)
	}
	panic(fmt.Errorf("invalid selector: %T", sel))
}

// MatchesGroup reports whether d matches any selector of g.
func MatchesGroup(g ohdata.SelectorGroup, d civil.Date, env Env) bool {
	for _, sel := range g.Items {
		if Matches(sel, d, env) {
			return true
		}
	}
	return false
}

// NextGroup returns the earliest day on or after d that matches any selector of g.
func NextGroup(g ohdata.SelectorGroup, d civil.Date, env Env) civil.Date {
	next := civil.Never
	for _, sel := range g.Items {
		next = civil.Min(next, Next(sel, d, env))
		if next == d {
			break
		}
	}
	return next
}

// MatchesRule reports whether d matches every selector group of r.
// A rule without selectors matches every day.
func MatchesRule(r ohdata.Rule, d civil.Date, env Env) bool {
	for _, g := range r.Groups {
		if !MatchesGroup(g, d, env) {
			return false
		}
	}
	return true
}

// NextRule returns the earliest day on or after d on which r may match.
func NextRule(r ohdata.Rule, d civil.Date, env Env) civil.Date {
	if len(r.Groups) == 0 {
		return d
	}
	cand := d
	for i := 0; i < maxRuleIterations; i++ {
		advanced := false
		for _, g := range r.Groups {
			next := NextGroup(g, cand, env)
			if next == civil.Never {
				return civil.Never
			}
			if next != cand {
				cand = next
				advanced = true
			}
		}
		if !advanced {
			return cand
		}
	}
	return cand
}

// NeverMatches reports whether sel cannot match any day, e.g. Feb 30.
func NeverMatches(sel ohdata.Selector) bool {
	m, ok := sel.(ohdata.MonthDayRange)
	if !ok || m.OpenEnd || m.From != m.To {
		return false
	}
	p := m.From
	// 2000 is a leap year, so Feb 29 is possible.
	return !p.Easter && p.Day > civil.DaysInMonth(p.Month, 2000)
}

func inWeekdayRange(w time.Weekday, s ohdata.WeekdayRange) bool {
	pos := (int(w) - int(s.From) + 7) % 7
	length := (int(s.To) - int(s.From) + 7) % 7
	if pos > length {
		return false
	}
	return s.Step <= 1 || pos%s.Step == 0
}

func matchWeekday(s ohdata.WeekdayRange, d civil.Date) bool {
	base := d.AddDays(-s.Offset)
	if !inWeekdayRange(base.Weekday(), s) {
		return false
	}
	if len(s.Nth) == 0 {
		return true
	}
	fromStart, fromEnd := civil.NthOfMonth(base)
	for _, n := range s.Nth {
		pos := fromStart
		if n.From < 0 {
			pos = fromEnd
		}
		if pos >= n.From && pos <= n.To {
			return true
		}
	}
	return false
}

func nextWeekday(s ohdata.WeekdayRange, d civil.Date) civil.Date {
	horizon := 7
	if len(s.Nth) > 0 {
		horizon = weekdayHorizon
	}
	for i := 0; i < horizon; i++ {
		if c := d.AddDays(i); matchWeekday(s, c) {
			return c
		}
	}
	return civil.Never
}

func matchHoliday(s ohdata.HolidaySelector, d civil.Date, env Env) bool {
	if env.Holidays == nil {
		return false
	}
	_, ok := env.Holidays.Holiday(s.Kind, d.AddDays(-s.Offset))
	return ok
}

// HolidayName returns the name of the holiday s matches on d.
func HolidayName(s ohdata.HolidaySelector, d civil.Date, env Env) (string, bool) {
	if env.Holidays == nil {
		return "", false
	}
	return env.Holidays.Holiday(s.Kind, d.AddDays(-s.Offset))
}

func nextHoliday(s ohdata.HolidaySelector, d civil.Date, env Env) civil.Date {
	if env.Holidays == nil {
		return civil.Never
	}
	next, ok := env.Holidays.NextHoliday(s.Kind, d.AddDays(-s.Offset))
	if !ok {
		return civil.Never
	}
	return next.AddDays(s.Offset)
}

func matchWeek(s ohdata.WeekRange, d civil.Date) bool {
	y, w := d.ISOWeek()
	var pos int
	switch {
	case s.From <= s.To && w >= s.From && w <= s.To:
		pos = w - s.From
	case s.From > s.To && w >= s.From:
		pos = w - s.From
	case s.From > s.To && w <= s.To:
		// The range continues in the next ISO year.
		pos = w + civil.ISOWeeksInYear(y-1) - s.From
	default:
		return false
	}
	return s.Step <= 1 || pos%s.Step == 0
}

func nextWeek(s ohdata.WeekRange, d civil.Date) civil.Date {
	// Week 53 exists only in some years, so search a bit more than a year of weeks.
	for i := 0; i < 2*54; i++ {
		if matchWeek(s, d) {
			return d
		}
		d = civil.NextWeekday(d.AddDays(1), time.Monday)
	}
	return civil.Never
}

func matchYear(s ohdata.YearRange, d civil.Date) bool {
	return yearMatches(s, d.Year)
}

func yearMatches(s ohdata.YearRange, y int) bool {
	if y < s.From || (!s.OpenEnd && y > s.To) {
		return false
	}
	return s.Step <= 1 || (y-s.From)%s.Step == 0
}

func nextYear(s ohdata.YearRange, d civil.Date) civil.Date {
	if yearMatches(s, d.Year) {
		return d
	}
	y := d.Year + 1
	if y < s.From {
		y = s.From
	}
	if s.Step > 1 {
		if r := (y - s.From) % s.Step; r != 0 {
			y += s.Step - r
		}
	}
	if !s.OpenEnd && y > s.To {
		return civil.Never
	}
	return civil.Date{Year: y, Month: time.January, Day: 1}
}

// dateRange is an inclusive range of days.
type dateRange struct {
	from, to civil.Date
}

// resolvePoint returns the day p denotes in year y. For the end of a range a
// whole month means its last day; a day beyond the end of the month is
// clamped at the end of a range and moved to the next month at the start.
func resolvePoint(p ohdata.DatePoint, y int, end bool) civil.Date {
	if p.Easter {
		return civil.Easter(y).AddDays(p.Offset)
	}
	var d civil.Date
	switch last := civil.DaysInMonth(p.Month, y); {
	case p.Day == 0 && end, p.Day > last && end:
		d = civil.LastOfMonth(y, p.Month)
	case p.Day == 0:
		d = civil.Date{Year: y, Month: p.Month, Day: 1}
	case p.Day > last:
		d = civil.LastOfMonth(y, p.Month).AddDays(1)
	default:
		d = civil.Date{Year: y, Month: p.Month, Day: p.Day}
	}
	return d.AddDays(p.Offset)
}

// ranges returns the day ranges s covers that start in year y.
func ranges(s ohdata.MonthDayRange, y int) []dateRange {
	from := resolvePoint(s.From, y, false)
	if s.OpenEnd {
		if s.From.Year != 0 {
			return []dateRange{{from, civil.Never}}
		}
		return []dateRange{{from, civil.Date{Year: y, Month: time.December, Day: 31}}}
	}

	single := s.From == s.To
	toYear := y
	if s.To.Year != 0 {
		toYear = s.To.Year
	}
	to := resolvePoint(s.To, toYear, true)
	if to.Before(from) {
		if single || s.To.Year != 0 {
			// An invalid day like Feb 29 in a common year.
			return nil
		}
		to = resolvePoint(s.To, y+1, true)
	}
	return []dateRange{{from, to}}
}

func stepMatches(s ohdata.MonthDayRange, r dateRange, d civil.Date) bool {
	return s.Step <= 1 || r.from.DaysUntil(d)%s.Step == 0
}

// startYears returns the first and last year in which a range of s
// containing or following d may start.
func startYears(s ohdata.MonthDayRange, d civil.Date, horizon int) (first, last int) {
	if s.From.Year != 0 {
		return s.From.Year, s.From.Year
	}
	return d.Year - 1, d.Year + horizon
}

func matchMonthDay(s ohdata.MonthDayRange, d civil.Date) bool {
	first, last := startYears(s, d, 0)
	for y := first; y <= last; y++ {
		for _, r := range ranges(s, y) {
			if d.InRange(r.from, r.to) && stepMatches(s, r, d) {
				return true
			}
		}
	}
	return false
}

func nextMonthDay(s ohdata.MonthDayRange, d civil.Date) civil.Date {
	best := civil.Never
	first, last := startYears(s, d, yearHorizon)
	for y := first; y <= last; y++ {
		if best != civil.Never && y > best.Year {
			break
		}
		for _, r := range ranges(s, y) {
			if r.to.Before(d) {
				continue
			}
			start := civil.Max(r.from, d)
			if s.Step > 1 {
				if rem := r.from.DaysUntil(start) % s.Step; rem != 0 {
					start = start.AddDays(s.Step - rem)
				}
				if start.After(r.to) {
					continue
				}
			}
			best = civil.Min(best, start)
		}
	}
	return best
}
