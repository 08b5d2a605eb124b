// Package holidays provides the public and school holiday definitions that
// resolve the PH and SH selectors of opening_hours values.
//
// Holiday data is a tree of regions. The top level is keyed by lower case
// country codes; each country may define sub-regions:
//
//	de:
//	  PH:
//	    - {name: Neujahrstag, date: "01-01"}
//	    - {name: Karfreitag, easter: -2}
//	  regions:
//	    by:
//	      name: Bayern
//	      SH:
//	        - name: Sommerferien
//	          2024: [8, 5, 9, 16]
//
// Public holidays are rules evaluated for every year. School holidays are
// listed per year as flat [month, day, month, day, ...] lists where each
// group of four numbers is the first and the last day of a holiday period.
//
// The package does not fetch data; load it with Parse, ReadFS or ReadArchive.
package holidays

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ngrash/go-openinghours/internal/civil"
	"github.com/ngrash/go-openinghours/ohdata"
)

// ErrUnknownRegion is returned by Data.Calendar for codes without data.
var ErrUnknownRegion = errors.New("unknown region")

// Data maps lower case country codes to their holiday definitions.
type Data map[string]Region

// Region holds the holidays of a country or one of its sub-regions.
type Region struct {
	Name    string            `yaml:"name,omitempty" json:"name,omitempty"`
	PH      []PublicHoliday   `yaml:"PH,omitempty" json:"PH,omitempty"`
	SH      []SchoolHolidays  `yaml:"SH,omitempty" json:"SH,omitempty"`
	Regions map[string]Region `yaml:"regions,omitempty" json:"regions,omitempty"`
}

// PublicHoliday is a rule that yields at most one day per year.
// Exactly one of Date, Easter or Month/Weekday/Nth defines the day.
type PublicHoliday struct {
	Name string `yaml:"name" json:"name"`
	// Date is a fixed day as "MM-DD".
	Date string `yaml:"date,omitempty" json:"date,omitempty"`
	// Easter is the number of days relative to Easter Sunday.
	Easter *int `yaml:"easter,omitempty" json:"easter,omitempty"`
	// Month, Weekday and Nth select the nth weekday of a month. Negative Nth counts from the end.
	Month   int    `yaml:"month,omitempty" json:"month,omitempty"`
	Weekday string `yaml:"weekday,omitempty" json:"weekday,omitempty"`
	Nth     int    `yaml:"nth,omitempty" json:"nth,omitempty"`
	// Offset shifts the computed day by a number of days.
	Offset int `yaml:"offset,omitempty" json:"offset,omitempty"`
	// From and To restrict the rule to a range of years. Zero means unbounded.
	From int `yaml:"from,omitempty" json:"from,omitempty"`
	To   int `yaml:"to,omitempty" json:"to,omitempty"`
}

// SchoolHolidays is a named school holiday with its periods per year.
type SchoolHolidays struct {
	Name string
	// Years maps a year to a flat list of [month, day, month, day, ...].
	Years map[int][]int
}

// UnmarshalYAML decodes the mapping of a name and year keys.
func (s *SchoolHolidays) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: school holidays must be a mapping", node.Line)
	}
	s.Years = make(map[int][]int)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Value == "name" {
			if err := value.Decode(&s.Name); err != nil {
				return fmt.Errorf("line %d: name: %w", value.Line, err)
			}
			continue
		}
		year, err := strconv.Atoi(key.Value)
		if err != nil {
			return fmt.Errorf("line %d: unexpected key %q", key.Line, key.Value)
		}
		var days []int
		if err := value.Decode(&days); err != nil {
			return fmt.Errorf("line %d: year %d: %w", value.Line, year, err)
		}
		s.Years[year] = days
	}
	return nil
}

// MarshalYAML encodes s in the same layout UnmarshalYAML reads.
func (s SchoolHolidays) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "name"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: s.Name})
	years := make([]int, 0, len(s.Years))
	for y := range s.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		var list yaml.Node
		if err := list.Encode(s.Years[y]); err != nil {
			return nil, err
		}
		list.Style = yaml.FlowStyle
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(y)}, &list)
	}
	return node, nil
}

// Holiday is a single holiday occurrence.
type Holiday struct {
	Kind ohdata.HolidayKind
	Name string
	// Start and End are the first and the last day, at midnight UTC.
	Start, End time.Time
}

// Calendar answers holiday lookups for one region.
// It is immutable and safe for concurrent use.
type Calendar struct {
	code   string
	public []publicRule
	school []schoolPeriod // sorted by start
}

type publicRule struct {
	name    string
	kind    publicRuleKind
	month   time.Month
	day     int
	weekday time.Weekday
	nth     int
	offset  int // days, including the Easter offset
	from    int
	to      int
}

type publicRuleKind int

const (
	ruleFixed publicRuleKind = iota
	ruleEaster
	ruleNthWeekday
)

type schoolPeriod struct {
	name     string
	from, to civil.Date
}

// searchYears bounds the search for the next public holiday.
const searchYears = 100

// Calendar returns the calendar for a region code like "de" or "de-by".
//
// A sub-region inherits the public holidays of its country when it defines
// none; the same applies to school holidays.
func (d Data) Calendar(code string) (*Calendar, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	country, sub, _ := strings.Cut(code, "-")
	c, ok := d[country]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}

	ph, sh := c.PH, c.SH
	if sub != "" {
		r, ok := c.Regions[sub]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
		}
		if len(r.PH) > 0 {
			ph = r.PH
		}
		if len(r.SH) > 0 {
			sh = r.SH
		}
	}
	return NewCalendar(code, ph, sh)
}

// Codes returns the code of every country and sub-region in d, sorted.
func (d Data) Codes() []string {
	var codes []string
	for country, r := range d {
		codes = append(codes, country)
		for sub := range r.Regions {
			codes = append(codes, country+"-"+sub)
		}
	}
	sort.Strings(codes)
	return codes
}

// NewCalendar compiles holiday definitions into a calendar.
func NewCalendar(code string, ph []PublicHoliday, sh []SchoolHolidays) (*Calendar, error) {
	cal := &Calendar{code: code}
	var errs []error
	for i, h := range ph {
		r, err := compilePublic(h)
		if err != nil {
			errs = append(errs, fmt.Errorf("PH %d (%s): %w", i, h.Name, err))
			continue
		}
		cal.public = append(cal.public, r)
	}
	for _, h := range sh {
		periods, err := compileSchool(h)
		if err != nil {
			errs = append(errs, fmt.Errorf("SH %s: %w", h.Name, err))
			continue
		}
		cal.school = append(cal.school, periods...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.Slice(cal.school, func(i, j int) bool {
		return cal.school[i].from.Before(cal.school[j].from)
	})
	return cal, nil
}

func compilePublic(h PublicHoliday) (publicRule, error) {
	r := publicRule{name: h.Name, offset: h.Offset, from: h.From, to: h.To}
	if h.Name == "" {
		return r, fmt.Errorf("missing name")
	}
	if h.From != 0 && h.To != 0 && h.To < h.From {
		return r, fmt.Errorf("year range %d-%d is reversed", h.From, h.To)
	}

	forms := 0
	if h.Date != "" {
		forms++
		t, err := time.Parse("01-02", h.Date)
		if err != nil {
			return r, fmt.Errorf("date %q: %w", h.Date, err)
		}
		r.kind, r.month, r.day = ruleFixed, t.Month(), t.Day()
	}
	if h.Easter != nil {
		forms++
		r.kind = ruleEaster
		r.offset += *h.Easter
	}
	if h.Month != 0 || h.Weekday != "" || h.Nth != 0 {
		forms++
		if h.Month < 1 || h.Month > 12 {
			return r, fmt.Errorf("month %d out of range", h.Month)
		}
		wd, err := parseWeekday(h.Weekday)
		if err != nil {
			return r, err
		}
		if h.Nth == 0 || h.Nth < -5 || h.Nth > 5 {
			return r, fmt.Errorf("nth %d out of range", h.Nth)
		}
		r.kind, r.month, r.weekday, r.nth = ruleNthWeekday, time.Month(h.Month), wd, h.Nth
	}
	if forms != 1 {
		return r, fmt.Errorf("expected exactly one of date, easter or month/weekday/nth, got %d", forms)
	}
	return r, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	if len(s) >= 2 {
		prefix := strings.ToLower(s[:2])
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if strings.ToLower(wd.String()[:2]) == prefix {
				return wd, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

func compileSchool(h SchoolHolidays) ([]schoolPeriod, error) {
	if h.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	var (
		periods []schoolPeriod
		errs    []error
	)
	years := make([]int, 0, len(h.Years))
	for y := range h.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, year := range years {
		days := h.Years[year]
		if len(days)%4 != 0 {
			errs = append(errs, fmt.Errorf("year %d: expected groups of four numbers, got %d numbers", year, len(days)))
			continue
		}
		for i := 0; i < len(days); i += 4 {
			from, err := schoolDate(year, days[i], days[i+1])
			if err != nil {
				errs = append(errs, fmt.Errorf("year %d: %w", year, err))
				continue
			}
			to, err := schoolDate(year, days[i+2], days[i+3])
			if err != nil {
				errs = append(errs, fmt.Errorf("year %d: %w", year, err))
				continue
			}
			if to.Before(from) {
				// Winter holidays continue into the next year.
				to.Year++
			}
			periods = append(periods, schoolPeriod{name: h.Name, from: from, to: to})
		}
	}
	return periods, errors.Join(errs...)
}

func schoolDate(year, month, day int) (civil.Date, error) {
	if month < 1 || month > 12 {
		return civil.Date{}, fmt.Errorf("month %d out of range", month)
	}
	if day < 1 || day > civil.DaysInMonth(time.Month(month), year) {
		return civil.Date{}, fmt.Errorf("day %d out of range for month %d", day, month)
	}
	return civil.Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// in returns the day the rule yields in year.
func (r publicRule) in(year int) (civil.Date, bool) {
	if (r.from != 0 && year < r.from) || (r.to != 0 && year > r.to) {
		return civil.Date{}, false
	}
	var d civil.Date
	switch r.kind {
	case ruleFixed:
		if r.day > civil.DaysInMonth(r.month, year) {
			return civil.Date{}, false
		}
		d = civil.Date{Year: year, Month: r.month, Day: r.day}
	case ruleEaster:
		d = civil.Easter(year)
	case ruleNthWeekday:
		var ok bool
		if d, ok = civil.NthWeekday(year, r.month, r.weekday, r.nth); !ok {
			return civil.Date{}, false
		}
	}
	return d.AddDays(r.offset), true
}

// Code returns the region code of the calendar.
func (c *Calendar) Code() string {
	return c.code
}

// Has reports whether the calendar defines any holidays of kind.
func (c *Calendar) Has(kind ohdata.HolidayKind) bool {
	if c == nil {
		return false
	}
	switch kind {
	case ohdata.PublicHoliday:
		return len(c.public) > 0
	case ohdata.SchoolHoliday:
		return len(c.school) > 0
	}
	return false
}

// Holiday returns the name of the holiday of kind on d.
func (c *Calendar) Holiday(kind ohdata.HolidayKind, d civil.Date) (string, bool) {
	if c == nil {
		return "", false
	}
	switch kind {
	case ohdata.PublicHoliday:
		for _, r := range c.public {
			for y := d.Year - 1; y <= d.Year+1; y++ {
				if y != d.Year && r.offset == 0 {
					continue
				}
				if hd, ok := r.in(y); ok && hd == d {
					return r.name, true
				}
			}
		}
	case ohdata.SchoolHoliday:
		i := sort.Search(len(c.school), func(i int) bool { return d.Before(c.school[i].from) })
		// Periods may overlap; check all that start on or before d.
		for j := i - 1; j >= 0; j-- {
			if !d.After(c.school[j].to) {
				return c.school[j].name, true
			}
		}
	}
	return "", false
}

// NextHoliday returns the first day on or after d that is a holiday of kind.
func (c *Calendar) NextHoliday(kind ohdata.HolidayKind, d civil.Date) (civil.Date, bool) {
	if c == nil {
		return civil.Never, false
	}
	switch kind {
	case ohdata.PublicHoliday:
		best, found := civil.Never, false
		for y := d.Year - 1; y <= d.Year+searchYears; y++ {
			if found && y > best.Year+1 {
				break
			}
			for _, r := range c.public {
				hd, ok := r.in(y)
				if ok && !hd.Before(d) && hd.Before(best) {
					best, found = hd, true
				}
			}
		}
		return best, found
	case ohdata.SchoolHoliday:
		best, found := civil.Never, false
		for _, p := range c.school {
			if p.from.After(best) {
				break
			}
			if p.to.Before(d) {
				continue
			}
			if start := civil.Max(p.from, d); start.Before(best) {
				best, found = start, true
			}
		}
		return best, found
	}
	return civil.Never, false
}

// PublicHoliday returns the name of the public holiday on the date of t.
func (c *Calendar) PublicHoliday(t time.Time) (string, bool) {
	return c.Holiday(ohdata.PublicHoliday, civil.Of(t))
}

// SchoolHoliday returns the name of the school holiday on the date of t.
func (c *Calendar) SchoolHoliday(t time.Time) (string, bool) {
	return c.Holiday(ohdata.SchoolHoliday, civil.Of(t))
}

// HolidaysBetween returns the holidays of kind that overlap the dates of
// [from, to], both inclusive, sorted by start. If from is after to, it returns nil.
func (c *Calendar) HolidaysBetween(kind ohdata.HolidayKind, from, to time.Time) []Holiday {
	fromD, toD := civil.Of(from), civil.Of(to)
	if c == nil || toD.Before(fromD) {
		return nil
	}
	var result []Holiday
	switch kind {
	case ohdata.PublicHoliday:
		for y := fromD.Year - 1; y <= toD.Year+1; y++ {
			for _, r := range c.public {
				if hd, ok := r.in(y); ok && hd.InRange(fromD, toD) {
					result = append(result, Holiday{Kind: kind, Name: r.name, Start: hd.In(time.UTC), End: hd.In(time.UTC)})
				}
			}
		}
	case ohdata.SchoolHoliday:
		for _, p := range c.school {
			if p.from.After(toD) || p.to.Before(fromD) {
				continue
			}
			result = append(result, Holiday{Kind: kind, Name: p.name, Start: p.from.In(time.UTC), End: p.to.In(time.UTC)})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return result
}
