// Package openinghours evaluates OpenStreetMap opening_hours values.
//
// A Schedule is built from a value with New and answers questions about a
// time range: the open, closed and unknown intervals it contains, the state
// at an instant and the next change of state.
//
//	s, err := openinghours.New("Mo-Fr 09:00-17:00; PH off", openinghours.WithHolidays(cal))
//	if err != nil {
//		return err
//	}
//	ivs, err := s.Intervals(from, to)
//
// Values that contain some malformed rules still produce a Schedule. The
// problems are reported by Warnings. Only a value without any usable rule
// is rejected with an *ohdata.ParseError.
package openinghours

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ngrash/go-openinghours/holidays"
	"github.com/ngrash/go-openinghours/internal/civil"
	"github.com/ngrash/go-openinghours/internal/ohexpand"
	"github.com/ngrash/go-openinghours/internal/ohir"
	"github.com/ngrash/go-openinghours/internal/sunevent"
	"github.com/ngrash/go-openinghours/ohdata"
)

// ErrInvalidRange is returned when the end of a queried range is not after its start.
var ErrInvalidRange = errors.New("invalid range: end must be after start")

// State is the state of a place during an interval.
type State = ohdata.State

const (
	StateClosed  = ohdata.StateClosed
	StateOpen    = ohdata.StateOpen
	StateUnknown = ohdata.StateUnknown
)

// Warning describes a problem with a value that did not prevent evaluation.
type Warning = ohdata.Warning

// Interval is a half-open time range [Start, End) with a single state.
type Interval struct {
	Start   time.Time
	End     time.Time
	State   State
	Comment string
}

func (iv Interval) String() string {
	s := fmt.Sprintf("%s - %s %s", iv.Start.Format(time.DateTime), iv.End.Format(time.DateTime), iv.State)
	if iv.Comment != "" {
		s += fmt.Sprintf(" %q", iv.Comment)
	}
	return s
}

// DefaultState is the state of times no rule covers.
type DefaultState int

func (d DefaultState) String() string {
	switch d {
	case DefaultAuto:
		return "auto"
	case DefaultClosed:
		return "closed"
	case DefaultUnknown:
		return "unknown"
	default:
		return "<UNDEFINED>"
	}
}

const (
	// DefaultAuto is unknown if every rule is closed or off and closed otherwise.
	// "Th[3] off" says nothing about the other days, "Mo-Fr 09:00-17:00" does.
	DefaultAuto DefaultState = iota
	DefaultClosed
	DefaultUnknown
)

// ParseDefaultState parses the name of a DefaultState as returned by its String method.
func ParseDefaultState(s string) (DefaultState, error) {
	for _, d := range []DefaultState{DefaultAuto, DefaultClosed, DefaultUnknown} {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid default state %q", s)
}

// Coordinates locate a place for sunrise, sunset, dawn and dusk.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Config holds everything a Schedule depends on besides the value itself.
type Config struct {
	// Holidays resolves PH and SH. Without it holiday selectors never match.
	Holidays *holidays.Calendar
	// Coordinates resolve solar events. Without them spans using events are ignored.
	Coordinates *Coordinates
	// Locale is a BCP 47 tag selecting the language of warnings. Defaults to English.
	Locale       string
	DefaultState DefaultState
	// Logger receives debug output. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Option configures a Schedule.
type Option func(*Config)

func WithHolidays(cal *holidays.Calendar) Option {
	return func(c *Config) { c.Holidays = cal }
}

func WithCoordinates(lat, lon float64) Option {
	return func(c *Config) { c.Coordinates = &Coordinates{Latitude: lat, Longitude: lon} }
}

func WithLocale(tag string) Option {
	return func(c *Config) { c.Locale = tag }
}

func WithDefaultState(d DefaultState) Option {
	return func(c *Config) { c.DefaultState = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Schedule is a parsed opening_hours value. It is immutable and safe for concurrent use.
type Schedule struct {
	value        string
	rules        []ohdata.Rule
	warnings     []Warning
	defaultState State
	cfg          Config
	printer      *message.Printer
	logger       *zap.Logger
}

// New parses value and returns its Schedule.
func New(value string, opts ...Option) (*Schedule, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewWithConfig(value, cfg)
}

// NewWithConfig parses value and returns its Schedule configured by cfg.
func NewWithConfig(value string, cfg Config) (*Schedule, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tag := language.English
	if cfg.Locale != "" {
		t, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", cfg.Locale, err)
		}
		tag = t
	}

	rules, warnings, err := ohdata.ParseString(value)
	if err != nil {
		return nil, err
	}
	s := &Schedule{
		value:   value,
		rules:   rules,
		cfg:     cfg,
		printer: newPrinter(tag),
		logger:  logger,
	}
	s.warnings = append(warnings, s.staticWarnings()...)
	s.defaultState = s.resolveDefault()
	for _, w := range s.warnings {
		logger.Debug("opening_hours warning",
			zap.Int("offset", w.Offset),
			zap.String("text", w.Text),
			zap.String("message", w.Message))
	}
	return s, nil
}

func (s *Schedule) resolveDefault() State {
	switch s.cfg.DefaultState {
	case DefaultClosed:
		return StateClosed
	case DefaultUnknown:
		return StateUnknown
	}
	for _, r := range s.rules {
		if r.State() != StateClosed {
			return StateClosed
		}
	}
	return StateUnknown
}

// Value returns the value the Schedule was built from.
func (s *Schedule) Value() string {
	return s.value
}

// Rules returns the parsed rules.
func (s *Schedule) Rules() []ohdata.Rule {
	return append([]ohdata.Rule(nil), s.rules...)
}

// Warnings returns the problems found in the value, rendered in the configured locale.
func (s *Schedule) Warnings() []Warning {
	out := make([]Warning, len(s.warnings))
	for i, w := range s.warnings {
		w.Message = s.printer.Sprintf(w.Format, w.Args...)
		out[i] = w
	}
	return out
}

// Default returns the state of times no rule covers.
func (s *Schedule) Default() State {
	return s.defaultState
}

// env returns the evaluation environment for days in loc.
func (s *Schedule) env(loc *time.Location) ohir.Env {
	var env ohir.Env
	if s.cfg.Holidays != nil {
		env.Holidays = s.cfg.Holidays
	}
	if c := s.cfg.Coordinates; c != nil {
		r := sunevent.Resolver{Latitude: c.Latitude, Longitude: c.Longitude}
		env.Events = func(d civil.Date, e ohdata.Event) (int, bool) {
			return r.Minutes(d, e, loc)
		}
	}
	return env
}

// nextCandidate returns the earliest day on or after d on which any rule may match.
func (s *Schedule) nextCandidate(d civil.Date, env ohexpand.Env) civil.Date {
	next := civil.Never
	for _, r := range s.rules {
		if r.AlwaysOpen {
			return d
		}
		next = civil.Min(next, ohexpand.NextRule(r, d, env))
		if next == d {
			break
		}
	}
	return next
}
