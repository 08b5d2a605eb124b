package openinghours

import (
	"github.com/ngrash/go-openinghours/internal/ohexpand"
	"github.com/ngrash/go-openinghours/ohdata"
)

// Messages of warnings found while evaluating rules. Like the parser's
// messages they are keys of the translation catalogs.
const (
	MsgNoHolidayData = "%s is used but no holiday data is available, it never matches"
	MsgNoCoordinates = "%s is used but no coordinates are configured, the time span is ignored"
	MsgNeverMatches  = "%s never matches"
)

// staticWarnings reports selectors and spans that can never take effect
// with the configured data. They depend only on the rules and the Config.
func (s *Schedule) staticWarnings() []Warning {
	var (
		out  []Warning
		seen = make(map[string]bool)
	)
	warn := func(r ohdata.Rule, format string, arg string) {
		key := format + "\x00" + arg + "\x00" + r.Text
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, ohdata.NewWarning(r.Offset, r.Text, format, arg))
	}
	for _, r := range s.rules {
		for _, g := range r.Groups {
			for _, sel := range g.Items {
				if h, ok := sel.(ohdata.HolidaySelector); ok && !s.cfg.Holidays.Has(h.Kind) {
					warn(r, MsgNoHolidayData, h.Kind.String())
				}
				if ohexpand.NeverMatches(sel) {
					warn(r, MsgNeverMatches, sel.String())
				}
			}
		}
		if s.cfg.Coordinates != nil {
			continue
		}
		for _, span := range r.Spans {
			if span.IsEventRelative() {
				warn(r, MsgNoCoordinates, span.String())
			}
		}
	}
	return out
}
