// Package sunevent resolves sunrise, sunset, dawn and dusk for a place and day.
package sunevent

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/ngrash/go-openinghours/internal/civil"
	"github.com/ngrash/go-openinghours/ohdata"
)

// civilTwilight is the solar elevation in degrees that defines dawn and dusk.
const civilTwilight = -6

// Resolver computes solar events at a fixed place.
type Resolver struct {
	Latitude  float64
	Longitude float64
}

// Minutes returns the time of event on day d as minutes after midnight in loc.
// ok is false if the event does not occur on d, e.g. no sunset during the polar day.
func (r Resolver) Minutes(d civil.Date, event ohdata.Event, loc *time.Location) (minutes int, ok bool) {
	midnight := d.In(loc)
	// The UTC day the library computes for can differ from the local day,
	// so the neighboring days are tried as well.
	for _, delta := range [...]int{0, -1, 1} {
		t := r.instant(d.AddDays(delta), event)
		if t.IsZero() {
			continue
		}
		if civil.Of(t.In(loc)) != d {
			continue
		}
		return int(t.Sub(midnight) / time.Minute), true
	}
	return 0, false
}

// instant returns the UTC instant of event on the UTC day d, or the zero time.
func (r Resolver) instant(d civil.Date, event ohdata.Event) time.Time {
	switch event {
	case ohdata.EventSunrise, ohdata.EventSunset:
		rise, set := sunrise.SunriseSunset(r.Latitude, r.Longitude, d.Year, d.Month, d.Day)
		if event == ohdata.EventSunrise {
			return rise
		}
		return set
	case ohdata.EventDawn, ohdata.EventDusk:
		morning, evening := sunrise.TimeOfElevation(r.Latitude, r.Longitude, civilTwilight, d.Year, d.Month, d.Day)
		if event == ohdata.EventDawn {
			return morning
		}
		return evening
	}
	return time.Time{}
}
