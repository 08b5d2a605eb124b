package openinghours

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/ngrash/go-openinghours/ohdata"
)

// English messages are the catalog keys themselves.
var translations = map[language.Tag]map[string]string{
	language.German: {
		ohdata.MsgUnexpected:          "unerwartetes %s",
		ohdata.MsgEmptyRule:           "leere Regel",
		ohdata.MsgUnterminatedComment: "nicht abgeschlossener Kommentar",
		ohdata.MsgExpectedTime:        "Uhrzeit erwartet statt %s",
		ohdata.MsgExpectedNumber:      "Zahl erwartet statt %s",
		ohdata.MsgExpectedDate:        "Datum erwartet statt %s",
		ohdata.MsgExpectedEvent:       "sunrise, sunset, dawn oder dusk erwartet statt %s",
		ohdata.MsgExpectedPunct:       "%q erwartet statt %s",
		ohdata.MsgInvalidTime:         "ungültige Uhrzeit %s",
		ohdata.MsgYearOutOfRange:      "Jahr %d liegt außerhalb des gültigen Bereichs",
		ohdata.MsgWeekOutOfRange:      "Woche %d liegt außerhalb des gültigen Bereichs",
		ohdata.MsgDayOutOfRange:       "Tag %d liegt außerhalb des gültigen Bereichs",
		ohdata.MsgNthOutOfRange:       "Vorkommen %d liegt außerhalb des gültigen Bereichs",
		ohdata.MsgReversedRange:       "Bereich %s ist umgekehrt",
		ohdata.MsgInvalidStep:         "Schrittweite %d ist ungültig",
		MsgNoHolidayData:              "%s wird verwendet, aber es sind keine Feiertagsdaten vorhanden, es trifft nie zu",
		MsgNoCoordinates:              "%s wird verwendet, aber es sind keine Koordinaten konfiguriert, der Zeitraum wird ignoriert",
		MsgNeverMatches:               "%s trifft nie zu",
	},
}

var (
	supported = []language.Tag{language.English, language.German}
	matcher   = language.NewMatcher(supported)
	messages  = newCatalog()
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// newPrinter returns a printer for the supported language closest to tag.
func newPrinter(tag language.Tag) *message.Printer {
	_, i, _ := matcher.Match(tag)
	return message.NewPrinter(supported[i], message.Catalog(messages))
}
