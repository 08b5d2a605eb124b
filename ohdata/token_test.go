package ohdata

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type tok struct {
	Kind  TokenKind
	Text  string
	Value int
	Str   string
}

func simplify(tokens []Token) []tok {
	out := make([]tok, len(tokens))
	for i, t := range tokens {
		out[i] = tok{t.Kind, t.Text, t.Value, t.Str}
	}
	return out
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []tok
	}{
		{
			in: "Mo-Fr 09:00-17:30",
			want: []tok{
				{TokenWeekday, "Mo", int(time.Monday), "mo"},
				{TokenPunct, "-", 0, "-"},
				{TokenWeekday, "Fr", int(time.Friday), "fr"},
				{TokenTime, "09:00", 9 * 60, ""},
				{TokenPunct, "-", 0, "-"},
				{TokenTime, "17:30", 17*60 + 30, ""},
			},
		},
		{
			in: "24/7",
			want: []tok{
				{TokenKeyword, "24/7", 0, "24/7"},
			},
		},
		{
			in: `PH off "closed for holidays"`,
			want: []tok{
				{TokenHoliday, "PH", int(PublicHoliday), "ph"},
				{TokenKeyword, "off", 0, "off"},
				{TokenComment, `"closed for holidays"`, 0, "closed for holidays"},
			},
		},
		{
			in: "Monday,WEDNESDAY Dec 24",
			want: []tok{
				{TokenWeekday, "Monday", int(time.Monday), "monday"},
				{TokenPunct, ",", 0, ","},
				{TokenWeekday, "WEDNESDAY", int(time.Wednesday), "wednesday"},
				{TokenMonth, "Dec", int(time.December), "dec"},
				{TokenNumber, "24", 24, ""},
			},
		},
		{
			in: "(sunset-01:00)",
			want: []tok{
				{TokenPunct, "(", 0, "("},
				{TokenEvent, "sunset", int(EventSunset), "sunset"},
				{TokenPunct, "-", 0, "-"},
				{TokenTime, "01:00", 60, ""},
				{TokenPunct, ")", 0, ")"},
			},
		},
		{
			in: "Mo 10:00-12:00 || by appointment; Su off",
			want: []tok{
				{TokenWeekday, "Mo", int(time.Monday), "mo"},
				{TokenTime, "10:00", 600, ""},
				{TokenPunct, "-", 0, "-"},
				{TokenTime, "12:00", 720, ""},
				{TokenPunct, "||", 0, "||"},
				{TokenComment, "by appointment", 0, "by appointment"},
				{TokenPunct, ";", 0, ";"},
				{TokenWeekday, "Su", int(time.Sunday), "su"},
				{TokenKeyword, "off", 0, "off"},
			},
		},
		{
			in: "easter -2 days",
			want: []tok{
				{TokenKeyword, "easter", 0, "easter"},
				{TokenPunct, "-", 0, "-"},
				{TokenNumber, "2", 2, ""},
				{TokenKeyword, "days", 0, "day"},
			},
		},
		{
			in: "Mo 10:00 & lunch",
			want: []tok{
				{TokenWeekday, "Mo", int(time.Monday), "mo"},
				{TokenTime, "10:00", 600, ""},
				{TokenUnknown, "&", 0, ""},
				{TokenIdent, "lunch", 0, "lunch"},
			},
		},
		{
			in: "Mo-Fr 09:00-17:00 by appointment ; Sa[1] on request",
			want: []tok{
				{TokenWeekday, "Mo", int(time.Monday), "mo"},
				{TokenPunct, "-", 0, "-"},
				{TokenWeekday, "Fr", int(time.Friday), "fr"},
				{TokenTime, "09:00", 9 * 60, ""},
				{TokenPunct, "-", 0, "-"},
				{TokenTime, "17:00", 17 * 60, ""},
				{TokenComment, "by appointment", 0, "by appointment"},
				{TokenPunct, ";", 0, ";"},
				{TokenWeekday, "Sa", int(time.Saturday), "sa"},
				{TokenPunct, "[", 0, "["},
				{TokenNumber, "1", 1, ""},
				{TokenPunct, "]", 0, "]"},
				{TokenComment, "on request", 0, "on request"},
			},
		},
		{
			in: "foo bar",
			want: []tok{
				{TokenIdent, "foo", 0, "foo"},
				{TokenIdent, "bar", 0, "bar"},
			},
		},
		{
			in: "Mo–Fr",
			want: []tok{
				{TokenWeekday, "Mo", int(time.Monday), "mo"},
				{TokenPunct, "–", 0, "-"},
				{TokenWeekday, "Fr", int(time.Friday), "fr"},
			},
		},
	}
	for _, c := range cases {
		got := simplify(Tokenize(c.in))
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestTokenize_Offsets(t *testing.T) {
	in := "Sa  10:00-12:00"
	var got []int
	for _, tok := range Tokenize(in) {
		got = append(got, tok.Offset)
	}
	want := []int{0, 4, 9, 10}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_Total(t *testing.T) {
	inputs := []string{"", "   ", `"unterminated`, "|", "12:", "99999999999999999999999", "Mo§"}
	for _, in := range inputs {
		// Every byte of input is either whitespace or part of a token.
		covered := 0
		for _, tok := range Tokenize(in) {
			covered += len(tok.Text)
		}
		if covered > len(in) {
			t.Errorf("Tokenize(%q) covered %d bytes of %d", in, covered, len(in))
		}
	}
}

func TestParseWeekday(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Weekday
		wantErr bool
	}{
		{"mo", time.Monday, false},
		{"mon", time.Monday, false},
		{"monday", time.Monday, false},
		{"su", time.Sunday, false},
		{"th", time.Thursday, false},
		{"m", 0, true},
		{"mondays", 0, true},
		{"sunrise", 0, true},
	}
	for _, c := range cases {
		got, err := parseWeekday(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("parseWeekday(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if got != c.want {
			t.Errorf("parseWeekday(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Month
		wantErr bool
	}{
		{"jan", time.January, false},
		{"january", time.January, false},
		{"jun", time.June, false},
		{"jul", time.July, false},
		{"sept", time.September, false},
		{"ju", 0, true},
		{"mai", 0, true},
	}
	for _, c := range cases {
		got, err := parseMonth(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("parseMonth(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if got != c.want {
			t.Errorf("parseMonth(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
