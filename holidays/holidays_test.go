package holidays

import (
	"archive/tar"
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"github.com/ngrash/go-openinghours/internal/civil"
	"github.com/ngrash/go-openinghours/ohdata"
)

func readTestdata(t *testing.T) Data {
	t.Helper()
	d, err := ReadFS(os.DirFS("testdata"))
	if err != nil {
		t.Fatalf("ReadFS: %v", err)
	}
	return d
}

func calendar(t *testing.T, code string) *Calendar {
	t.Helper()
	cal, err := readTestdata(t).Calendar(code)
	if err != nil {
		t.Fatalf("Calendar(%q): %v", code, err)
	}
	return cal
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestReadFS(t *testing.T) {
	d := readTestdata(t)
	var codes []string
	for code := range d {
		codes = append(codes, code)
	}
	if len(codes) != 2 || d["de"].Name != "Deutschland" || d["us"].Name != "United States" {
		t.Errorf("ReadFS() codes = %v", codes)
	}
	if got := d["de"].Regions["by"].Name; got != "Bayern" {
		t.Errorf(`Regions["by"].Name = %q, want "Bayern"`, got)
	}
	want := map[int][]int{2024: {8, 5, 9, 16}}
	if diff := cmp.Diff(want, d["de"].Regions["by"].SH[2].Years); diff != "" {
		t.Errorf("Sommerferien mismatch (-want +got):\n%s", diff)
	}
}

func TestCalendar_PublicHoliday(t *testing.T) {
	cases := []struct {
		code   string
		day    civil.Date
		want   string
		wantOK bool
	}{
		{"de", date(2024, time.May, 1), "Tag der Arbeit", true},
		{"de", date(2024, time.March, 29), "Karfreitag", true},
		{"de", date(2024, time.May, 20), "Pfingstmontag", true},
		{"de", date(2024, time.May, 30), "", false},
		{"de-by", date(2024, time.May, 30), "Fronleichnam", true},
		{"de-by", date(2024, time.January, 6), "Heilige Drei Könige", true},
		// Hessen defines no public holidays and inherits those of the country.
		{"de-he", date(2024, time.October, 3), "Tag der Deutschen Einheit", true},
		{"de-he", date(2024, time.January, 6), "", false},
		{"us", date(2024, time.May, 27), "Memorial Day", true},
		{"us", date(2024, time.November, 28), "Thanksgiving Day", true},
		{"us", date(2024, time.November, 29), "Day after Thanksgiving", true},
		{"us", date(2020, time.June, 19), "", false},
		{"us", date(2021, time.June, 19), "Juneteenth", true},
	}
	for _, c := range cases {
		got, ok := calendar(t, c.code).Holiday(ohdata.PublicHoliday, c.day)
		if got != c.want || ok != c.wantOK {
			t.Errorf("%s: Holiday(PH, %v) = %q, %v, want %q, %v", c.code, c.day, got, ok, c.want, c.wantOK)
		}
	}
}

func TestCalendar_SchoolHoliday(t *testing.T) {
	cal := calendar(t, "de-by")
	cases := []struct {
		day    civil.Date
		want   string
		wantOK bool
	}{
		{date(2024, time.August, 5), "Sommerferien", true},
		{date(2024, time.September, 16), "Sommerferien", true},
		{date(2024, time.September, 17), "", false},
		{date(2024, time.December, 31), "Weihnachtsferien", true},
		{date(2025, time.January, 3), "Weihnachtsferien", true},
		{date(2025, time.January, 4), "", false},
	}
	for _, c := range cases {
		got, ok := cal.Holiday(ohdata.SchoolHoliday, c.day)
		if got != c.want || ok != c.wantOK {
			t.Errorf("Holiday(SH, %v) = %q, %v, want %q, %v", c.day, got, ok, c.want, c.wantOK)
		}
	}
	if calendar(t, "de").Has(ohdata.SchoolHoliday) {
		t.Error(`Calendar("de").Has(SH) = true, want false`)
	}
}

func TestCalendar_NextHoliday(t *testing.T) {
	cal := calendar(t, "de-by")
	cases := []struct {
		kind   ohdata.HolidayKind
		from   civil.Date
		want   civil.Date
		wantOK bool
	}{
		{ohdata.PublicHoliday, date(2024, time.May, 2), date(2024, time.May, 9), true},
		{ohdata.PublicHoliday, date(2024, time.May, 9), date(2024, time.May, 9), true},
		{ohdata.PublicHoliday, date(2024, time.December, 27), date(2025, time.January, 1), true},
		{ohdata.SchoolHoliday, date(2024, time.June, 2), date(2024, time.August, 5), true},
		{ohdata.SchoolHoliday, date(2024, time.August, 10), date(2024, time.August, 10), true},
		{ohdata.SchoolHoliday, date(2025, time.January, 4), civil.Never, false},
	}
	for _, c := range cases {
		got, ok := cal.NextHoliday(c.kind, c.from)
		if got != c.want || ok != c.wantOK {
			t.Errorf("NextHoliday(%v, %v) = %v, %v, want %v, %v", c.kind, c.from, got, ok, c.want, c.wantOK)
		}
	}
}

func TestCalendar_Nil(t *testing.T) {
	var cal *Calendar
	if _, ok := cal.Holiday(ohdata.PublicHoliday, date(2024, time.May, 1)); ok {
		t.Error("nil calendar reported a holiday")
	}
	if _, ok := cal.NextHoliday(ohdata.SchoolHoliday, date(2024, time.May, 1)); ok {
		t.Error("nil calendar reported a next holiday")
	}
}

func TestCalendar_HolidaysBetween(t *testing.T) {
	cal := calendar(t, "de")
	got := cal.HolidaysBetween(ohdata.PublicHoliday,
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC))
	utc := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	want := []Holiday{
		{Kind: ohdata.PublicHoliday, Name: "Tag der Arbeit", Start: utc(time.May, 1), End: utc(time.May, 1)},
		{Kind: ohdata.PublicHoliday, Name: "Christi Himmelfahrt", Start: utc(time.May, 9), End: utc(time.May, 9)},
		{Kind: ohdata.PublicHoliday, Name: "Pfingstmontag", Start: utc(time.May, 20), End: utc(time.May, 20)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HolidaysBetween() mismatch (-want +got):\n%s", diff)
	}
}

func TestData_Codes(t *testing.T) {
	want := []string{"de", "de-by", "de-he", "us"}
	if diff := cmp.Diff(want, readTestdata(t).Codes()); diff != "" {
		t.Errorf("Codes() mismatch (-want +got):\n%s", diff)
	}
}

func TestData_Calendar_UnknownRegion(t *testing.T) {
	d := readTestdata(t)
	for _, code := range []string{"fr", "de-xx"} {
		if _, err := d.Calendar(code); !errors.Is(err, ErrUnknownRegion) {
			t.Errorf("Calendar(%q) error = %v, want ErrUnknownRegion", code, err)
		}
	}
	if _, err := d.Calendar("DE-BY"); err != nil {
		t.Errorf(`Calendar("DE-BY"): %v`, err)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		in      string
		wantErr string
	}{
		{`xx: {PH: [{name: A, date: "13-01"}]}`, `date "13-01"`},
		{`xx: {PH: [{name: A}]}`, "expected exactly one of date, easter or month/weekday/nth, got 0"},
		{`xx: {PH: [{name: A, date: "01-01", easter: 1}]}`, "got 2"},
		{`xx: {PH: [{name: A, month: 5, weekday: xx, nth: 1}]}`, `invalid weekday "xx"`},
		{`xx: {SH: [{name: A, 2024: [1, 2, 3]}]}`, "expected groups of four numbers"},
		{`xx: {SH: [{name: A, 2024: [2, 30, 3, 1]}]}`, "day 30 out of range for month 2"},
		{`xx: {SH: [{name: A, summer: [1, 2, 3, 4]}]}`, `unexpected key "summer"`},
		{`xx: {regions: {yy: {PH: [{date: "01-01"}]}}}`, "xx-yy: PH 0 (): missing name"},
		{`xx: {unknown: 1}`, "field unknown not found"},
	}
	for _, c := range cases {
		_, err := Parse(strings.NewReader(c.in), FormatYAML)
		if err == nil || !strings.Contains(err.Error(), c.wantErr) {
			t.Errorf("Parse(%q) error = %v, want containing %q", c.in, err, c.wantErr)
		}
	}
}

func TestReadArchive(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	files := map[string]string{
		"data/at.yaml": "PH:\n  - {name: Staatsfeiertag, date: \"05-01\"}\n",
		"data/NOTICE":  "not holiday data",
	}
	for name, content := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	d, err := ReadArchive(&buf)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	cal, err := d.Calendar("at")
	if err != nil {
		t.Fatal(err)
	}
	if name, ok := cal.Holiday(ohdata.PublicHoliday, date(2024, time.May, 1)); !ok || name != "Staatsfeiertag" {
		t.Errorf("Holiday(PH, 2024-05-01) = %q, %v", name, ok)
	}
}

func TestSchoolHolidays_MarshalYAML(t *testing.T) {
	in := SchoolHolidays{Name: "Sommerferien", Years: map[int][]int{2025: {8, 1, 9, 15}, 2024: {8, 5, 9, 16}}}
	b, err := yaml.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	want := "name: Sommerferien\n2024: [8, 5, 9, 16]\n2025: [8, 1, 9, 15]\n"
	if diff := cmp.Diff(want, string(b)); diff != "" {
		t.Errorf("Marshal() mismatch (-want +got):\n%s", diff)
	}
}
