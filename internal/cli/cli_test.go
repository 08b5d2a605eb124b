package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const testHolidays = "../../holidays/testdata"

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = Execute(append(args, "--tz", "UTC"), &out, &errOut)
	return out.String(), errOut.String(), err
}

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

var weekdayRecords = []intervalRecord{
	{Start: utc(2024, time.May, 6, 9, 0), End: utc(2024, time.May, 6, 17, 0), State: "open"},
	{Start: utc(2024, time.May, 7, 9, 0), End: utc(2024, time.May, 7, 17, 0), State: "open"},
}

func TestIntervals_Text(t *testing.T) {
	stdout, stderr, err := run(t, "intervals", "Mo-Fr 09:00-17:00", "--from", "2024-05-06", "--to", "2024-05-08")
	if err != nil {
		t.Fatal(err)
	}
	want := "2024-05-06 09:00:00 - 2024-05-06 17:00:00  open\n" +
		"2024-05-07 09:00:00 - 2024-05-07 17:00:00  open\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want empty", stderr)
	}
}

func TestIntervals_Formats(t *testing.T) {
	decoders := map[string]func([]byte, any) error{
		"json": json.Unmarshal,
		"yaml": yaml.Unmarshal,
		"cbor": cbor.Unmarshal,
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			stdout, _, err := run(t, "intervals", "Mo-Fr 09:00-17:00", "--from", "2024-05-06", "--to", "2024-05-08", "-o", format)
			if err != nil {
				t.Fatal(err)
			}
			var got []intervalRecord
			if err := decode([]byte(stdout), &got); err != nil {
				t.Fatalf("decode %s: %v\n%s", format, err, stdout)
			}
			if diff := cmp.Diff(weekdayRecords, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIntervals_All(t *testing.T) {
	stdout, _, err := run(t, "intervals", `Mo 09:00-17:00 "by appointment"`,
		"--from", "2024-05-06", "--to", "2024-05-07", "--all", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got []intervalRecord
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatal(err)
	}
	want := []intervalRecord{
		{Start: utc(2024, time.May, 6, 0, 0), End: utc(2024, time.May, 6, 9, 0), State: "closed"},
		{Start: utc(2024, time.May, 6, 9, 0), End: utc(2024, time.May, 6, 17, 0), State: "open", Comment: "by appointment"},
		{Start: utc(2024, time.May, 6, 17, 0), End: utc(2024, time.May, 7, 0, 0), State: "closed"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestIntervals_Holidays(t *testing.T) {
	stdout, _, err := run(t, "intervals", "Mo-Fr 09:00-17:00; PH off",
		"--from", "2024-05-01", "--to", "2024-05-02", "--all", "-o", "json",
		"--holidays", testHolidays, "--region", "de-by")
	if err != nil {
		t.Fatal(err)
	}
	var got []intervalRecord
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatal(err)
	}
	want := []intervalRecord{
		{Start: utc(2024, time.May, 1, 0, 0), End: utc(2024, time.May, 2, 0, 0), State: "closed", Comment: "Tag der Arbeit"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestIntervals_Warnings(t *testing.T) {
	_, stderr, err := run(t, "intervals", "Mo-Fr 09:00-17:00; PH off", "--from", "2024-05-06", "--locale", "de")
	if err != nil {
		t.Fatal(err)
	}
	want := "warning: offset 19: \"PH off\": PH wird verwendet, aber es sind keine Feiertagsdaten vorhanden, es trifft nie zu\n"
	if diff := cmp.Diff(want, stderr); diff != "" {
		t.Errorf("stderr mismatch (-want +got):\n%s", diff)
	}
}

func TestState(t *testing.T) {
	stdout, _, err := run(t, "state", "Mo-Fr 09:00-17:00", "--at", "2024-05-06T10:00", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got stateRecord
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatal(err)
	}
	next := utc(2024, time.May, 6, 17, 0)
	want := stateRecord{At: utc(2024, time.May, 6, 10, 0), State: "open", NextChange: &next}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	stdout, _, err = run(t, "state", "Mo-Fr 09:00-17:00", "--at", "2024-05-04 12:00")
	if err != nil {
		t.Fatal(err)
	}
	if want := "2024-05-04 12:00:00  closed  (changes at 2024-05-06 09:00:00)\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestCheck(t *testing.T) {
	stdout, _, err := run(t, "check", "Mo-Fr 09:00-17:00; Sa 10:00-25:99", "--from", "2024-01-01", "-o", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var got checkRecord
	if err := yaml.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Mo-Fr 09:00-17:00"}, got.Rules); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Offset != 28 || !strings.Contains(got.Warnings[0].Message, "25:99") {
		t.Errorf("warnings = %+v, want one about 25:99 at offset 28", got.Warnings)
	}
	if got.Default != "closed" || got.Intervals == 0 {
		t.Errorf("check = %+v", got)
	}

	stdout, _, err = run(t, "check", "Mo-Fr 09:00-17:00", "--from", "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Rules\n", "  1. Mo-Fr 09:00-17:00\n", "Default: closed\n", "intervals OK\n"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout = %q, want containing %q", stdout, want)
		}
	}
}

func TestDiff(t *testing.T) {
	stdout, _, err := run(t, "diff", "Mo-Fr 09:00-17:00", "Mo,Tu,We,Th,Fr 09:00-17:00", "--from", "2024-05-06")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "values are identical\n" {
		t.Errorf("stdout = %q, want identical", stdout)
	}

	stdout, _, err = run(t, "diff", "Mo-Fr 09:00-17:00", "Mo-Fr 09:00-18:00", "--from", "2024-05-06", "--to", "2024-05-07")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "values are different: -A +B\n") {
		t.Errorf("stdout = %q, want different", stdout)
	}

	if _, _, err := run(t, "diff", "Mo-Fr 09:00-17:00", "foo bar"); err == nil || !strings.Contains(err.Error(), "value B") {
		t.Errorf("diff with invalid value B: err = %v", err)
	}
}

func TestExport(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"--sh"}, "2024-03-25--2024-04-06 Osterferien\n" +
			"2024-05-21--2024-06-01 Pfingstferien\n" +
			"2024-08-05--2024-09-16 Sommerferien\n" +
			"2024-12-23--2024-12-31 Weihnachtsferien\n"},
		{[]string{"--sh", "--omit-hyphens"}, "20240325--20240406 Osterferien\n" +
			"20240521--20240601 Pfingstferien\n" +
			"20240805--20240916 Sommerferien\n" +
			"20241223--20241231 Weihnachtsferien\n"},
		{[]string{"--ph"}, "2024-01-01 Neujahrstag\n" +
			"2024-01-06 Heilige Drei Könige\n" +
			"2024-03-29 Karfreitag\n" +
			"2024-04-01 Ostermontag\n" +
			"2024-05-01 Tag der Arbeit\n" +
			"2024-05-09 Christi Himmelfahrt\n" +
			"2024-05-20 Pfingstmontag\n" +
			"2024-05-30 Fronleichnam\n" +
			"2024-10-03 Tag der Deutschen Einheit\n" +
			"2024-11-01 Allerheiligen\n" +
			"2024-12-25 1. Weihnachtstag\n" +
			"2024-12-26 2. Weihnachtstag\n"},
	}
	for _, c := range cases {
		args := append([]string{"export", "-", "--from-year", "2024", "--to-year", "2024",
			"--holidays", testHolidays, "--region", "de-by"}, c.args...)
		stdout, _, err := run(t, args...)
		if err != nil {
			t.Fatalf("export %v: %v", c.args, err)
		}
		if diff := cmp.Diff(c.want, stdout); diff != "" {
			t.Errorf("export %v mismatch (-want +got):\n%s", c.args, diff)
		}
	}
}

func TestExport_AllLocations(t *testing.T) {
	stdout, _, err := run(t, "export", "-", "--sh", "--all-locations", "--from-year", "2024", "--to-year", "2024",
		"--holidays", testHolidays)
	if err != nil {
		t.Fatal(err)
	}
	want := "de-by:\n" +
		"2024-03-25--2024-04-06 Osterferien\n" +
		"2024-05-21--2024-06-01 Pfingstferien\n" +
		"2024-08-05--2024-09-16 Sommerferien\n" +
		"2024-12-23--2024-12-31 Weihnachtsferien\n" +
		"de-he:\n" +
		"2024-07-15--2024-08-23 Sommerferien\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestExport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sh.txt")
	_, _, err := run(t, "export", path, "--sh", "--from-year", "2024", "--to-year", "2024",
		"--holidays", testHolidays, "--region", "de-he")
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "2024-07-15--2024-08-23 Sommerferien\n"; string(got) != want {
		t.Errorf("exported %q, want %q", got, want)
	}
}

func TestErrors(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"export", "-", "--ph"}, "needs holiday data"},
		{[]string{"export", "-", "--ph", "--sh"}, "none of the others can be"},
		{[]string{"export", "-"}, "at least one of the flags"},
		{[]string{"export", "-", "--ph", "--from-year", "2025", "--to-year", "2024"}, "is before"},
		{[]string{"intervals", "Mo 10:00-12:00", "--from", "yesterday"}, `invalid time "yesterday"`},
		{[]string{"intervals", "Mo 10:00-12:00", "--from", "2024-05-06", "--to", "2024-05-06"}, "invalid range"},
		{[]string{"intervals", "Mo 10:00-12:00", "-o", "xml"}, `invalid output format "xml"`},
		{[]string{"intervals", "Mo 10:00-12:00", "--default", "maybe"}, `invalid default state "maybe"`},
		{[]string{"intervals", "Mo 10:00-12:00", "--lat", "52.5"}, "needs both latitude and longitude"},
		{[]string{"intervals", "Mo 10:00-12:00", "--config", "does-not-exist.toml"}, "load config"},
		{[]string{"state"}, "accepts 1 arg(s)"},
	}
	for _, c := range cases {
		_, _, err := run(t, c.args...)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%v: err = %v, want containing %q", c.args, err, c.want)
		}
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oh.toml")
	content := "output = \"json\"\ndefault_state = \"unknown\"\n\n[holidays]\npath = \"" + testHolidays + "\"\nregion = \"de-by\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := run(t, "state", "PH", "--at", "2024-05-01T12:00", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	var got stateRecord
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatal(err)
	}
	if got.State != "open" || got.Comment != "Tag der Arbeit" {
		t.Errorf("state = %+v, want open Tag der Arbeit", got)
	}

	// Flags override the file.
	stdout, _, err = run(t, "state", "PH", "--at", "2024-05-02T12:00", "--config", path, "-o", "text")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "2024-05-02 12:00:00  unknown") {
		t.Errorf("stdout = %q, want unknown in text", stdout)
	}
}
