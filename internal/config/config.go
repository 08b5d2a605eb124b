// Package config loads the configuration of the oh command from TOML.
//
//	locale = "de"
//	timezone = "Europe/Berlin"
//	default_state = "auto"
//	output = "text"
//
//	[holidays]
//	path = "/usr/share/openinghours/holidays"
//	region = "de-by"
//
//	[location]
//	latitude = 48.137
//	longitude = 11.575
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/ngrash/go-openinghours/holidays"
	"github.com/ngrash/go-openinghours/openinghours"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
	OutputCBOR = "cbor"
)

type Config struct {
	Holidays     Holidays `toml:"holidays"`
	Location     Location `toml:"location"`
	Locale       string   `toml:"locale"`
	Timezone     string   `toml:"timezone"`
	DefaultState string   `toml:"default_state"`
	Output       string   `toml:"output"`
}

type Holidays struct {
	// Path is a directory of holiday files, a single holiday file or a .tar.gz archive of them.
	Path   string `toml:"path"`
	Region string `toml:"region"`
}

type Location struct {
	Latitude  *float64 `toml:"latitude"`
	Longitude *float64 `toml:"longitude"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Timezone:     "Local",
		DefaultState: openinghours.DefaultAuto.String(),
		Output:       OutputText,
	}
}

// Load reads the TOML file at path on top of Default.
// Keys the configuration does not know are an error.
func Load(path string) (Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return c, nil
}

// Validate checks every value and returns all problems joined.
func (c Config) Validate() error {
	var errs []error
	if _, err := openinghours.ParseDefaultState(c.DefaultState); err != nil {
		errs = append(errs, err)
	}
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML, OutputCBOR:
	default:
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	}
	if (c.Location.Latitude == nil) != (c.Location.Longitude == nil) {
		errs = append(errs, errors.New("location needs both latitude and longitude"))
	}
	if lat := c.Location.Latitude; lat != nil && (*lat < -90 || *lat > 90) {
		errs = append(errs, fmt.Errorf("latitude %v out of range", *lat))
	}
	if lon := c.Location.Longitude; lon != nil && (*lon < -180 || *lon > 180) {
		errs = append(errs, fmt.Errorf("longitude %v out of range", *lon))
	}
	return errors.Join(errs...)
}

// TimeLocation returns the time zone in which days are evaluated.
func (c Config) TimeLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Calendar loads the holiday data and returns the calendar of the configured region.
// It returns nil if no holiday data is configured.
func (c Config) Calendar() (*holidays.Calendar, error) {
	if c.Holidays.Path == "" {
		return nil, nil
	}
	if c.Holidays.Region == "" {
		return nil, errors.New("holidays.path is set but holidays.region is not")
	}
	data, err := c.HolidayData()
	if err != nil {
		return nil, err
	}
	return data.Calendar(c.Holidays.Region)
}

// HolidayData loads every region found at the configured holidays path.
func (c Config) HolidayData() (holidays.Data, error) {
	if c.Holidays.Path == "" {
		return nil, errors.New("no holidays path configured")
	}
	return readHolidays(c.Holidays.Path)
}

func readHolidays(path string) (holidays.Data, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays: %w", err)
	}
	if fi.IsDir() {
		return holidays.ReadFS(os.DirFS(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	if strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz") {
		return holidays.ReadArchive(f)
	}
	format, ok := holidays.FormatOf(name)
	if !ok {
		return nil, fmt.Errorf("read holidays: unsupported file %s", name)
	}
	region, err := holidays.ParseRegion(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	data := holidays.Data{strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))): region}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// Schedule returns the library configuration described by c.
func (c Config) Schedule(logger *zap.Logger) (openinghours.Config, error) {
	def, err := openinghours.ParseDefaultState(c.DefaultState)
	if err != nil {
		return openinghours.Config{}, err
	}
	cal, err := c.Calendar()
	if err != nil {
		return openinghours.Config{}, err
	}
	oc := openinghours.Config{
		Holidays:     cal,
		Locale:       c.Locale,
		DefaultState: def,
		Logger:       logger,
	}
	if c.Location.Latitude != nil && c.Location.Longitude != nil {
		oc.Coordinates = &openinghours.Coordinates{Latitude: *c.Location.Latitude, Longitude: *c.Location.Longitude}
	}
	return oc, nil
}
