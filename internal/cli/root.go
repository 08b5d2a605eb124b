// Package cli implements the oh command.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ngrash/go-openinghours/internal/config"
	"github.com/ngrash/go-openinghours/openinghours"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	stdout, stderr io.Writer

	cfgFile string
	verbose bool

	cfg    config.Config
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// Execute runs the oh command with args.
func Execute(args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// NewRootCommand returns the oh command writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, cfg: config.Default(), now: time.Now}
	root := &cobra.Command{
		Use:   "oh",
		Short: "Evaluate OpenStreetMap opening_hours values",
		Long: `oh parses opening_hours values and prints the open, closed and unknown
intervals they describe.

Examples:
  oh intervals "Mo-Fr 09:00-17:00; PH off" --holidays ./holidays --region de-by
  oh state "Mo-Sa 08:00-20:00" --at 2024-05-04T19:30
  oh check "Mo-Fr 09:00-17:00; Sa 10:00-25:00"`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (TOML)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	f.String("holidays", "", "holiday data: directory, file or .tar.gz archive")
	f.String("region", "", "holiday region, e.g. de-by")
	f.Float64("lat", 0, "latitude for sunrise, sunset, dawn and dusk")
	f.Float64("lon", 0, "longitude for sunrise, sunset, dawn and dusk")
	f.String("locale", "", "language of warnings, e.g. de")
	f.String("tz", "", "time zone in which days start, e.g. Europe/Berlin")
	f.String("default", "", "state where no rule applies: auto, closed or unknown")
	f.StringP("output", "o", "", "output format: text, json, yaml or cbor")

	root.AddCommand(
		a.intervalsCommand(),
		a.stateCommand(),
		a.checkCommand(),
		a.diffCommand(),
		a.exportCommand(),
	)
	return root
}

// setup loads the configuration, applies flags on top and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		c, err := config.Load(a.cfgFile)
		if err != nil {
			return err
		}
		a.cfg = c
	}
	if err := a.applyFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := a.cfg.TimeLocation()
	if err != nil {
		return err
	}
	a.loc = loc
	a.logger = newLogger(a.stderr, a.verbose)
	return nil
}

func (a *app) applyFlags(f *pflag.FlagSet) error {
	strs := map[string]*string{
		"holidays": &a.cfg.Holidays.Path,
		"region":   &a.cfg.Holidays.Region,
		"locale":   &a.cfg.Locale,
		"tz":       &a.cfg.Timezone,
		"default":  &a.cfg.DefaultState,
		"output":   &a.cfg.Output,
	}
	for name, dst := range strs {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	floats := map[string]**float64{
		"lat": &a.cfg.Location.Latitude,
		"lon": &a.cfg.Location.Longitude,
	}
	for name, dst := range floats {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetFloat64(name)
		if err != nil {
			return err
		}
		*dst = &v
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	enc := zapcore.NewJSONEncoder(encCfg)
	level := zapcore.WarnLevel
	if verbose {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
		level = zapcore.DebugLevel
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

// schedule parses value with the configured holidays, location and locale.
func (a *app) schedule(value string) (*openinghours.Schedule, error) {
	oc, err := a.cfg.Schedule(a.logger)
	if err != nil {
		return nil, err
	}
	return openinghours.NewWithConfig(value, oc)
}

// printWarnings writes the warnings of s to stderr.
func (a *app) printWarnings(s *openinghours.Schedule) {
	for _, w := range s.Warnings() {
		fmt.Fprintf(a.stderr, "warning: %s\n", w)
	}
}

// timeLayouts are the accepted formats of time flags, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// parseTime parses a time flag in the configured time zone.
func (a *app) parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, a.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, want e.g. 2024-05-01 or 2024-05-01T09:30", s)
}

// rangeFlags are --from and --to shared by the commands that evaluate a range.
type rangeFlags struct {
	from, to string
}

func (r *rangeFlags) register(cmd *cobra.Command, defaultDays int) {
	cmd.Flags().StringVar(&r.from, "from", "", "start of the range (default today)")
	cmd.Flags().StringVar(&r.to, "to", "", fmt.Sprintf("end of the range, exclusive (default from + %d days)", defaultDays))
}

func (a *app) resolveRange(r rangeFlags, defaultDays int) (from, to time.Time, err error) {
	if r.from == "" {
		now := a.now().In(a.loc)
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	} else if from, err = a.parseTime(r.from); err != nil {
		return
	}
	if r.to == "" {
		to = from.AddDate(0, 0, defaultDays)
	} else if to, err = a.parseTime(r.to); err != nil {
		return
	}
	return from, to, nil
}
