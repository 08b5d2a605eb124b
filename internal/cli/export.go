package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngrash/go-openinghours/internal/config"
	"github.com/ngrash/go-openinghours/ohdata"
	"github.com/ngrash/go-openinghours/openinghours"
)

type exportOptions struct {
	public, school   bool
	fromYear, toYear int
	omitHyphens      bool
	allLocations     bool
}

func (o exportOptions) value() string {
	if o.school {
		return "SH"
	}
	return "PH"
}

// exportBlock is the export of one region.
type exportBlock struct {
	code string
	ivs  []openinghours.Interval
}

// exportCommand writes the public or school holidays of the configured
// region, one line per holiday. Public holidays are printed as
// "YYYY-MM-DD name", school holidays as "YYYY-MM-DD--YYYY-MM-DD name".
// With --all-locations every region of the holiday data is written, each
// block headed by a "code:" line.
func (a *app) exportCommand() *cobra.Command {
	var opts exportOptions
	year := time.Now().Year()
	cmd := &cobra.Command{
		Use:   "export OUTPUT",
		Short: "Export the public or school holidays of a region, - writes to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.toYear < opts.fromYear {
				return fmt.Errorf("--to-year %d is before --from-year %d", opts.toYear, opts.fromYear)
			}
			if a.cfg.Holidays.Path == "" {
				return errors.New("export needs holiday data, set --holidays and --region")
			}
			var (
				blocks []exportBlock
				err    error
			)
			if opts.allLocations {
				blocks, err = a.exportAll(opts)
			} else {
				blocks, err = a.exportRegion(opts)
			}
			if err != nil {
				return err
			}

			n, err := a.writeExport(args[0], blocks, opts)
			if err != nil {
				return err
			}
			a.logger.Info("exported holidays",
				zap.String("kind", opts.value()),
				zap.Int("regions", len(blocks)),
				zap.Int("lines", n))
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.public, "ph", false, "export public holidays")
	f.BoolVar(&opts.school, "sh", false, "export school holidays")
	f.IntVar(&opts.fromYear, "from-year", year, "first year to export")
	f.IntVar(&opts.toYear, "to-year", year, "last year to export")
	f.BoolVar(&opts.omitHyphens, "omit-hyphens", false, "write dates as YYYYMMDD")
	f.BoolVarP(&opts.allLocations, "all-locations", "a", false, "export every region of the holiday data")
	cmd.MarkFlagsMutuallyExclusive("ph", "sh")
	cmd.MarkFlagsOneRequired("ph", "sh")
	return cmd
}

func (a *app) exportRange(opts exportOptions) (from, to time.Time) {
	from = time.Date(opts.fromYear, time.January, 1, 0, 0, 0, 0, a.loc)
	to = time.Date(opts.toYear+1, time.January, 1, 0, 0, 0, 0, a.loc)
	return from, to
}

func (a *app) exportRegion(opts exportOptions) ([]exportBlock, error) {
	s, err := a.schedule(opts.value())
	if err != nil {
		return nil, err
	}
	ivs, err := s.OpenIntervals(a.exportRange(opts))
	if err != nil {
		return nil, err
	}
	return []exportBlock{{code: a.cfg.Holidays.Region, ivs: ivs}}, nil
}

// exportAll evaluates every region that defines holidays of the requested kind.
func (a *app) exportAll(opts exportOptions) ([]exportBlock, error) {
	data, err := a.cfg.HolidayData()
	if err != nil {
		return nil, err
	}
	base := a.cfg
	base.Holidays = config.Holidays{}
	oc, err := base.Schedule(a.logger)
	if err != nil {
		return nil, err
	}
	kind := ohdata.PublicHoliday
	if opts.school {
		kind = ohdata.SchoolHoliday
	}

	var blocks []exportBlock
	for _, code := range data.Codes() {
		cal, err := data.Calendar(code)
		if err != nil {
			return nil, err
		}
		if !cal.Has(kind) {
			a.logger.Debug("skip region", zap.String("region", code), zap.String("kind", opts.value()))
			continue
		}
		oc.Holidays = cal
		s, err := openinghours.NewWithConfig(opts.value(), oc)
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", code, err)
		}
		ivs, err := s.OpenIntervals(a.exportRange(opts))
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", code, err)
		}
		blocks = append(blocks, exportBlock{code: code, ivs: ivs})
	}
	return blocks, nil
}

// writeExport writes to the file at path, or to stdout if path is "-".
func (a *app) writeExport(path string, blocks []exportBlock, opts exportOptions) (int, error) {
	if path == "-" {
		return writeHolidays(a.stdout, blocks, opts)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := writeHolidays(f, blocks, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func writeHolidays(w io.Writer, blocks []exportBlock, opts exportOptions) (int, error) {
	layout := time.DateOnly
	if opts.omitHyphens {
		layout = "20060102"
	}
	bw := bufio.NewWriter(w)
	n := 0
	for _, b := range blocks {
		if opts.allLocations {
			fmt.Fprintf(bw, "%s:\n", b.code)
		}
		for _, iv := range b.ivs {
			if opts.school {
				last := iv.End.AddDate(0, 0, -1)
				fmt.Fprintf(bw, "%s--%s %s\n", iv.Start.Format(layout), last.Format(layout), iv.Comment)
				n++
				continue
			}
			// Holidays with the same name on consecutive days share an interval.
			for d := iv.Start; d.Before(iv.End); d = d.AddDate(0, 0, 1) {
				fmt.Fprintf(bw, "%s %s\n", d.Format(layout), iv.Comment)
				n++
			}
		}
	}
	return n, bw.Flush()
}
