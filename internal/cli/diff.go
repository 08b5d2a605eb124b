package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

type diffRecord struct {
	Identical bool   `json:"identical" yaml:"identical" cbor:"identical"`
	Diff      string `json:"diff,omitempty" yaml:"diff,omitempty" cbor:"diff,omitempty"`
}

func (a *app) diffCommand() *cobra.Command {
	var rng rangeFlags
	cmd := &cobra.Command{
		Use:   "diff VALUE_A VALUE_B",
		Short: "Compare the intervals of two values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := a.resolveRange(rng, defaultRangeDays)
			if err != nil {
				return err
			}
			var recs [2][]intervalRecord
			for i, value := range args {
				s, err := a.schedule(value)
				if err != nil {
					return fmt.Errorf("value %s: %w", "AB"[i:i+1], err)
				}
				ivs, err := s.Intervals(from, to)
				if err != nil {
					return err
				}
				recs[i] = intervalRecords(ivs)
			}

			diff := cmp.Diff(recs[0], recs[1])
			rec := diffRecord{Identical: diff == "", Diff: diff}
			return a.emit(rec, func(w io.Writer, _ *lipgloss.Renderer) error {
				if rec.Identical {
					_, err := fmt.Fprintln(w, "values are identical")
					return err
				}
				_, err := fmt.Fprintf(w, "values are different: -A +B\n%s", diff)
				return err
			})
		},
	}
	rng.register(cmd, defaultRangeDays)
	return cmd
}
