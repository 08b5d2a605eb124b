package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultRangeDays = 7

func (a *app) intervalsCommand() *cobra.Command {
	var (
		rng rangeFlags
		all bool
	)
	cmd := &cobra.Command{
		Use:   "intervals VALUE",
		Short: "Print the open and unknown intervals of a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := a.resolveRange(rng, defaultRangeDays)
			if err != nil {
				return err
			}
			s, err := a.schedule(args[0])
			if err != nil {
				return err
			}
			a.printWarnings(s)

			query := s.OpenIntervals
			if all {
				query = s.Intervals
			}
			ivs, err := query(from, to)
			if err != nil {
				return err
			}
			a.logger.Debug("intervals", zap.String("value", args[0]), zap.Int("count", len(ivs)))
			return a.emit(intervalRecords(ivs), func(w io.Writer, r *lipgloss.Renderer) error {
				return writeIntervals(w, r, ivs)
			})
		},
	}
	rng.register(cmd, defaultRangeDays)
	cmd.Flags().BoolVar(&all, "all", false, "include closed intervals")
	return cmd
}
