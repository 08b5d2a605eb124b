package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// nextChangeHorizon bounds the search for the next change of state.
const nextChangeHorizon = 366 * 24 * time.Hour

func (a *app) stateCommand() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "state VALUE",
		Short: "Print the state of a value at an instant and when it changes next",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := a.now().In(a.loc)
			if at != "" {
				var err error
				if t, err = a.parseTime(at); err != nil {
					return err
				}
			}
			s, err := a.schedule(args[0])
			if err != nil {
				return err
			}
			a.printWarnings(s)

			state := s.State(t)
			rec := stateRecord{At: t, State: state.String(), Comment: s.Comment(t)}
			if next, ok := s.NextChange(t, t.Add(nextChangeHorizon)); ok {
				rec.NextChange = &next
			}
			return a.emit(rec, func(w io.Writer, r *lipgloss.Renderer) error {
				line := fmt.Sprintf("%s  %s", t.Format(time.DateTime), stateStyle(r, state).Render(rec.State))
				if rec.Comment != "" {
					line += fmt.Sprintf("  %q", rec.Comment)
				}
				if rec.NextChange != nil {
					line += fmt.Sprintf("  (changes at %s)", rec.NextChange.Format(time.DateTime))
				} else {
					line += "  (no change within a year)"
				}
				_, err := fmt.Fprintln(w, line)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "instant to query (default now)")
	return cmd
}
