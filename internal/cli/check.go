package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ngrash/go-openinghours/openinghours"
)

// checkDays is the default length of the range check evaluates.
const checkDays = 366

type warningRecord struct {
	Offset  int    `json:"offset" yaml:"offset" cbor:"offset"`
	Text    string `json:"text" yaml:"text" cbor:"text"`
	Message string `json:"message" yaml:"message" cbor:"message"`
}

type checkRecord struct {
	Rules     []string        `json:"rules" yaml:"rules" cbor:"rules"`
	Default   string          `json:"default" yaml:"default" cbor:"default"`
	Warnings  []warningRecord `json:"warnings,omitempty" yaml:"warnings,omitempty" cbor:"warnings,omitempty"`
	Intervals int             `json:"intervals" yaml:"intervals" cbor:"intervals"`
}

func (a *app) checkCommand() *cobra.Command {
	var rng rangeFlags
	cmd := &cobra.Command{
		Use:   "check VALUE",
		Short: "Print the parsed rules and warnings of a value and verify its intervals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := a.resolveRange(rng, checkDays)
			if err != nil {
				return err
			}
			s, err := a.schedule(args[0])
			if err != nil {
				return err
			}
			ivs, err := s.Intervals(from, to)
			if err != nil {
				return err
			}
			if err := openinghours.ValidateIntervals(ivs, from, to); err != nil {
				return fmt.Errorf("intervals of %q are inconsistent: %w", args[0], err)
			}

			rec := checkRecord{Default: s.Default().String(), Intervals: len(ivs)}
			for _, r := range s.Rules() {
				rec.Rules = append(rec.Rules, r.String())
			}
			for _, w := range s.Warnings() {
				rec.Warnings = append(rec.Warnings, warningRecord{Offset: w.Offset, Text: w.Text, Message: w.Message})
			}
			return a.emit(rec, func(w io.Writer, r *lipgloss.Renderer) error {
				return writeCheck(w, r, rec)
			})
		},
	}
	rng.register(cmd, checkDays)
	return cmd
}

func writeCheck(w io.Writer, r *lipgloss.Renderer, rec checkRecord) error {
	heading := r.NewStyle().Bold(true)
	warn := r.NewStyle().Foreground(colorUnknown)

	fmt.Fprintln(w, heading.Render("Rules"))
	for i, rule := range rec.Rules {
		fmt.Fprintf(w, "  %d. %s\n", i+1, rule)
	}
	fmt.Fprintf(w, "%s %s\n", heading.Render("Default:"), rec.Default)
	if len(rec.Warnings) > 0 {
		fmt.Fprintln(w, heading.Render("Warnings"))
		for _, wr := range rec.Warnings {
			fmt.Fprintf(w, "  %s\n", warn.Render(fmt.Sprintf("offset %d: %q: %s", wr.Offset, wr.Text, wr.Message)))
		}
	}
	_, err := fmt.Fprintf(w, "%d intervals OK\n", rec.Intervals)
	return err
}
