package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/ngrash/go-openinghours/internal/config"
	"github.com/ngrash/go-openinghours/openinghours"
)

var (
	colorOpen    = lipgloss.Color("#10B981") // Emerald
	colorClosed  = lipgloss.Color("#EF4444") // Red
	colorUnknown = lipgloss.Color("#F59E0B") // Amber
	colorMuted   = lipgloss.Color("#6B7280") // Gray
)

// cborEncMode encodes deterministically with RFC 3339 timestamps.
var cborEncMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339
	var err error
	cborEncMode, err = opts.EncMode()
	if err != nil {
		panic("cli: CBOR encoder initialization failed: " + err.Error())
	}
}

type intervalRecord struct {
	Start   time.Time `json:"start" yaml:"start" cbor:"start"`
	End     time.Time `json:"end" yaml:"end" cbor:"end"`
	State   string    `json:"state" yaml:"state" cbor:"state"`
	Comment string    `json:"comment,omitempty" yaml:"comment,omitempty" cbor:"comment,omitempty"`
}

func intervalRecords(ivs []openinghours.Interval) []intervalRecord {
	out := make([]intervalRecord, len(ivs))
	for i, iv := range ivs {
		out[i] = intervalRecord{Start: iv.Start, End: iv.End, State: iv.State.String(), Comment: iv.Comment}
	}
	return out
}

type stateRecord struct {
	At         time.Time  `json:"at" yaml:"at" cbor:"at"`
	State      string     `json:"state" yaml:"state" cbor:"state"`
	Comment    string     `json:"comment,omitempty" yaml:"comment,omitempty" cbor:"comment,omitempty"`
	NextChange *time.Time `json:"next_change,omitempty" yaml:"next_change,omitempty" cbor:"next_change,omitempty"`
}

// emit writes v to stdout in the configured format. text renders the text format.
func (a *app) emit(v any, text func(w io.Writer, r *lipgloss.Renderer) error) error {
	switch a.cfg.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.OutputCBOR:
		b, err := cborEncMode.Marshal(v)
		if err != nil {
			return err
		}
		_, err = a.stdout.Write(b)
		return err
	default:
		return text(a.stdout, lipgloss.NewRenderer(a.stdout))
	}
}

func stateStyle(r *lipgloss.Renderer, s openinghours.State) lipgloss.Style {
	style := r.NewStyle().Bold(true)
	switch s {
	case openinghours.StateOpen:
		return style.Foreground(colorOpen)
	case openinghours.StateClosed:
		return style.Foreground(colorClosed)
	default:
		return style.Foreground(colorUnknown)
	}
}

func writeIntervals(w io.Writer, r *lipgloss.Renderer, ivs []openinghours.Interval) error {
	muted := r.NewStyle().Foreground(colorMuted)
	for _, iv := range ivs {
		state := iv.State.String()
		line := fmt.Sprintf("%s - %s  %s",
			iv.Start.Format(time.DateTime),
			iv.End.Format(time.DateTime),
			stateStyle(r, iv.State).Render(state))
		if iv.Comment != "" {
			line += strings.Repeat(" ", max(len("unknown")-len(state), 0)+2) + muted.Render(strconv.Quote(iv.Comment))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
