// Package report renders an upgrade plan for humans or machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/adfinis/ocp-upgrade-path/pkg/types"
	"github.com/adfinis/ocp-upgrade-path/pkg/upgrade"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON}

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
)

// Options control rendering.
type Options struct {
	Format string
	Color  bool
}

type styles struct {
	title   lipgloss.Style
	version lipgloss.Style
	channel lipgloss.Style
	note    lipgloss.Style
	warn    lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		title:   r.NewStyle().Bold(true),
		version: r.NewStyle().Foreground(colorGreen),
		channel: r.NewStyle().Foreground(colorBlue),
		note:    r.NewStyle().Foreground(colorDim),
		warn:    r.NewStyle().Foreground(colorYellow),
	}
}

// Render writes res to w in the requested format.
func Render(w io.Writer, res *upgrade.Result, opts Options) error {
	switch opts.Format {
	case "", FormatText:
		return renderText(w, res, newStyles(w, opts.Color))
	case FormatJSON:
		return renderJSON(w, res)
	default:
		return fmt.Errorf("unsupported output format %q (want one of %s)", opts.Format, strings.Join(Formats, ", "))
	}
}

func renderText(w io.Writer, res *upgrade.Result, s styles) error {
	var b strings.Builder

	if res.ResolvedFrom != "" {
		b.WriteString(s.note.Render(fmt.Sprintf("Using %s as target instead of %s", res.Target, res.ResolvedFrom)))
		b.WriteString("\n")
	}

	switch {
	case !res.Found:
		b.WriteString(s.warn.Render(fmt.Sprintf("No upgrade path from %s to %s found, using channels %s",
			res.Current, res.Target, joinChannels(res.Channels))))
		b.WriteString("\n")
	case res.UpToDate():
		b.WriteString("No action required\n")
	default:
		b.WriteString(s.title.Render(fmt.Sprintf("Shortest Upgrade path from %s to %s:", res.Current, res.Target)))
		b.WriteString("\n")
		for i := 1; i < len(res.Path); i++ {
			prev, next := res.Path[i-1], res.Path[i]
			fmt.Fprintf(&b, "  %s -> %s using %s\n",
				s.version.Render(string(prev.Version)),
				s.version.Render(string(next.Version)),
				s.channel.Render(string(prev.Channel)))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonStep struct {
	From    types.Version `json:"from"`
	To      types.Version `json:"to"`
	Channel types.Channel `json:"channel"`
}

type jsonReport struct {
	*upgrade.Result
	UpToDate bool       `json:"upToDate"`
	Steps    []jsonStep `json:"steps"`
}

func renderJSON(w io.Writer, res *upgrade.Result) error {
	out := jsonReport{
		Result:   res,
		UpToDate: res.UpToDate(),
		Steps:    make([]jsonStep, 0, res.Path.Steps()),
	}
	for i := 1; i < len(res.Path); i++ {
		out.Steps = append(out.Steps, jsonStep{
			From:    res.Path[i-1].Version,
			To:      res.Path[i].Version,
			Channel: res.Path[i-1].Channel,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func joinChannels(list []types.Channel) string {
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
