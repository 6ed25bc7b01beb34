package report

import "github.com/charmbracelet/lipgloss"

// palette is the report colour scheme.
type palette struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

var tokyoNight = palette{
	Primary: lipgloss.Color("#7aa2f7"),
	Dim:     lipgloss.Color("#565f89"),
	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Border:  lipgloss.Color("#3b4261"),
}

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	dim     lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	border  lipgloss.Style
	section lipgloss.Style
}

// newStyles binds the palette to r so colour output follows the writer's
// terminal capabilities.
func newStyles(r *lipgloss.Renderer, p palette) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(p.Primary).MarginTop(1),
		header:  r.NewStyle().Bold(true).Foreground(p.Primary).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		dim:     r.NewStyle().Foreground(p.Dim),
		ok:      r.NewStyle().Foreground(p.Success),
		warn:    r.NewStyle().Foreground(p.Warning),
		bad:     r.NewStyle().Foreground(p.Error).Bold(true),
		border:  r.NewStyle().Foreground(p.Border),
		section: r.NewStyle().PaddingLeft(1),
	}
}
