// Package style provides the lipgloss styles used for terminal output. Every
// colored element references a Style held in a Palette so that the look can be
// swapped by name, or switched off entirely with the plain palette.
package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds a lipgloss.Style for every styled element.
type Palette struct {
	Name string

	// Theme list
	ThemeName  lipgloss.Style
	Current    lipgloss.Style
	BuiltIn    lipgloss.Style
	Installed  lipgloss.Style
	LightTag   lipgloss.Style
	DarkTag    lipgloss.Style
	Selected   lipgloss.Style
	MatchRune  lipgloss.Style
	FilterText lipgloss.Style

	// YAML (config show)
	YAMLKey      lipgloss.Style
	YAMLString   lipgloss.Style
	YAMLNumber   lipgloss.Style
	YAMLConstant lipgloss.Style
	YAMLComment  lipgloss.Style

	// Dialog/Modal
	DialogBorder       lipgloss.Style
	DialogTitle        lipgloss.Style
	DialogButton       lipgloss.Style
	DialogButtonActive lipgloss.Style

	// General
	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	MutedText   lipgloss.Style
}

func newDefaultPalette() *Palette {
	return &Palette{
		Name: "default",

		ThemeName: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D4D4D4")),
		Current: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4EC9B0")),
		BuiltIn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#569CD6")),
		Installed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DCDCAA")),
		LightTag: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5F5F5")).
			Background(lipgloss.Color("#6A6A6A")).
			Padding(0, 1),
		DarkTag: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D4D4D4")).
			Background(lipgloss.Color("#2D2D2D")).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#264F78")),
		MatchRune: lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#CE9178")),
		FilterText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CDCFE")),

		YAMLKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CDCFE")),
		YAMLString: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CE9178")),
		YAMLNumber: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B5CEA8")),
		YAMLConstant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#569CD6")),
		YAMLComment: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6A9955")),

		DialogBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#569CD6")).
			Padding(1, 2),
		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#569CD6")),
		DialogButton: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D4D4D4")).
			Background(lipgloss.Color("#3C3C3C")).
			Padding(0, 1),
		DialogButtonActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0E639C")).
			Padding(0, 1),

		ErrorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F44747")),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6A9955")),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCA700")),
		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080")),
	}
}

func newLightPalette() *Palette {
	return &Palette{
		Name: "light",

		ThemeName: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")),
		Current: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#267F99")),
		BuiltIn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0000FF")),
		Installed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#795E26")),
		LightTag: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")).
			Background(lipgloss.Color("#E8E8E8")).
			Padding(0, 1),
		DarkTag: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#444444")).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#ADD6FF")),
		MatchRune: lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#A31515")),
		FilterText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#001080")),

		YAMLKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0451A5")),
		YAMLString: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A31515")),
		YAMLNumber: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#098658")),
		YAMLConstant: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0000FF")),
		YAMLComment: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#008000")),

		DialogBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#0000FF")).
			Padding(1, 2),
		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000FF")),
		DialogButton: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")).
			Background(lipgloss.Color("#E8E8E8")).
			Padding(0, 1),
		DialogButtonActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#007ACC")).
			Padding(0, 1),

		ErrorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CD3131")),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#008000")),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BF8803")),
		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E6E6E")),
	}
}

// newPlainPalette renders everything unstyled, for pipes and NO_COLOR.
func newPlainPalette() *Palette {
	s := lipgloss.NewStyle()
	return &Palette{
		Name:               "plain",
		ThemeName:          s,
		Current:            s,
		BuiltIn:            s,
		Installed:          s,
		LightTag:           s,
		DarkTag:            s,
		Selected:           s.Reverse(true),
		MatchRune:          s,
		FilterText:         s,
		YAMLKey:            s,
		YAMLString:         s,
		YAMLNumber:         s,
		YAMLConstant:       s,
		YAMLComment:        s,
		DialogBorder:       s.BorderStyle(lipgloss.NormalBorder()).Padding(1, 2),
		DialogTitle:        s,
		DialogButton:       s,
		DialogButtonActive: s.Reverse(true),
		ErrorText:          s,
		SuccessText:        s,
		WarningText:        s,
		MutedText:          s,
	}
}

// Palettes maps palette names to their definitions.
var Palettes = map[string]*Palette{
	"default": newDefaultPalette(),
	"light":   newLightPalette(),
	"plain":   newPlainPalette(),
}

// Current is the active palette.
var Current = Palettes["default"]

// Default returns the default palette.
func Default() *Palette {
	return Palettes["default"]
}

// Plain returns the palette without any styling.
func Plain() *Palette {
	return Palettes["plain"]
}

// Get returns the palette with the given name, or the default palette if the
// name is not registered.
func Get(name string) *Palette {
	if p, ok := Palettes[name]; ok {
		return p
	}
	return Default()
}

// Use sets Current from the output settings. color=false always selects the
// plain palette.
func Use(name string, color bool) *Palette {
	if !color {
		Current = Plain()
	} else {
		Current = Get(name)
	}
	return Current
}

// Suffix returns the style for a list status suffix such as "(current)".
func (p *Palette) Suffix(suffix string) lipgloss.Style {
	switch suffix {
	case "(current)":
		return p.Current
	case "(built-in)":
		return p.BuiltIn
	case "(installed)":
		return p.Installed
	}
	return p.ThemeName
}

var suffixes = []string{"(current)", "(built-in)", "(installed)"}

// ColorizeList styles the status suffix of each line of a rendered theme
// list. Padding is kept, so columns stay aligned.
func (p *Palette) ColorizeList(rendered string) string {
	if rendered == "" {
		return ""
	}
	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		for _, s := range suffixes {
			if name, ok := strings.CutSuffix(line, s); ok {
				lines[i] = p.ThemeName.Render(name) + p.Suffix(s).Render(s)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
