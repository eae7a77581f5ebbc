// Package ui holds the imagekit CLI styles, symbols and terminal detection.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ANSI 4-bit colors; lipgloss degrades them on limited terminals.
var (
	ColorCyan   = lipgloss.Color("6")
	ColorGreen  = lipgloss.Color("2")
	ColorYellow = lipgloss.Color("3")
	ColorRed    = lipgloss.Color("1")
)

var (
	StyleBold     = lipgloss.NewStyle().Bold(true)
	StyleDim      = lipgloss.NewStyle().Faint(true)
	StyleSuccess  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleWarning  = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleBoldRed  = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	StyleBoldCyan = lipgloss.NewStyle().Bold(true).Foreground(ColorCyan)
	StyleLabel    = lipgloss.NewStyle().Bold(true).Width(12)
	StyleHint     = lipgloss.NewStyle().Faint(true)
)

const (
	SymbolCheck = "✓"
	SymbolCross = "✗"
	SymbolArrow = "→"
)

var (
	plainRenderer     *lipgloss.Renderer
	plainRendererOnce sync.Once
)

// PlainRenderer returns a renderer that never emits escape codes, for output
// that is piped or when NO_COLOR is set.
func PlainRenderer() *lipgloss.Renderer {
	plainRendererOnce.Do(func() {
		plainRenderer = lipgloss.NewRenderer(io.Discard)
		plainRenderer.SetColorProfile(termenv.Ascii)
	})
	return plainRenderer
}

// ColorEnabled reports whether stdout is a terminal that should get color.
// Respects NO_COLOR (https://no-color.org/).
func ColorEnabled() bool {
	return ColorEnabledFd(os.Stdout.Fd())
}

// ColorEnabledFd reports whether fd is a terminal that should get color.
func ColorEnabledFd(fd uintptr) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Style returns s bound to the default renderer when color is on, otherwise
// to the plain renderer.
func Style(s lipgloss.Style, color bool) lipgloss.Style {
	if color {
		return s
	}
	return s.Renderer(PlainRenderer())
}

// Field is one label/value row of a KeyValues listing.
type Field struct {
	Label string
	Value string
}

// KeyValues renders aligned label/value rows.
func KeyValues(fields []Field, color bool) string {
	label := Style(StyleLabel, color)
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%s %s\n", label.Render(f.Label), f.Value)
	}
	return b.String()
}

// Success renders a check-marked line.
func Success(msg string, color bool) string {
	return Style(StyleSuccess, color).Render(SymbolCheck) + " " + msg
}

// Failure renders a cross-marked line.
func Failure(msg string, color bool) string {
	return Style(StyleBoldRed, color).Render(SymbolCross) + " " + msg
}
