package ui

import (
	"fmt"
	"strings"
)

// FormatError returns a styled error message with optional fix suggestions.
func FormatError(msg string, color bool, suggestions ...string) string {
	var b strings.Builder

	prefix := Style(StyleBoldRed, color).Render("Error:")
	fmt.Fprintf(&b, "%s %s\n", prefix, msg)

	if len(suggestions) > 0 {
		hint := Style(StyleHint, color)
		b.WriteString("\n")
		b.WriteString(hint.Render("  Try:") + "\n")
		for _, s := range suggestions {
			fmt.Fprintf(&b, "    %s %s\n", hint.Render(SymbolArrow), s)
		}
	}
	return b.String()
}
