package sim

import (
	"github.com/charmbracelet/lipgloss"

	"solarview/internal/config"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var bodyPalette = []string{"#FDB813", "#B5B5B5", "#E8CDA2", "#2E86AB", "#C1440E", "#D8CA9D", "#EAD6B8", "#D1E7E7", "#5B5DDF"}

// bodyStyles assigns a foreground style to every configured body, falling
// back to the palette when no color is set.
func bodyStyles(cfg *config.Config) map[string]lipgloss.Style {
	styles := make(map[string]lipgloss.Style)
	if cfg == nil {
		return styles
	}
	for i, b := range cfg.Bodies {
		c := b.Color
		if c == "" {
			c = bodyPalette[i%len(bodyPalette)]
		}
		styles[b.ID] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return styles
}
