package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"solarview/internal/scene"
)

const (
	centralSymbol = "@"
	ringSymbol    = "·"
	minMapSpan    = 1.0
)

var ringStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// assignSymbols gives every body a one-character map glyph: the upper-case
// initial, the lower-case initial when that is taken, then the first free
// letter of the id.
func assignSymbols(ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	used := map[string]bool{centralSymbol: true}
	for _, id := range ids {
		if id == "" {
			continue
		}
		var candidates []string
		first := []rune(id)[0]
		candidates = append(candidates, string(unicode.ToUpper(first)), string(unicode.ToLower(first)))
		for _, r := range id[1:] {
			candidates = append(candidates, string(unicode.ToUpper(r)), string(unicode.ToLower(r)))
		}
		sym := "?"
		for _, c := range candidates {
			if !used[c] {
				sym = c
				break
			}
		}
		used[sym] = true
		out[id] = sym
	}
	return out
}

// autoSpan is the half-extent that fits every placement with a small margin.
func autoSpan(placements []scene.Placement) float64 {
	span := 0.0
	for _, p := range placements {
		span = math.Max(span, p.Position.InPlaneRadius())
	}
	span *= 1.1
	if span < minMapSpan {
		span = minMapSpan
	}
	return span
}

// renderMap draws a top-down view of the scene X/Z plane. Scene X grows to
// the right and scene Z downwards; span is the half-extent in scene units
// (0 fits everything).
func renderMap(placements []scene.Placement, symbols map[string]string, styles map[string]lipgloss.Style, width, height int, span float64) string {
	if width < 3 || height < 3 {
		return ""
	}
	if len(placements) == 0 {
		return "No position data"
	}
	if span <= 0 {
		span = autoSpan(placements)
	}
	// terminal cells are roughly twice as tall as they are wide
	perCol := 2 * span / float64(width-1)
	perRow := perCol * 2
	if need := 2 * span / perRow; need > float64(height-1) {
		perRow = 2 * span / float64(height-1)
		perCol = perRow / 2
	}
	cx, cy := (width-1)/2, (height-1)/2

	grid := make([][]string, height)
	for i := range grid {
		row := make([]string, width)
		for j := range row {
			row[j] = " "
		}
		grid[i] = row
	}
	cell := func(x, z float64) (int, int, bool) {
		col := cx + int(math.Round(x/perCol))
		row := cy + int(math.Round(z/perRow))
		return row, col, row >= 0 && row < height && col >= 0 && col < width
	}

	for _, p := range placements {
		if p.Central {
			continue
		}
		r := p.Position.InPlaneRadius()
		steps := int(2 * math.Pi * r / perCol)
		if steps < 16 {
			steps = 16
		} else if steps > 720 {
			steps = 720
		}
		for i := 0; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / float64(steps)
			if row, col, ok := cell(r*math.Cos(a), r*math.Sin(a)); ok && grid[row][col] == " " {
				grid[row][col] = ringStyle.Render(ringSymbol)
			}
		}
	}
	for _, p := range placements {
		sym := symbols[p.Body]
		if p.Central {
			sym = centralSymbol
		}
		if sym == "" {
			sym = "?"
		}
		if st, ok := styles[p.Body]; ok {
			sym = st.Render(sym)
		}
		if row, col, ok := cell(p.Position.X, p.Position.Z); ok {
			grid[row][col] = sym
		}
	}

	var b strings.Builder
	for _, row := range grid {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("span ±%.1f units  1 col = %.2f", span, perCol))
	return b.String()
}

// renderLegend lists the glyph of every placed body.
func renderLegend(placements []scene.Placement, symbols map[string]string, styles map[string]lipgloss.Style) string {
	parts := make([]string, 0, len(placements))
	sorted := append([]scene.Placement(nil), placements...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Central && !sorted[j].Central })
	for _, p := range sorted {
		sym := symbols[p.Body]
		if p.Central {
			sym = centralSymbol
		}
		if st, ok := styles[p.Body]; ok {
			sym = st.Render(sym)
		}
		parts = append(parts, fmt.Sprintf("%s=%s", sym, p.Body))
	}
	return strings.Join(parts, " ")
}
