package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// maxSlideWidth keeps long bodies readable on wide terminals.
const maxSlideWidth = 72

// blend mixes fg into bg by opacity. Unparseable colors fall back to fg.
func blend(fg, bg lipgloss.Color, opacity float64) lipgloss.Color {
	f, err := colorful.Hex(string(fg))
	if err != nil {
		return fg
	}
	b, err := colorful.Hex(string(bg))
	if err != nil {
		return fg
	}
	if opacity <= 0 {
		return lipgloss.Color(b.Hex())
	}
	if opacity >= 1 {
		return lipgloss.Color(f.Hex())
	}
	return lipgloss.Color(b.BlendRgb(f, opacity).Hex())
}

// renderStage draws the visible slide centered in width x height.
func renderStage(m *Model, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	slide, opacity, ok := visibleSlide(m.snap)
	if !ok {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			emptyStateStyle.Render("Nothing to show."))
	}

	entry := m.deck.Entries[slide.Index]
	accent := colorText
	if entry.Accent != "" {
		accent = lipgloss.Color(entry.Accent)
	}

	textWidth := clamp(width-8, 1, maxSlideWidth)
	var blocks []string

	if entry.Title != "" {
		blocks = append(blocks, slideTitleStyle.
			Foreground(blend(accent, colorBg, opacity)).
			Width(textWidth).
			Align(lipgloss.Center).
			Render(entry.Title))
	}
	if body := strings.TrimRight(entry.Body, "\n"); body != "" {
		blocks = append(blocks, slideBodyStyle.
			Foreground(blend(colorText, colorBg, opacity)).
			Width(textWidth).
			Render(body))
	}
	for _, c := range captionsAfter(m.deck, slide.Index) {
		text := strings.TrimRight(c.Body, "\n")
		if text == "" {
			text = c.Title
		}
		blocks = append(blocks, slideCaptionStyle.
			Foreground(blend(colorTextDim, colorBg, opacity)).
			Width(textWidth).
			Align(lipgloss.Right).
			Render(text))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, blocks...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content,
		lipgloss.WithWhitespaceBackground(colorBg))
}

// renderStagePanel fills the stage background.
func renderStagePanel(m *Model, width, height int) string {
	return stageStyle.Width(width).Height(height).Render(renderStage(m, width, height))
}
