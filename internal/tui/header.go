package tui

import (
	"fmt"
	"strings"

	"github.com/Mr-Dark-debug/gallery/pkg/timeutil"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHeader produces the top bar:
//
//	GALLERY  |  Holiday  |  2/5  |  ▶ playing
func renderHeader(m *Model) string {
	brand := headerBrandStyle.Render("GALLERY")
	sep := headerSepStyle.Render(" │ ")

	parts := []string{brand, sep, headerMetaStyle.Render(truncate(m.deck.Title, 40))}

	if m.snap.Current >= 0 {
		parts = append(parts, sep, headerMetaStyle.Render(
			fmt.Sprintf("%d/%d", rotationPosition(m.deck, m.snap.Current), m.deck.Rotatable())))
	}

	parts = append(parts, sep)
	if m.paused {
		parts = append(parts, headerPausedStyle.Render("❚❚ paused"))
	} else {
		parts = append(parts, headerPlayingStyle.Render("▶ playing"))
	}

	return headerBarStyle.Width(m.width).Render(strings.Join(parts, ""))
}

// renderCountdown shows how long the current slide has left.
func renderCountdown(m *Model) string {
	if m.paused || m.interval <= 0 {
		return ""
	}
	elapsed := m.snap.At.Sub(m.lastAdvance)
	frac := float64(elapsed) / float64(m.interval)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	m.countdown.Width = clamp(m.width/4, 4, 30)
	return m.countdown.ViewAs(frac) + " " +
		hintDescStyle.Render(timeutil.FormatCountdown(m.interval-elapsed))
}

// renderFooter produces the bottom status bar with keyboard hints.
func renderFooter(m *Model) string {
	var left string
	switch {
	case m.err != nil:
		left = statusErrorStyle.Render(m.statusMsg)
	case m.statusMsg != "":
		left = statusStyle.Render(m.statusMsg)
	}
	if cd := renderCountdown(m); cd != "" {
		left += " " + cd
	}

	right := renderHints(m.keys.hints())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().
		Background(colorBgSurface).
		Width(m.width).
		Render(bar)
}

func renderHints(bindings []key.Binding) string {
	var parts []string
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts,
			hintKeyStyle.Render(h.Key)+" "+hintDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, hintDescStyle.Render("  "))
}
