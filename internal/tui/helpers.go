package tui

import (
	"github.com/Mr-Dark-debug/gallery/internal/deck"
	"github.com/Mr-Dark-debug/gallery/internal/rotator"
)

// ────────────────────────────────────────────────────────────
// Slide lookup
// ────────────────────────────────────────────────────────────

// visibleSlide picks the slide to draw: the one with the highest opacity
// at the snapshot instant. During a crossfade the terminal can show only
// one, so the outgoing slide gives way once the incoming one overtakes it.
func visibleSlide(snap rotator.Snapshot) (rotator.Slide, float64, bool) {
	best, bestOp := -1, -1.0
	for i, s := range snap.Slides {
		if !s.Rotatable() {
			continue
		}
		op := s.Opacity(snap.At)
		if op > bestOp {
			best, bestOp = i, op
		}
	}
	if best < 0 {
		return rotator.Slide{}, 0, false
	}
	return snap.Slides[best], bestOp, true
}

// captionsAfter returns the caption entries that directly follow pos.
func captionsAfter(d *deck.Deck, pos int) []deck.Entry {
	var out []deck.Entry
	for i := pos + 1; i < len(d.Entries) && d.Entries[i].Caption; i++ {
		out = append(out, d.Entries[i])
	}
	return out
}

// rotationPosition numbers pos among the rotatable entries, 1-based.
func rotationPosition(d *deck.Deck, pos int) int {
	n := 0
	for i := 0; i <= pos && i < len(d.Entries); i++ {
		if !d.Entries[i].Caption {
			n++
		}
	}
	return n
}

// ────────────────────────────────────────────────────────────
// String helpers
// ────────────────────────────────────────────────────────────

// truncate cuts a string to maxLen and appends "..." if truncated.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// clamp restricts val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
