// Package analysis inspects decks and their playback history.
//
// Key capabilities:
//   - Reachability: which slides the rotation rule can ever show
//   - Dwell times: how long each slide actually stayed on screen
//   - Markdown reports combining both with library statistics
package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Mr-Dark-debug/gallery/internal/database"
	"github.com/Mr-Dark-debug/gallery/internal/deck"
	"github.com/Mr-Dark-debug/gallery/internal/rotator"
	"github.com/Mr-Dark-debug/gallery/pkg/timeutil"
)

// Analyzer reads decks and playback history from a store.
type Analyzer struct {
	store database.Store
}

// NewAnalyzer creates an analyzer backed by the given store.
func NewAnalyzer(store database.Store) *Analyzer {
	return &Analyzer{store: store}
}

// ============================================================
// Reachability
// ============================================================

// ReachabilityReport lists which positions the rotation visits.
type ReachabilityReport struct {
	Policy string `json:"policy"`

	// Cycle is the visiting order starting from the first slide.
	Cycle []int `json:"cycle"`

	// Stranded are rotatable positions the cycle never reaches.
	Stranded []int `json:"stranded,omitempty"`

	// Annotations are positions that can never be current.
	Annotations []int `json:"annotations,omitempty"`
}

// Reachability walks the rotation from the first slide until it repeats.
// Under SkipToFirst, any slide that sits after an annotation is stranded.
func Reachability(slides []rotator.Slide, policy rotator.AnnotationPolicy) ReachabilityReport {
	report := ReachabilityReport{Policy: policy.String()}

	for i, s := range slides {
		if !s.Rotatable() {
			report.Annotations = append(report.Annotations, i)
		}
	}

	first := rotator.First(slides)
	if first < 0 {
		return report
	}

	seen := make(map[int]bool)
	for cur := first; !seen[cur]; cur = rotator.Next(slides, cur, policy) {
		seen[cur] = true
		report.Cycle = append(report.Cycle, cur)
	}

	for i, s := range slides {
		if s.Rotatable() && !seen[i] {
			report.Stranded = append(report.Stranded, i)
		}
	}
	return report
}

// ============================================================
// Dwell times
// ============================================================

// DwellEntry is the observed screen time of one slide.
type DwellEntry struct {
	Position int           `json:"position"`
	Title    string        `json:"title"`
	Shows    int           `json:"shows"`
	Total    time.Duration `json:"total"`
	Mean     time.Duration `json:"mean"`
}

// sessionGap separates playback sessions: a slide "shown" for longer than
// this many intervals is treated as the player having been closed.
const sessionGap = 10

// DwellTimes derives per-slide screen time from the playback log. Each
// transition ends the dwell of the slide it leaves; the last slide of
// every session has no end and is not counted.
func (a *Analyzer) DwellTimes(deckID string) ([]DwellEntry, error) {
	d, err := deck.Open(a.store, deckID)
	if err != nil {
		return nil, fmt.Errorf("opening deck for dwell analysis: %w", err)
	}
	events, err := a.store.QueryTransitions(deckID)
	if err != nil {
		return nil, fmt.Errorf("querying transitions for dwell analysis: %w", err)
	}

	return dwellTimes(d, events), nil
}

func dwellTimes(d *deck.Deck, events []*database.TransitionEvent) []DwellEntry {
	entries := make(map[int]*DwellEntry)
	maxGap := int64(d.Interval) * sessionGap

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if prev.ToPosition != cur.FromPosition {
			continue // session boundary or deck edited mid-play
		}
		gap := cur.Timestamp - prev.Timestamp
		if gap < 0 || (maxGap > 0 && gap > maxGap) {
			continue
		}

		e, ok := entries[cur.FromPosition]
		if !ok {
			e = &DwellEntry{Position: cur.FromPosition}
			if cur.FromPosition >= 0 && cur.FromPosition < len(d.Entries) {
				e.Title = d.Entries[cur.FromPosition].Title
			}
			entries[cur.FromPosition] = e
		}
		e.Shows++
		e.Total += time.Duration(gap)
	}

	result := make([]DwellEntry, 0, len(entries))
	for _, e := range entries {
		e.Mean = e.Total / time.Duration(e.Shows)
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result
}

// ============================================================
// Full Report
// ============================================================

// Report aggregates every analysis for one deck.
type Report struct {
	DeckID       string              `json:"deck_id"`
	Title        string              `json:"title"`
	GeneratedAt  string              `json:"generated_at"`
	Interval     time.Duration       `json:"interval"`
	Fade         time.Duration       `json:"fade"`
	Reachability ReachabilityReport  `json:"reachability"`
	Dwell        []DwellEntry        `json:"dwell,omitempty"`
	Stats        *database.DeckStats `json:"stats,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
}

// AnalyzeDeck builds a report for a deck that is not in the library.
func AnalyzeDeck(d *deck.Deck) *Report {
	report := &Report{
		DeckID:       d.ID,
		Title:        d.Title,
		GeneratedAt:  timeutil.FormatTimestampFull(timeutil.NowNano()),
		Interval:     d.Interval,
		Fade:         d.Fade,
		Reachability: Reachability(d.Slides(), d.AnnotationPolicy()),
	}

	for _, pos := range report.Reachability.Stranded {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Slide %d (%s) is never shown: the caption before it sends rotation back to the first slide. "+
				"Move the caption or use policy skip-past.", pos, entryName(d, pos)))
	}
	if len(report.Reachability.Cycle) == 1 && d.Rotatable() > 1 {
		report.Warnings = append(report.Warnings,
			"Rotation never leaves the first slide.")
	}
	if d.Fade > d.Interval {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Fade (%s) is longer than the interval (%s); crossfades will overlap.",
				timeutil.FormatDuration(d.Fade.Milliseconds()),
				timeutil.FormatDuration(d.Interval.Milliseconds())))
	}
	return report
}

// FullAnalysis builds a report for a stored deck, including playback history.
func (a *Analyzer) FullAnalysis(deckID string) (*Report, error) {
	d, err := deck.Open(a.store, deckID)
	if err != nil {
		return nil, err
	}
	report := AnalyzeDeck(d)

	events, err := a.store.QueryTransitions(deckID)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	report.Dwell = dwellTimes(d, events)

	stats, err := a.store.GetDeckStats(deckID)
	if err != nil {
		return nil, fmt.Errorf("querying deck stats: %w", err)
	}
	report.Stats = stats

	return report, nil
}

func entryName(d *deck.Deck, pos int) string {
	if pos < 0 || pos >= len(d.Entries) {
		return "?"
	}
	if t := d.Entries[pos].Title; t != "" {
		return t
	}
	return "untitled"
}

// FormatReport renders a report as markdown.
func FormatReport(report *Report) string {
	var b strings.Builder

	b.WriteString("# Gallery Deck Report\n\n")
	b.WriteString(fmt.Sprintf("**Deck:** %s\n", report.Title))
	if report.DeckID != "" {
		b.WriteString(fmt.Sprintf("**Deck ID:** `%s`\n", report.DeckID))
	}
	b.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt))

	b.WriteString("## Rotation\n\n")
	b.WriteString(fmt.Sprintf("- **Interval:** %s\n", timeutil.FormatDuration(report.Interval.Milliseconds())))
	b.WriteString(fmt.Sprintf("- **Fade:** %s\n", timeutil.FormatDuration(report.Fade.Milliseconds())))
	b.WriteString(fmt.Sprintf("- **Policy:** %s\n", report.Reachability.Policy))
	b.WriteString(fmt.Sprintf("- **Cycle:** %s\n", joinInts(report.Reachability.Cycle, " → ")))
	if len(report.Reachability.Annotations) > 0 {
		b.WriteString(fmt.Sprintf("- **Captions:** %s\n", joinInts(report.Reachability.Annotations, ", ")))
	}
	if len(report.Reachability.Stranded) > 0 {
		b.WriteString(fmt.Sprintf("- **Never shown:** %s\n", joinInts(report.Reachability.Stranded, ", ")))
	}
	b.WriteString("\n")

	if report.Stats != nil {
		s := report.Stats
		b.WriteString("## Playback Summary\n\n")
		b.WriteString("| Metric | Value |\n")
		b.WriteString("|--------|-------|\n")
		b.WriteString(fmt.Sprintf("| Slides | %d |\n", s.TotalSlides))
		b.WriteString(fmt.Sprintf("| Captions | %d |\n", s.Annotations))
		b.WriteString(fmt.Sprintf("| Transitions | %d |\n", s.Transitions))
		b.WriteString(fmt.Sprintf("| Manual Advances | %d |\n", s.ManualAdvances))
		if s.LastPlayedAt != nil {
			b.WriteString(fmt.Sprintf("| Last Played | %s |\n", timeutil.FormatTimestampFull(*s.LastPlayedAt)))
		}
		b.WriteString("\n")
	}

	if len(report.Dwell) > 0 {
		b.WriteString("## Dwell Times\n\n")
		b.WriteString("| Slide | Title | Shows | Mean | Total |\n")
		b.WriteString("|-------|-------|-------|------|-------|\n")
		for _, e := range report.Dwell {
			b.WriteString(fmt.Sprintf("| %d | %s | %d | %s | %s |\n",
				e.Position, e.Title, e.Shows,
				timeutil.FormatDuration(e.Mean.Milliseconds()),
				timeutil.FormatDuration(e.Total.Milliseconds())))
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			b.WriteString(fmt.Sprintf("- ⚠ %s\n", w))
		}
	}

	return b.String()
}

func joinInts(vals []int, sep string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, sep)
}
