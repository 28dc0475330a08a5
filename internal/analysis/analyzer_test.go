package analysis

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Mr-Dark-debug/gallery/internal/database"
	"github.com/Mr-Dark-debug/gallery/internal/deck"
	"github.com/Mr-Dark-debug/gallery/internal/rotator"
)

var testDefaults = deck.Defaults{Interval: 4 * time.Second, Fade: time.Second}

func sequence(kinds ...rotator.Kind) []rotator.Slide {
	slides := make([]rotator.Slide, len(kinds))
	for i, k := range kinds {
		slides[i] = rotator.Slide{Index: i, Kind: k}
	}
	return slides
}

const (
	s = rotator.KindSlide
	a = rotator.KindAnnotation
)

func TestReachabilityAllSlides(t *testing.T) {
	r := Reachability(sequence(s, s, s), rotator.SkipToFirst)

	if !reflect.DeepEqual(r.Cycle, []int{0, 1, 2}) {
		t.Errorf("expected cycle [0 1 2], got %v", r.Cycle)
	}
	if len(r.Stranded) != 0 || len(r.Annotations) != 0 {
		t.Errorf("expected nothing stranded, got %+v", r)
	}
}

// TestReachabilityCaptionStrandsTail: under skip-to-first the caption
// sends rotation home, so the slide behind it is never shown.
func TestReachabilityCaptionStrandsTail(t *testing.T) {
	slides := sequence(s, a, s)

	r := Reachability(slides, rotator.SkipToFirst)
	if !reflect.DeepEqual(r.Cycle, []int{0}) {
		t.Errorf("expected cycle [0], got %v", r.Cycle)
	}
	if !reflect.DeepEqual(r.Stranded, []int{2}) {
		t.Errorf("expected stranded [2], got %v", r.Stranded)
	}
	if !reflect.DeepEqual(r.Annotations, []int{1}) {
		t.Errorf("expected annotations [1], got %v", r.Annotations)
	}

	r = Reachability(slides, rotator.SkipPast)
	if !reflect.DeepEqual(r.Cycle, []int{0, 2}) {
		t.Errorf("skip-past: expected cycle [0 2], got %v", r.Cycle)
	}
	if len(r.Stranded) != 0 {
		t.Errorf("skip-past: expected nothing stranded, got %v", r.Stranded)
	}
}

func TestReachabilityLeadingCaption(t *testing.T) {
	r := Reachability(sequence(a, s, s), rotator.SkipToFirst)
	if !reflect.DeepEqual(r.Cycle, []int{1, 2}) {
		t.Errorf("expected cycle [1 2], got %v", r.Cycle)
	}
}

func TestReachabilityNoRotatable(t *testing.T) {
	r := Reachability(sequence(a, a), rotator.SkipToFirst)
	if len(r.Cycle) != 0 {
		t.Errorf("expected empty cycle, got %v", r.Cycle)
	}
}

func importDeck(t *testing.T, store database.Store, doc string) *deck.Deck {
	t.Helper()
	d, err := deck.Parse([]byte(doc), testDefaults)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := deck.Import(store, d); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	return d
}

func newStore(t *testing.T) *database.DBService {
	t.Helper()
	store, err := database.NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDwellTimes(t *testing.T) {
	store := newStore(t)
	d := importDeck(t, store, "title: Trio\nslides:\n  - title: A\n  - title: B\n  - title: C\n")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	log := []struct {
		from, to int
		at       time.Duration
	}{
		{0, 1, 0},
		{1, 2, 4 * time.Second},
		{2, 0, 8 * time.Second},
		{0, 1, 12 * time.Second},
		// player closed for an hour; this dwell is not counted
		{1, 2, time.Hour},
		{2, 0, time.Hour + 3*time.Second},
	}
	for _, e := range log {
		if err := store.RecordTransition(&database.TransitionEvent{
			DeckID:       d.ID,
			FromPosition: e.from,
			ToPosition:   e.to,
			Timestamp:    base.Add(e.at).UnixNano(),
		}); err != nil {
			t.Fatalf("RecordTransition failed: %v", err)
		}
	}

	dwell, err := NewAnalyzer(store).DwellTimes(d.ID)
	if err != nil {
		t.Fatalf("DwellTimes failed: %v", err)
	}
	if len(dwell) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(dwell), dwell)
	}

	want := []DwellEntry{
		{Position: 0, Title: "A", Shows: 1, Total: 4 * time.Second, Mean: 4 * time.Second},
		{Position: 1, Title: "B", Shows: 1, Total: 4 * time.Second, Mean: 4 * time.Second},
		{Position: 2, Title: "C", Shows: 2, Total: 7 * time.Second, Mean: 3500 * time.Millisecond},
	}
	if !reflect.DeepEqual(dwell, want) {
		t.Errorf("dwell mismatch:\n got %+v\nwant %+v", dwell, want)
	}
}

func TestDwellTimesUnknownDeck(t *testing.T) {
	if _, err := NewAnalyzer(newStore(t)).DwellTimes("missing"); err == nil {
		t.Error("expected error for unknown deck")
	}
}

func TestFullAnalysisReport(t *testing.T) {
	store := newStore(t)
	d := importDeck(t, store, `
title: Stranded
fade: 5s
slides:
  - title: Home
  - caption: true
    body: credit
  - title: Hidden
`)
	if err := store.RecordTransition(&database.TransitionEvent{
		DeckID: d.ID, FromPosition: 0, ToPosition: 0, Manual: true,
	}); err != nil {
		t.Fatalf("RecordTransition failed: %v", err)
	}

	report, err := NewAnalyzer(store).FullAnalysis(d.ID)
	if err != nil {
		t.Fatalf("FullAnalysis failed: %v", err)
	}

	if report.Stats == nil || report.Stats.TotalSlides != 3 || report.Stats.Annotations != 1 {
		t.Errorf("unexpected stats: %+v", report.Stats)
	}
	if len(report.Warnings) != 3 {
		t.Errorf("expected stranded, stuck and fade warnings, got %v", report.Warnings)
	}

	md := FormatReport(report)
	for _, want := range []string{
		"# Gallery Deck Report",
		"**Deck:** Stranded",
		"- **Cycle:** 0",
		"- **Never shown:** 2",
		"Slide 2 (Hidden) is never shown",
		"| Manual Advances | 1 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestAnalyzeDeckClean(t *testing.T) {
	d, err := deck.Parse([]byte("slides:\n  - title: A\n  - title: B\n"), testDefaults)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	report := AnalyzeDeck(d)
	if len(report.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", report.Warnings)
	}
	if strings.Contains(FormatReport(report), "## Warnings") {
		t.Error("clean deck should have no warnings section")
	}
}
