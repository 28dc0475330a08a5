// Package deck reads slideshow decks.
//
// A deck file is YAML:
//
//	title: Holiday
//	interval: 4s
//	fade: 1s
//	policy: skip-to-first
//	slides:
//	  - title: Beach
//	    body: |
//	      Sand, mostly.
//	  - caption: true
//	    body: Photo by J. Doe
//	  - title: Forest
//	    accent: "#3fb950"
//
// Entries with caption: true are annotations and never become current.
package deck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Mr-Dark-debug/gallery/internal/database"
	"github.com/Mr-Dark-debug/gallery/internal/rotator"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoSlides        = errors.New("deck has no slides")
	ErrNoRotatable     = errors.New("deck has only captions")
	ErrInvalidDuration = errors.New("deck duration must be positive")
)

// Entry is one item of a deck.
type Entry struct {
	Title   string `yaml:"title,omitempty"`
	Body    string `yaml:"body,omitempty"`
	Caption bool   `yaml:"caption,omitempty"`
	Accent  string `yaml:"accent,omitempty"`
}

// Deck is a parsed slideshow.
type Deck struct {
	ID       string
	Source   string
	Title    string
	Interval time.Duration
	Fade     time.Duration
	Policy   string
	Entries  []Entry
}

// document is the on-disk shape. Fade is a pointer so an explicit 0s
// (switch instantly) can be told apart from an absent key.
type document struct {
	Title    string         `yaml:"title"`
	Interval time.Duration  `yaml:"interval"`
	Fade     *time.Duration `yaml:"fade"`
	Policy   string         `yaml:"policy"`
	Slides   []Entry        `yaml:"slides"`
}

// Defaults fill in what a deck leaves unset.
type Defaults struct {
	Interval time.Duration
	Fade     time.Duration
	Policy   string
}

// Parse decodes and validates a deck document.
func Parse(data []byte, def Defaults) (*Deck, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing deck: %w", err)
	}

	d := &Deck{
		Title:    doc.Title,
		Interval: doc.Interval,
		Fade:     def.Fade,
		Policy:   doc.Policy,
		Entries:  doc.Slides,
	}
	if d.Interval == 0 {
		d.Interval = def.Interval
	}
	if doc.Fade != nil {
		d.Fade = *doc.Fade
	}
	if d.Policy == "" {
		d.Policy = def.Policy
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Load reads and parses the deck at path. The deck title defaults to the
// file name.
func Load(path string, def Defaults) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deck %s: %w", path, err)
	}

	d, err := Parse(data, def)
	if err != nil {
		return nil, fmt.Errorf("deck %s: %w", path, err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		d.Source = abs
	} else {
		d.Source = path
	}
	if d.Title == "" {
		base := filepath.Base(path)
		d.Title = base[:len(base)-len(filepath.Ext(base))]
	}
	return d, nil
}

// Validate checks the invariants the rotator relies on.
func (d *Deck) Validate() error {
	if len(d.Entries) == 0 {
		return ErrNoSlides
	}
	rotatable := false
	for _, e := range d.Entries {
		if !e.Caption {
			rotatable = true
			break
		}
	}
	if !rotatable {
		return ErrNoRotatable
	}
	if d.Interval <= 0 {
		return fmt.Errorf("%w: interval %v", ErrInvalidDuration, d.Interval)
	}
	if d.Fade < 0 {
		return fmt.Errorf("%w: fade %v", ErrInvalidDuration, d.Fade)
	}
	if _, err := rotator.ParsePolicy(d.Policy); err != nil {
		return err
	}
	return nil
}

// AnnotationPolicy returns the deck's policy. Validate has already
// rejected unknown names.
func (d *Deck) AnnotationPolicy() rotator.AnnotationPolicy {
	p, _ := rotator.ParsePolicy(d.Policy)
	return p
}

// Slides converts the deck into a rotation sequence. Slide IDs are the
// entry positions.
func (d *Deck) Slides() []rotator.Slide {
	slides := make([]rotator.Slide, len(d.Entries))
	for i, e := range d.Entries {
		kind := rotator.KindSlide
		if e.Caption {
			kind = rotator.KindAnnotation
		}
		slides[i] = rotator.Slide{Index: i, ID: strconv.Itoa(i), Kind: kind}
	}
	return slides
}

// Rotatable returns the number of entries that can become current.
func (d *Deck) Rotatable() int {
	n := 0
	for _, e := range d.Entries {
		if !e.Caption {
			n++
		}
	}
	return n
}

// ============================================================
// Library conversion
// ============================================================

// Record converts the deck into library rows.
func (d *Deck) Record() (*database.Deck, []*database.Slide) {
	rec := &database.Deck{
		DeckID:     d.ID,
		Title:      d.Title,
		IntervalMs: d.Interval.Milliseconds(),
		FadeMs:     d.Fade.Milliseconds(),
		Policy:     d.Policy,
	}
	if d.Source != "" {
		src := d.Source
		rec.SourcePath = &src
	}

	slides := make([]*database.Slide, len(d.Entries))
	for i, e := range d.Entries {
		slides[i] = &database.Slide{
			DeckID:   d.ID,
			Position: i,
			Title:    e.Title,
			Body:     e.Body,
			Caption:  e.Caption,
			Accent:   e.Accent,
		}
	}
	return rec, slides
}

// FromRecord rebuilds a deck from library rows.
func FromRecord(rec *database.Deck, slides []*database.Slide) (*Deck, error) {
	d := &Deck{
		ID:       rec.DeckID,
		Title:    rec.Title,
		Interval: time.Duration(rec.IntervalMs) * time.Millisecond,
		Fade:     time.Duration(rec.FadeMs) * time.Millisecond,
		Policy:   rec.Policy,
		Entries:  make([]Entry, len(slides)),
	}
	if rec.SourcePath != nil {
		d.Source = *rec.SourcePath
	}
	for i, sl := range slides {
		d.Entries[i] = Entry{Title: sl.Title, Body: sl.Body, Caption: sl.Caption, Accent: sl.Accent}
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("stored deck %s: %w", rec.DeckID, err)
	}
	return d, nil
}

// Open loads a stored deck by ID.
func Open(store database.Store, deckID string) (*Deck, error) {
	rec, err := store.GetDeck(deckID)
	if err != nil {
		return nil, err
	}
	slides, err := store.QuerySlides(deckID)
	if err != nil {
		return nil, err
	}
	return FromRecord(rec, slides)
}
