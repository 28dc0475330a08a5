package deck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mr-Dark-debug/gallery/internal/database"
	"github.com/Mr-Dark-debug/gallery/internal/rotator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = Defaults{Interval: 4 * time.Second, Fade: time.Second, Policy: "skip-to-first"}

const holiday = `
title: Holiday
interval: 6s
slides:
  - title: Beach
    body: |
      Sand, mostly.
  - caption: true
    body: Photo by J. Doe
  - title: Forest
    accent: "#3fb950"
`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(holiday), testDefaults)
	require.NoError(t, err)

	assert.Equal(t, "Holiday", d.Title)
	assert.Equal(t, 6*time.Second, d.Interval)
	assert.Equal(t, time.Second, d.Fade, "fade falls back to the default")
	assert.Equal(t, "skip-to-first", d.Policy)
	require.Len(t, d.Entries, 3)
	assert.Equal(t, "Sand, mostly.\n", d.Entries[0].Body)
	assert.True(t, d.Entries[1].Caption)
	assert.Equal(t, "#3fb950", d.Entries[2].Accent)
	assert.Equal(t, 2, d.Rotatable())
}

func TestParseExplicitZeroFade(t *testing.T) {
	d, err := Parse([]byte("fade: 0s\nslides:\n  - title: A\n"), testDefaults)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d.Fade)
	assert.Equal(t, 4*time.Second, d.Interval)
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"no slides", "title: Empty\n", ErrNoSlides},
		{"captions only", "slides:\n  - caption: true\n  - caption: true\n", ErrNoRotatable},
		{"negative interval", "interval: -1s\nslides:\n  - title: A\n", ErrInvalidDuration},
		{"negative fade", "fade: -1s\nslides:\n  - title: A\n", ErrInvalidDuration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), testDefaults)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := Parse([]byte("policy: upside-down\nslides:\n  - title: A\n"), testDefaults)
	assert.Error(t, err)

	_, err = Parse([]byte("slides: [\n"), testDefaults)
	assert.Error(t, err)
}

func TestSlides(t *testing.T) {
	d, err := Parse([]byte(holiday), testDefaults)
	require.NoError(t, err)

	slides := d.Slides()
	require.Len(t, slides, 3)
	assert.Equal(t, rotator.KindSlide, slides[0].Kind)
	assert.Equal(t, rotator.KindAnnotation, slides[1].Kind)
	assert.Equal(t, "2", slides[2].ID)
	assert.Equal(t, rotator.SkipToFirst, d.AnnotationPolicy())
}

func TestLoadDefaultsTitleToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "city-walk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slides:\n  - title: A\n"), 0644))

	d, err := Load(path, testDefaults)
	require.NoError(t, err)
	assert.Equal(t, "city-walk", d.Title)
	assert.True(t, filepath.IsAbs(d.Source))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), testDefaults)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestImportAndOpen(t *testing.T) {
	store, err := database.NewDBService(":memory:")
	require.NoError(t, err)
	defer store.Close()

	path := filepath.Join(t.TempDir(), "holiday.yaml")
	require.NoError(t, os.WriteFile(path, []byte(holiday), 0644))

	d, err := Load(path, testDefaults)
	require.NoError(t, err)
	require.NoError(t, Import(store, d))
	require.NotEmpty(t, d.ID)

	opened, err := Open(store, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Title, opened.Title)
	assert.Equal(t, d.Interval, opened.Interval)
	assert.Equal(t, d.Fade, opened.Fade)
	assert.Equal(t, d.Entries, opened.Entries)
	assert.Equal(t, d.Source, opened.Source)

	// Re-importing the same file keeps the same deck.
	again, err := Load(path, testDefaults)
	require.NoError(t, err)
	require.NoError(t, Import(store, again))
	assert.Equal(t, d.ID, again.ID)

	decks, err := store.QueryDecks(database.DeckFilter{})
	require.NoError(t, err)
	assert.Len(t, decks, 1)

	_, err = Open(store, "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slides:\n  - title: A\n"), 0644))

	changes := make(chan *Deck, 4)
	failures := make(chan error, 4)
	w := &Watcher{
		Path:     path,
		Defaults: testDefaults,
		Debounce: 20 * time.Millisecond,
		OnChange: func(d *Deck) { changes <- d },
		OnError:  func(err error) { failures <- err },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("slides:\n  - title: A\n  - title: B\n"), 0644))

	select {
	case d := <-changes:
		assert.Len(t, d.Entries, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload")
	}

	require.NoError(t, os.WriteFile(path, []byte("slides: []\n"), 0644))
	select {
	case err := <-failures:
		assert.ErrorIs(t, err, ErrNoSlides)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload error")
	}
}

func TestDemoDeckLoads(t *testing.T) {
	d, err := Load(filepath.Join("..", "..", "decks", "demo.yaml"), testDefaults)
	require.NoError(t, err)
	assert.Equal(t, rotator.SkipPast, d.AnnotationPolicy())
	assert.Equal(t, 3, d.Rotatable())
}
