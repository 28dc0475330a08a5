package main

import (
	"testing"
	"time"

	"github.com/Mr-Dark-debug/gallery/internal/config"
	"github.com/Mr-Dark-debug/gallery/internal/deck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("fade", "0s")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	_, err = parseDuration("fade", "-1s")
	assert.Error(t, err)
	_, err = parseDuration("fade", "soon")
	assert.Error(t, err)

	_, err = parsePositiveDuration("interval", "0s")
	assert.Error(t, err)
	d, err = parsePositiveDuration("interval", "2500ms")
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d)
}

func TestApplyPlayFlags(t *testing.T) {
	cfg = config.DefaultConfig()
	playInterval, playFade, playPolicy, playNoRecord = "6s", "0s", "skip-past", true
	t.Cleanup(func() {
		playInterval, playFade, playPolicy, playNoRecord = "", "", "", false
		cfg = config.Config{}
	})

	require.NoError(t, applyPlayFlags())
	assert.Equal(t, deck.Defaults{Interval: 6 * time.Second, Fade: 0, Policy: "skip-past"}, deckDefaults())
	assert.False(t, cfg.RecordPlayback)

	playPolicy = "sideways"
	assert.Error(t, applyPlayFlags())
}
