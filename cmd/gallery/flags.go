package main

import (
	"fmt"
	"time"

	"github.com/Mr-Dark-debug/gallery/internal/deck"
)

func deckDefaults() deck.Defaults {
	return deck.Defaults{
		Interval: cfg.Interval,
		Fade:     cfg.Fade,
		Policy:   cfg.Policy,
	}
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid --%s %q: must not be negative", name, value)
	}
	return d, nil
}

func parsePositiveDuration(name, value string) (time.Duration, error) {
	d, err := parseDuration(name, value)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("invalid --%s %q: must be positive", name, value)
	}
	return d, nil
}
