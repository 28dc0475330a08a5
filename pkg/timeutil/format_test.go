package timeutil

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:      "0ms",
		450:    "450ms",
		1200:   "1.2s",
		4000:   "4.0s",
		135300: "2m 15.3s",
	}
	for ms, want := range cases {
		if got := FormatDuration(ms); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", ms, got, want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{0, "0s"},
		{100 * time.Millisecond, "1s"},
		{4 * time.Second, "4s"},
		{3500 * time.Millisecond, "4s"},
		{90 * time.Second, "1:30"},
	}
	for _, tc := range cases {
		if got := FormatCountdown(tc.in); got != tc.want {
			t.Errorf("FormatCountdown(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{5 * time.Second, "5s ago"},
		{2 * time.Minute, "2m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tc := range cases {
		ns := now.Add(-tc.ago).UnixNano()
		if got := RelativeTime(ns, now); got != tc.want {
			t.Errorf("RelativeTime(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}

func TestFormatTimestampFull(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.Local)
	if got := FormatTimestampFull(ts.UnixNano()); got != "2024-03-09 14:05:07.123" {
		t.Errorf("FormatTimestampFull = %q", got)
	}
}
