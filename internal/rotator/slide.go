package rotator

import (
	"math"
	"time"
)

// Kind distinguishes rotatable slides from annotations interleaved
// between them (captions and the like).
type Kind int

const (
	KindSlide Kind = iota
	KindAnnotation
)

func (k Kind) String() string {
	switch k {
	case KindSlide:
		return "slide"
	case KindAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// State is the explicit "is current" flag of a slide.
type State int

const (
	StateHidden State = iota
	StateCurrent
)

func (s State) String() string {
	if s == StateCurrent {
		return "current"
	}
	return "hidden"
}

// Easing maps linear progress p in [0,1] to eased progress.
type Easing func(p float64) float64

// Swing is the ease-in-out curve used for crossfades by default.
func Swing(p float64) float64 {
	return 0.5 - math.Cos(p*math.Pi)/2
}

// Linear is the identity easing.
func Linear(p float64) float64 { return p }

// Fade describes an opacity animation. It is a value sampled by the
// renderer at any instant; nothing runs in the background.
type Fade struct {
	Start    time.Time
	From     float64
	To       float64
	Duration time.Duration
	Easing   Easing
}

// hold returns a fade that is already settled at opacity v.
func hold(at time.Time, v float64) Fade {
	return Fade{Start: at, From: v, To: v}
}

// At returns the opacity at now, clamped to [0,1].
func (f Fade) At(now time.Time) float64 {
	if f.Duration <= 0 || !now.Before(f.Start.Add(f.Duration)) {
		return clamp01(f.To)
	}
	if now.Before(f.Start) {
		return clamp01(f.From)
	}

	p := float64(now.Sub(f.Start)) / float64(f.Duration)
	ease := f.Easing
	if ease == nil {
		ease = Swing
	}
	return clamp01(f.From + (f.To-f.From)*ease(p))
}

// Done reports whether the fade has reached its target at now.
func (f Fade) Done(now time.Time) bool {
	return f.Duration <= 0 || !now.Before(f.Start.Add(f.Duration))
}

// Slide is one element of a rotation sequence.
type Slide struct {
	Index int
	ID    string
	Kind  Kind
	State State
	Fade  Fade
}

// Rotatable reports whether the slide may ever become current.
func (s Slide) Rotatable() bool {
	return s.Kind != KindAnnotation
}

// Opacity samples the slide's opacity at now.
func (s Slide) Opacity(now time.Time) float64 {
	return s.Fade.At(now)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
