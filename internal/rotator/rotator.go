// Package rotator drives a slideshow: a single "current" pointer over a
// fixed sequence of slides, advanced on a timer with a crossfade between
// the outgoing and incoming slide.
//
// A Rotator is an ordinary value owned by its caller. Several rotators
// can run side by side, each with its own timer goroutine.
//
// Lifecycle:
//
//	Idle --Start--> Running --Advance--> Running --Stop--> Idle
package rotator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultFadeDuration is the length of each half of a crossfade.
const DefaultFadeDuration = 1000 * time.Millisecond

var (
	ErrEmptySlides       = errors.New("rotator: no slides")
	ErrNoRotatableSlides = errors.New("rotator: every slide is an annotation")
	ErrInvalidInterval   = errors.New("rotator: interval must be positive")
	ErrAlreadyRunning    = errors.New("rotator: already running")
	ErrNotRunning        = errors.New("rotator: not running")
	ErrNotStarted        = errors.New("rotator: never started")
)

// AnnotationPolicy decides where rotation goes when the slide after the
// current one is an annotation.
type AnnotationPolicy int

const (
	// SkipToFirst jumps back to the first slide. Slides that sit behind
	// an annotation are therefore never reached.
	SkipToFirst AnnotationPolicy = iota
	// SkipPast steps over the annotation run to the slide after it.
	SkipPast
)

func (p AnnotationPolicy) String() string {
	switch p {
	case SkipToFirst:
		return "skip-to-first"
	case SkipPast:
		return "skip-past"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts the names produced by AnnotationPolicy.String.
// An empty name is SkipToFirst.
func ParsePolicy(name string) (AnnotationPolicy, error) {
	switch name {
	case "", "skip-to-first":
		return SkipToFirst, nil
	case "skip-past":
		return SkipPast, nil
	default:
		return SkipToFirst, fmt.Errorf("unknown annotation policy %q", name)
	}
}

// Transition is emitted for every advance that changes the current slide.
type Transition struct {
	From   int
	To     int
	At     time.Time
	Manual bool
}

// Snapshot is a copy of the rotator state at one instant.
type Snapshot struct {
	Slides  []Slide
	Current int // -1 before the first Start
	Running bool
	At      time.Time
}

// Option configures a Rotator.
type Option func(*Rotator)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(r *Rotator) { r.clock = c }
}

// WithFadeDuration sets how long each crossfade takes. Zero or negative
// switches instantly.
func WithFadeDuration(d time.Duration) Option {
	return func(r *Rotator) { r.fade = d }
}

// WithEasing sets the easing applied to crossfades.
func WithEasing(e Easing) Option {
	return func(r *Rotator) { r.easing = e }
}

// WithPolicy sets the annotation policy.
func WithPolicy(p AnnotationPolicy) Option {
	return func(r *Rotator) { r.policy = p }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Rotator) { r.logger = l }
}

// WithObserver registers fn to receive every transition. Observers run on
// the goroutine that caused the advance, after the rotator lock is
// released. They must not block and must not call Stop.
func WithObserver(fn func(Transition)) Option {
	return func(r *Rotator) { r.observers = append(r.observers, fn) }
}

// Rotator owns the current-slide pointer and the timer that advances it.
type Rotator struct {
	clock     Clock
	fade      time.Duration
	easing    Easing
	policy    AnnotationPolicy
	logger    *zap.Logger
	observers []func(Transition)

	mu       sync.Mutex
	slides   []Slide
	current  int
	interval time.Duration
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	reset    chan struct{}
}

// New returns an idle rotator.
func New(opts ...Option) *Rotator {
	r := &Rotator{
		clock:   SystemClock{},
		fade:    DefaultFadeDuration,
		easing:  Swing,
		policy:  SkipToFirst,
		logger:  zap.NewNop(),
		current: -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start shows the first rotatable slide at full opacity, hides the rest
// and schedules an advance every interval. The slice is copied; the
// sequence is fixed until the next Start.
func (r *Rotator) Start(slides []Slide, interval time.Duration) error {
	if len(slides) == 0 {
		return ErrEmptySlides
	}
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}

	first := First(slides)
	if first < 0 {
		return ErrNoRotatableSlides
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	now := r.clock.Now()
	r.slides = make([]Slide, len(slides))
	for i, s := range slides {
		s.Index = i
		s.State = StateHidden
		s.Fade = hold(now, 0)
		r.slides[i] = s
	}
	r.slides[first].State = StateCurrent
	r.slides[first].Fade = hold(now, 1)
	r.current = first
	r.interval = interval

	r.launch()
	r.mu.Unlock()

	r.logger.Debug("rotator started",
		zap.Int("slides", len(slides)),
		zap.Int("first", first),
		zap.Duration("interval", interval),
		zap.Stringer("policy", r.policy))
	return nil
}

// Resume restarts the timer after Stop without moving the pointer.
func (r *Rotator) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slides == nil {
		return ErrNotStarted
	}
	if r.running {
		return ErrAlreadyRunning
	}
	r.launch()
	r.logger.Debug("rotator resumed", zap.Int("current", r.current))
	return nil
}

// launch starts the timer goroutine. Caller holds r.mu.
func (r *Rotator) launch() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.reset = make(chan struct{}, 1)
	r.running = true

	go r.loop(ctx, r.clock.NewTicker(r.interval), r.interval, r.reset, r.done)
}

func (r *Rotator) loop(ctx context.Context, t Ticker, interval time.Duration, reset <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reset:
			t.Reset(interval)
		case <-t.C():
			r.step(false)
		}
	}
}

// Advance moves to the next slide immediately and restarts the interval so
// the new slide gets a full period on screen. A sequence with a single
// reachable slide advances onto itself, which is reported as ok=false.
func (r *Rotator) Advance() (Transition, bool, error) {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		return Transition{}, false, ErrNotRunning
	}

	tr, ok := r.step(true)
	if ok {
		r.mu.Lock()
		if r.running {
			select {
			case r.reset <- struct{}{}:
			default:
			}
		}
		r.mu.Unlock()
	}
	return tr, ok, nil
}

// step performs one advance. It is a no-op once Stop has run, so a tick
// racing with Stop never moves the pointer.
func (r *Rotator) step(manual bool) (Transition, bool) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return Transition{}, false
	}

	next := r.nextIndex()
	if next == r.current {
		r.mu.Unlock()
		return Transition{}, false
	}

	now := r.clock.Now()
	out := &r.slides[r.current]
	in := &r.slides[next]

	out.State = StateHidden
	out.Fade = Fade{Start: now, From: out.Fade.At(now), To: 0, Duration: r.fade, Easing: r.easing}
	in.State = StateCurrent
	in.Fade = Fade{Start: now, From: 0, To: 1, Duration: r.fade, Easing: r.easing}

	tr := Transition{From: r.current, To: next, At: now, Manual: manual}
	r.current = next
	observers := r.observers
	r.mu.Unlock()

	r.logger.Debug("rotator advanced",
		zap.Int("from", tr.From),
		zap.Int("to", tr.To),
		zap.Bool("manual", manual))

	for _, fn := range observers {
		fn(tr)
	}
	return tr, true
}

// nextIndex applies the rotation rule. Caller holds r.mu.
func (r *Rotator) nextIndex() int {
	return Next(r.slides, r.current, r.policy)
}

// First returns the index of the first rotatable slide, or -1.
func First(slides []Slide) int {
	for i, s := range slides {
		if s.Rotatable() {
			return i
		}
	}
	return -1
}

// Next returns the slide that follows current under policy. Wrapping,
// and under SkipToFirst any annotation directly after current, lead to
// the first rotatable slide. A result equal to current means the
// advance is a no-op.
func Next(slides []Slide, current int, policy AnnotationPolicy) int {
	first := First(slides)
	n := current + 1
	if n >= len(slides) {
		return first
	}
	if slides[n].Rotatable() {
		return n
	}

	switch policy {
	case SkipPast:
		for n < len(slides) && !slides[n].Rotatable() {
			n++
		}
		if n >= len(slides) {
			return first
		}
		return n
	default:
		return first
	}
}

// Stop cancels the timer and waits for its goroutine to exit. No advance
// happens after Stop returns. Stopping an idle rotator does nothing.
func (r *Rotator) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	done := r.done
	r.mu.Unlock()

	<-done
	r.logger.Debug("rotator stopped")
}

// Running reports whether the timer is active.
func (r *Rotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Interval returns the interval passed to the last Start.
func (r *Rotator) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// Policy returns the configured annotation policy.
func (r *Rotator) Policy() AnnotationPolicy {
	return r.policy
}

// Current returns the current slide, or ok=false before the first Start.
func (r *Rotator) Current() (Slide, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current < 0 {
		return Slide{}, false
	}
	return r.slides[r.current], true
}

// Snapshot copies the rotator state.
func (r *Rotator) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	slides := make([]Slide, len(r.slides))
	copy(slides, r.slides)
	return Snapshot{
		Slides:  slides,
		Current: r.current,
		Running: r.running,
		At:      r.clock.Now(),
	}
}

// Settled reports whether every fade in the snapshot has finished.
func (s Snapshot) Settled() bool {
	for _, sl := range s.Slides {
		if !sl.Fade.Done(s.At) {
			return false
		}
	}
	return true
}
