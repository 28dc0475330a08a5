package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/Mr-Dark-debug/gallery/internal/database"
	"github.com/Mr-Dark-debug/gallery/internal/deck"
	"github.com/Mr-Dark-debug/gallery/internal/rotator"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const (
	// fadeFrame redraws at ~30 fps while a crossfade is in flight.
	fadeFrame = time.Second / 30
	// idleFrame keeps the countdown moving between fades.
	idleFrame = 250 * time.Millisecond
)

// Options configure the player.
type Options struct {
	// Store, when set, receives every transition as playback history.
	Store          database.Store
	RecordPlayback bool
	Logger         *zap.Logger
	Clock          rotator.Clock
}

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// Model is the root BubbleTea model for the player.
type Model struct {
	opts   Options
	logger *zap.Logger
	keys   keyMap

	deck     *deck.Deck
	rot      *rotator.Rotator
	events   chan rotator.Transition
	interval time.Duration

	// UI state
	snap        rotator.Snapshot
	lastAdvance time.Time
	paused      bool
	frameID     int
	countdown   progress.Model
	width       int
	height      int

	// Status
	statusMsg string
	err       error
}

// NewModel starts a rotator over d and returns a model driving it. Call
// Close on the model returned by the program to stop the timer.
func NewModel(d *deck.Deck, opts Options) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = rotator.SystemClock{}
	}

	m := Model{
		opts:      opts,
		logger:    opts.Logger.Named("tui"),
		keys:      defaultKeyMap(),
		events:    make(chan rotator.Transition, 16),
		countdown: progress.New(progress.WithSolidFill(string(colorBlue)), progress.WithoutPercentage()),
	}
	if err := m.play(d); err != nil {
		return Model{}, err
	}
	m.statusMsg = fmt.Sprintf("%d slides", d.Rotatable())
	return m, nil
}

// play replaces the running rotator with a fresh one over d.
func (m *Model) play(d *deck.Deck) error {
	events := m.events
	rot := rotator.New(
		rotator.WithClock(m.opts.Clock),
		rotator.WithFadeDuration(d.Fade),
		rotator.WithPolicy(d.AnnotationPolicy()),
		rotator.WithLogger(m.logger),
		rotator.WithObserver(func(tr rotator.Transition) {
			select {
			case events <- tr:
			default:
				// A frame will pick the state up from the snapshot.
			}
		}),
	)
	if err := rot.Start(d.Slides(), d.Interval); err != nil {
		return fmt.Errorf("starting deck %q: %w", d.Title, err)
	}

	if m.rot != nil {
		m.rot.Stop()
	}
	m.rot = rot
	m.deck = d
	m.interval = d.Interval
	m.paused = false
	m.snap = rot.Snapshot()
	m.lastAdvance = m.snap.At
	return nil
}

// Close stops the rotator.
func (m Model) Close() {
	if m.rot != nil {
		m.rot.Stop()
	}
}

// Deck returns the deck being played.
func (m Model) Deck() *deck.Deck {
	return m.deck
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

// ReloadMsg replaces the deck, restarting rotation from its first slide.
type ReloadMsg struct{ Deck *deck.Deck }

// ReloadErrMsg reports a deck file that failed to reload.
type ReloadErrMsg struct{ Err error }

type transitionMsg rotator.Transition

type frameMsg struct{ id int }

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForTransition(m.events), m.nextFrame())
}

func waitForTransition(ch <-chan rotator.Transition) tea.Cmd {
	return func() tea.Msg {
		return transitionMsg(<-ch)
	}
}

func (m Model) nextFrame() tea.Cmd {
	d := idleFrame
	if !m.snap.Settled() {
		d = fadeFrame
	}
	id := m.frameID
	return tea.Tick(d, func(time.Time) tea.Msg {
		return frameMsg{id: id}
	})
}

// record appends tr to the playback log.
func (m Model) record(tr rotator.Transition) tea.Cmd {
	if m.opts.Store == nil || !m.opts.RecordPlayback || m.deck.ID == "" {
		return nil
	}
	store, deckID := m.opts.Store, m.deck.ID
	return func() tea.Msg {
		err := store.RecordTransition(&database.TransitionEvent{
			DeckID:       deckID,
			FromPosition: tr.From,
			ToPosition:   tr.To,
			Timestamp:    tr.At.UnixNano(),
			Manual:       tr.Manual,
		})
		if err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// save writes a reloaded deck back to the library.
func (m Model) save(d *deck.Deck) tea.Cmd {
	if m.opts.Store == nil || d.ID == "" {
		return nil
	}
	store := m.opts.Store
	return func() tea.Msg {
		if err := deck.Import(store, d); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case transitionMsg:
		tr := rotator.Transition(msg)
		m.snap = m.rot.Snapshot()
		m.lastAdvance = tr.At
		m.frameID++
		return m, tea.Batch(waitForTransition(m.events), m.nextFrame(), m.record(tr))

	case frameMsg:
		if msg.id != m.frameID {
			return m, nil
		}
		m.snap = m.rot.Snapshot()
		return m, m.nextFrame()

	case ReloadMsg:
		d := msg.Deck
		if d.ID == "" {
			d.ID = m.deck.ID
		}
		if err := m.play(d); err != nil {
			m.err = err
			m.statusMsg = fmt.Sprintf("Reload failed: %v", err)
			return m, nil
		}
		m.err = nil
		m.statusMsg = fmt.Sprintf("Reloaded: %d slides", d.Rotatable())
		m.logger.Info("deck reloaded", zap.String("title", d.Title), zap.Int("slides", len(d.Entries)))
		m.frameID++
		return m, tea.Batch(m.nextFrame(), m.save(d))

	case ReloadErrMsg:
		m.err = msg.Err
		m.statusMsg = fmt.Sprintf("Reload failed: %v", msg.Err)
		return m, nil

	case errMsg:
		m.err = msg.err
		m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		m.logger.Warn("player error", zap.Error(msg.err))
		return m, nil
	}

	return m, nil
}

// handleKey routes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.rot.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		if m.paused {
			if err := m.rot.Resume(); err != nil {
				m.err = err
				m.statusMsg = fmt.Sprintf("Error: %v", err)
				return m, nil
			}
			m.paused = false
			m.snap = m.rot.Snapshot()
			m.lastAdvance = m.snap.At
			m.statusMsg = "Resumed"
		} else {
			m.rot.Stop()
			m.paused = true
			m.statusMsg = "Paused"
		}
		return m, nil

	case key.Matches(msg, m.keys.Next):
		_, ok, err := m.rot.Advance()
		switch {
		case errors.Is(err, rotator.ErrNotRunning):
			m.statusMsg = "Paused: press space to resume"
		case err != nil:
			m.err = err
			m.statusMsg = fmt.Sprintf("Error: %v", err)
		case !ok:
			m.statusMsg = "Nothing else to show"
		default:
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := renderHeader(&m)
	footer := renderFooter(&m)

	bodyHeight := m.height - 2 // header + footer
	body := renderStagePanel(&m, m.width, bodyHeight)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
