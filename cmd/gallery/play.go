package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mr-Dark-debug/gallery/internal/database"
	"github.com/Mr-Dark-debug/gallery/internal/deck"
	"github.com/Mr-Dark-debug/gallery/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	playDeckID   string
	playWatch    bool
	playInterval string
	playFade     string
	playPolicy   string
	playNoRecord bool
)

var playCmd = &cobra.Command{
	Use:   "play [deck.yaml]",
	Short: "Play a deck file or a stored deck",
	Long: `Play a deck in the terminal.

Give a deck file, or --deck with the ID of a stored deck. Playing a file
stores it in the library so its playback history is kept. With --watch the
deck reloads whenever the file changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playDeckID, "deck", "", "ID of a stored deck")
	playCmd.Flags().BoolVarP(&playWatch, "watch", "w", false, "Reload the deck file when it changes")
	playCmd.Flags().StringVar(&playInterval, "interval", "", "Default interval for decks that set none (e.g. 4s)")
	playCmd.Flags().StringVar(&playFade, "fade", "", "Default fade for decks that set none (e.g. 1s)")
	playCmd.Flags().StringVar(&playPolicy, "policy", "", "Default caption policy: skip-to-first, skip-past")
	playCmd.Flags().BoolVar(&playNoRecord, "no-record", false, "Do not record playback history")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (playDeckID != "") {
		return errors.New("give either a deck file or --deck <id>")
	}
	if err := applyPlayFlags(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	d, err := resolveDeck(store, args)
	if err != nil {
		return err
	}
	if playWatch && d.Source == "" {
		return fmt.Errorf("deck %s has no source file to watch", d.ID)
	}

	m, err := tui.NewModel(d, tui.Options{
		Store:          store,
		RecordPlayback: cfg.RecordPlayback,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var final tea.Model
	g.Go(func() error {
		defer cancel()
		var err error
		final, err = p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	if playWatch {
		w := &deck.Watcher{
			Path:     d.Source,
			Defaults: deckDefaults(),
			Logger:   logger,
			OnChange: func(nd *deck.Deck) { p.Send(tui.ReloadMsg{Deck: nd}) },
			OnError:  func(err error) { p.Send(tui.ReloadErrMsg{Err: err}) },
		}
		g.Go(func() error {
			if err := w.Run(gctx); err != nil {
				p.Quit()
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	if fm, ok := final.(tui.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("running player: %w", err)
	}
	return nil
}

func applyPlayFlags() error {
	if playInterval != "" {
		d, err := parsePositiveDuration("interval", playInterval)
		if err != nil {
			return err
		}
		cfg.Interval = d
	}
	if playFade != "" {
		d, err := parseDuration("fade", playFade)
		if err != nil {
			return err
		}
		cfg.Fade = d
	}
	if playPolicy != "" {
		cfg.Policy = playPolicy
	}
	if playNoRecord {
		cfg.RecordPlayback = false
	}
	return cfg.Validate()
}

// resolveDeck loads the deck named on the command line. A deck file is
// imported first when playback is recorded, so transitions have a deck
// to belong to.
func resolveDeck(store database.Store, args []string) (*deck.Deck, error) {
	if playDeckID != "" {
		return deck.Open(store, playDeckID)
	}

	d, err := deck.Load(args[0], deckDefaults())
	if err != nil {
		return nil, err
	}
	if cfg.RecordPlayback {
		if err := deck.Import(store, d); err != nil {
			return nil, err
		}
		logger.Info("deck imported for playback",
			zap.String("deck_id", d.ID),
			zap.String("source", d.Source))
	}
	return d, nil
}
