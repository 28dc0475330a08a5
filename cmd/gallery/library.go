package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Mr-Dark-debug/gallery/internal/database"
	"github.com/Mr-Dark-debug/gallery/internal/deck"
	"github.com/Mr-Dark-debug/gallery/pkg/timeutil"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import <deck.yaml>...",
	Short: "Store deck files in the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		for _, path := range args {
			d, err := deck.Load(path, deckDefaults())
			if err != nil {
				return err
			}
			if err := deck.Import(store, d); err != nil {
				return err
			}
			logger.Info("deck imported", zap.String("deck_id", d.ID), zap.String("source", d.Source))
			fmt.Printf("%s  %s (%d slides)\n", d.ID, d.Title, len(d.Entries))
		}
		return nil
	},
}

var (
	decksTitle string
	decksLimit int
)

var decksCmd = &cobra.Command{
	Use:   "decks",
	Short: "List stored decks",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		filter := database.DeckFilter{Limit: decksLimit}
		if decksTitle != "" {
			filter.Title = &decksTitle
		}
		decks, err := store.QueryDecks(filter)
		if err != nil {
			return err
		}
		if len(decks) == 0 {
			fmt.Println("No decks. Add one with: gallery import <deck.yaml>")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "TITLE", "SLIDES", "INTERVAL", "PLAYS", "LAST PLAYED")

		now := time.Now()
		for _, d := range decks {
			stats, err := store.GetDeckStats(d.DeckID)
			if err != nil {
				return err
			}
			last := "never"
			if stats.LastPlayedAt != nil {
				last = timeutil.RelativeTime(*stats.LastPlayedAt, now)
			}
			t.Row(
				d.DeckID,
				d.Title,
				strconv.Itoa(stats.TotalSlides-stats.Annotations),
				timeutil.FormatDuration(d.IntervalMs),
				strconv.Itoa(stats.Transitions),
				last,
			)
		}
		fmt.Println(t.Render())
		return nil
	},
}

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search slide titles and bodies across the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.SearchSlides(args[0], searchLimit)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <deck-id>",
	Short: "Remove a stored deck with its slides and playback history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteDeck(args[0]); err != nil {
			return err
		}
		logger.Info("deck deleted", zap.String("deck_id", args[0]))
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	decksCmd.Flags().StringVar(&decksTitle, "title", "", "Filter by title substring")
	decksCmd.Flags().IntVar(&decksLimit, "limit", 50, "Maximum results")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum results")
}
