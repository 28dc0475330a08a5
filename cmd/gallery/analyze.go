package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Mr-Dark-debug/gallery/internal/analysis"
	"github.com/Mr-Dark-debug/gallery/internal/deck"

	"github.com/spf13/cobra"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <deck.yaml | deck-id>",
	Short: "Report on rotation and playback of a deck",
	Long: `Report which slides the rotation reaches, which are stranded behind a
caption, and for stored decks how long each slide stayed on screen.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := buildReport(args[0])
		if err != nil {
			return err
		}

		switch analyzeFormat {
		case "json":
			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		case "markdown":
			fmt.Print(analysis.FormatReport(report))
		default:
			return fmt.Errorf("unknown format: %s", analyzeFormat)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "markdown", "Output format: markdown, json")
}

// buildReport treats an existing path as a deck file and anything else as
// a stored deck ID.
func buildReport(arg string) (*analysis.Report, error) {
	if _, err := os.Stat(arg); err == nil {
		d, err := deck.Load(arg, deckDefaults())
		if err != nil {
			return nil, err
		}
		return analysis.AnalyzeDeck(d), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return analysis.NewAnalyzer(store).FullAnalysis(arg)
}
