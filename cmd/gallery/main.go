// Gallery is a terminal slideshow player with a slide library.
//
// Usage:
//
//	gallery <command> [flags]
//
// Commands:
//
//	play      Play a deck file or a stored deck
//	import    Store a deck file in the library
//	decks     List stored decks
//	search    Search slide text across the library
//	delete    Remove a stored deck and its history
//	analyze   Report on rotation and playback of a deck
//	version   Print version information
package main

import (
	"fmt"
	"os"

	"github.com/Mr-Dark-debug/gallery/internal/config"
	"github.com/Mr-Dark-debug/gallery/internal/database"
	"github.com/Mr-Dark-debug/gallery/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	// Global flags
	configPath string
	dbPath     string
	logPath    string
	verbose    bool

	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Gallery - terminal slideshow player",
	Long: `Gallery plays slideshows in the terminal.

A deck is a YAML file of slides interleaved with captions. Slides rotate on
a fixed interval with a crossfade; captions are shown under the slide they
follow and never rotate themselves.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("db") {
			cfg.DBPath = dbPath
		}
		if flags.Changed("log") {
			cfg.LogPath = logPath
		}
		if flags.Changed("verbose") {
			cfg.Verbose = verbose
		}
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}

		logger, err = logging.New(cfg.LogPath, cfg.Verbose)
		if err != nil {
			return err
		}
		logger.Debug("command starting",
			zap.String("command", cmd.Name()),
			zap.String("db", cfg.DBPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Gallery v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite library (default: ~/.gallery/gallery.db)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Log file (default: ~/.gallery/gallery.log)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(decksCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() (*database.DBService, error) {
	store, err := database.NewDBService(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening library at %s: %w", cfg.DBPath, err)
	}
	return store, nil
}
