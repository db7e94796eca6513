package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/urbanfeed/transit"
	"github.com/urbanfeed/transit/storage"
)

var (
	dbDirectory string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:          "transit",
	Short:        "Import transit feeds and query schedules",
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dbDirectory, "db", ".", "directory holding feed databases")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newImporter() (*transit.Importer, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := storage.NewSQLiteStorage(storage.SQLiteConfig{
		OnDisk:    true,
		Directory: dbDirectory,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	return transit.NewImporter(store, logger), nil
}

// displayTime renders an internal HHMMSS time as HH:MM:SS.
func displayTime(hhmmss string) string {
	if len(hhmmss) != 6 {
		return hhmmss
	}
	return hhmmss[0:2] + ":" + hhmmss[2:4] + ":" + hhmmss[4:6]
}
