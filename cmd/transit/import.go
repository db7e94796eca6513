package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urbanfeed/transit/parse"
)

var lenient bool

var importCmd = &cobra.Command{
	Use:   "import <feed-id> <archive.zip>",
	Short: "Import a zipped feed archive",
	Long: `Import a zipped feed archive under the given feed ID, replacing any
earlier import of that feed. By default a single bad row aborts the
import; with --lenient bad rows are skipped and reported instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&lenient, "lenient", false, "skip bad rows instead of aborting")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	feedID, path := args[0], args[1]

	mode := parse.Strict
	if lenient {
		mode = parse.Lenient
	}

	importer, err := newImporter()
	if err != nil {
		return err
	}

	_, report, err := importer.ImportFile(feedID, path, mode)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	for _, skipped := range report.Skipped {
		fmt.Printf("skipped: %s\n", skipped)
	}
	fmt.Printf("imported %s (%d rows skipped)\n", feedID, len(report.Skipped))

	return nil
}
