package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List imported feeds",
	Args:  cobra.NoArgs,
	RunE:  runFeeds,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <feed-id>",
	Short: "Delete an imported feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(feedsCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runFeeds(cmd *cobra.Command, args []string) error {
	importer, err := newImporter()
	if err != nil {
		return err
	}

	feeds, err := importer.Feeds()
	if err != nil {
		return err
	}

	for _, feed := range feeds {
		fmt.Printf("%s  imported=%s  calendar=%s..%s  skipped=%d  sha256=%.12s\n",
			feed.FeedID,
			feed.ImportedAt.Format("2006-01-02 15:04"),
			feed.CalendarStartDate,
			feed.CalendarEndDate,
			feed.RowsSkipped,
			feed.SHA256,
		)
	}

	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	importer, err := newImporter()
	if err != nil {
		return err
	}
	if err := importer.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
