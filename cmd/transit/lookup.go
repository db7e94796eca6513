package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:       "lookup <feed-id> (stop|route|trip) <id>",
	Short:     "Look up a single entity by ID",
	Args:      cobra.ExactArgs(3),
	ValidArgs: []string{"stop", "route", "trip"},
	RunE:      runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	feedID, kind, id := args[0], args[1], args[2]

	importer, err := newImporter()
	if err != nil {
		return err
	}
	engine, err := importer.Open(feedID)
	if err != nil {
		return err
	}

	switch kind {
	case "stop":
		stop, err := engine.Stop(id)
		if err != nil {
			return err
		}
		fmt.Printf("stop %s  %s  (%f, %f)\n", stop.ID, stop.Name, stop.Lat, stop.Lon)
	case "route":
		route, err := engine.Route(id)
		if err != nil {
			return err
		}
		fmt.Printf("route %s  %s  %s  type=%d\n", route.ID, route.ShortName, route.LongName, route.Type)
	case "trip":
		trip, err := engine.Trip(id)
		if err != nil {
			return err
		}
		fmt.Printf("trip %s  route=%s service=%s  %s\n", trip.ID, trip.RouteID, trip.ServiceID, trip.Headsign)
	default:
		return fmt.Errorf("unknown entity kind '%s' (want stop, route or trip)", kind)
	}

	return nil
}
