package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var departuresLimit int

var departuresCmd = &cobra.Command{
	Use:   "departures <feed-id> <stop-id> <date> <from> <to>",
	Short: "List departures from a stop",
	Long: `List departures from a stop on a service date (YYYYMMDD) within the
half-open time window [from, to). Times are HH:MM:SS; hours past 24
address the tail of the same service day.`,
	Args: cobra.ExactArgs(5),
	RunE: runDepartures,
}

var nearestCount int

var nearestCmd = &cobra.Command{
	Use:   "nearest <feed-id> <lat> <lon>",
	Short: "Find the stops closest to a coordinate",
	Args:  cobra.ExactArgs(3),
	RunE:  runNearest,
}

var servicesCmd = &cobra.Command{
	Use:   "services <feed-id> <date>",
	Short: "List service IDs active on a date",
	Args:  cobra.ExactArgs(2),
	RunE:  runServices,
}

func init() {
	departuresCmd.Flags().IntVar(&departuresLimit, "limit", 20, "maximum departures to list")
	nearestCmd.Flags().IntVarP(&nearestCount, "count", "n", 5, "number of stops to list")
	rootCmd.AddCommand(departuresCmd)
	rootCmd.AddCommand(nearestCmd)
	rootCmd.AddCommand(servicesCmd)
}

func runDepartures(cmd *cobra.Command, args []string) error {
	feedID, stopID, date, from, to := args[0], args[1], args[2], args[3], args[4]

	importer, err := newImporter()
	if err != nil {
		return err
	}
	engine, err := importer.Open(feedID)
	if err != nil {
		return err
	}

	departures, err := engine.Departures(stopID, date, from, to, departuresLimit)
	if err != nil {
		return err
	}

	for _, d := range departures {
		fmt.Printf("%s  route=%s trip=%s  %s\n", displayTime(d.DepartureTime), d.RouteID, d.TripID, d.Headsign)
	}

	return nil
}

func runNearest(cmd *cobra.Command, args []string) error {
	feedID := args[0]
	lat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude '%s'", args[1])
	}
	lon, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude '%s'", args[2])
	}

	importer, err := newImporter()
	if err != nil {
		return err
	}
	engine, err := importer.Open(feedID)
	if err != nil {
		return err
	}

	nearest, err := engine.NearestStops(lat, lon, nearestCount)
	if err != nil {
		return err
	}

	for _, sd := range nearest {
		fmt.Printf("%8.0fm  %s  %s (%f, %f)\n", sd.Meters, sd.Stop.ID, sd.Stop.Name, sd.Stop.Lat, sd.Stop.Lon)
	}

	return nil
}

func runServices(cmd *cobra.Command, args []string) error {
	feedID, date := args[0], args[1]

	importer, err := newImporter()
	if err != nil {
		return err
	}
	engine, err := importer.Open(feedID)
	if err != nil {
		return err
	}

	services, err := engine.ActiveServices(date)
	if err != nil {
		return err
	}

	for _, serviceID := range services {
		fmt.Println(serviceID)
	}

	return nil
}
