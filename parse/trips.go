package parse

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/urbanfeed/transit/model"
	"github.com/urbanfeed/transit/storage"
)

type TripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID string `csv:"direction_id"`
}

// Returns the set of trip IDs written. A trip must reference a known
// route and a known service: in lenient mode a dangling trip is
// skipped, which in turn makes its stop_times reference errors.
func ParseTrips(
	writer storage.FeedWriter,
	data io.Reader,
	routes map[string]bool,
	services map[string]bool,
	report *Report,
) (map[string]bool, error) {
	trips := map[string]bool{}

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(t *TripCSV) error {
		row++

		if t.ID == "" {
			return report.skip(&model.ValidationError{Table: "trips", Row: row, Msg: "empty trip_id"})
		}
		if trips[t.ID] {
			return report.skip(&model.ValidationError{Table: "trips", Row: row, Msg: "repeated trip_id '" + t.ID + "'"})
		}
		if t.RouteID == "" {
			return report.skip(&model.ValidationError{Table: "trips", Row: row, Msg: "empty route_id"})
		}
		if !routes[t.RouteID] {
			return report.skip(&model.ReferenceError{Table: "trips", Row: row, Field: "route_id", Value: t.RouteID})
		}
		if !services[t.ServiceID] {
			return report.skip(&model.ReferenceError{Table: "trips", Row: row, Field: "service_id", Value: t.ServiceID})
		}

		directionID := int8(0)
		if t.DirectionID != "" {
			d, err := strconv.Atoi(t.DirectionID)
			if err != nil || (d != 0 && d != 1) {
				return report.skip(&model.ParseError{Table: "trips", Row: row, Err: fmt.Errorf("invalid direction_id '%s'", t.DirectionID)})
			}
			directionID = int8(d)
		}

		trips[t.ID] = true

		err := writer.WriteTrip(&model.Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			ServiceID:   t.ServiceID,
			Headsign:    t.Headsign,
			DirectionID: directionID,
		})
		if err != nil {
			return errors.Wrapf(err, "writing trip '%s' (row %d)", t.ID, row)
		}

		return nil
	})
	if err != nil {
		return nil, wrapTableErr("trips", err)
	}

	return trips, nil
}
