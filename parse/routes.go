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

type RouteCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
}

func legalRouteType(t model.RouteType) bool {
	if t >= 0 && t <= 7 {
		return true
	}
	if t == 11 || t == 12 {
		return true
	}
	return false
}

// Returns the set of route IDs written.
func ParseRoutes(writer storage.FeedWriter, data io.Reader, agencies map[string]bool, report *Report) (map[string]bool, error) {
	routes := map[string]bool{}

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(r *RouteCSV) error {
		row++

		if r.ID == "" {
			return report.skip(&model.ValidationError{Table: "routes", Row: row, Msg: "route has no route_id"})
		}
		if routes[r.ID] {
			return report.skip(&model.ValidationError{Table: "routes", Row: row, Msg: "repeated route_id '" + r.ID + "'"})
		}

		// With multiple agencies, agency_id is required.
		if len(agencies) > 1 && r.AgencyID == "" {
			return report.skip(&model.ValidationError{Table: "routes", Row: row, Msg: "route_id '" + r.ID + "' has no agency_id"})
		}
		if r.AgencyID != "" && !agencies[r.AgencyID] {
			return report.skip(&model.ReferenceError{Table: "routes", Row: row, Field: "agency_id", Value: r.AgencyID})
		}

		if r.ShortName == "" && r.LongName == "" {
			return report.skip(&model.ValidationError{Table: "routes", Row: row, Msg: "route_id '" + r.ID + "' has no short_name or long_name"})
		}

		if r.Type == "" {
			return report.skip(&model.ValidationError{Table: "routes", Row: row, Msg: "route_id '" + r.ID + "' has no route_type"})
		}
		routeType, err := strconv.Atoi(r.Type)
		if err != nil {
			return report.skip(&model.ParseError{Table: "routes", Row: row, Err: fmt.Errorf("invalid route_type '%s'", r.Type)})
		}
		if !legalRouteType(model.RouteType(routeType)) {
			return report.skip(&model.ValidationError{Table: "routes", Row: row, Msg: fmt.Sprintf("route_id '%s' has invalid route_type %d", r.ID, routeType)})
		}

		routes[r.ID] = true

		err = writer.WriteRoute(&model.Route{
			ID:        r.ID,
			AgencyID:  r.AgencyID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Type:      model.RouteType(routeType),
		})
		if err != nil {
			return errors.Wrapf(err, "writing route '%s' (row %d)", r.ID, row)
		}

		return nil
	})
	if err != nil {
		return nil, wrapTableErr("routes", err)
	}

	return routes, nil
}
