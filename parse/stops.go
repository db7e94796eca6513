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

// Coordinates are declared as strings and coerced by hand so a bad
// value is a per-row error rather than aborting the whole table.
type StopCSV struct {
	ID   string `csv:"stop_id"`
	Code string `csv:"stop_code"`
	Name string `csv:"stop_name"`
	Desc string `csv:"stop_desc"`
	Lat  string `csv:"stop_lat"`
	Lon  string `csv:"stop_lon"`
}

// Returns the set of stop IDs written.
func ParseStops(writer storage.FeedWriter, data io.Reader, report *Report) (map[string]bool, error) {
	stops := map[string]bool{}

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopCSV) error {
		row++

		if st.ID == "" {
			return report.skip(&model.ValidationError{Table: "stops", Row: row, Msg: "empty stop_id"})
		}
		if stops[st.ID] {
			return report.skip(&model.ValidationError{Table: "stops", Row: row, Msg: "repeated stop_id '" + st.ID + "'"})
		}
		if st.Name == "" {
			return report.skip(&model.ValidationError{Table: "stops", Row: row, Msg: "empty stop_name for stop_id '" + st.ID + "'"})
		}

		lat, err := strconv.ParseFloat(st.Lat, 64)
		if err != nil {
			return report.skip(&model.ParseError{Table: "stops", Row: row, Err: fmt.Errorf("invalid stop_lat '%s'", st.Lat)})
		}
		lon, err := strconv.ParseFloat(st.Lon, 64)
		if err != nil {
			return report.skip(&model.ParseError{Table: "stops", Row: row, Err: fmt.Errorf("invalid stop_lon '%s'", st.Lon)})
		}
		if lat < -90 || lat > 90 {
			return report.skip(&model.ValidationError{Table: "stops", Row: row, Msg: fmt.Sprintf("stop_lat %g out of range", lat)})
		}
		if lon < -180 || lon > 180 {
			return report.skip(&model.ValidationError{Table: "stops", Row: row, Msg: fmt.Sprintf("stop_lon %g out of range", lon)})
		}

		stops[st.ID] = true

		err = writer.WriteStop(&model.Stop{
			ID:   st.ID,
			Code: st.Code,
			Name: st.Name,
			Desc: st.Desc,
			Lat:  lat,
			Lon:  lon,
		})
		if err != nil {
			return errors.Wrapf(err, "writing stop '%s' (row %d)", st.ID, row)
		}

		return nil
	})
	if err != nil {
		return nil, wrapTableErr("stops", err)
	}

	return stops, nil
}
