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

type FrequencyCSV struct {
	TripID      string `csv:"trip_id"`
	StartTime   string `csv:"start_time"`
	EndTime     string `csv:"end_time"`
	HeadwaySecs string `csv:"headway_secs"`
}

// A frequency block references an existing trip and spans a half-open
// [start_time, end_time) window with a positive headway.
func ParseFrequencies(
	writer storage.FeedWriter,
	data io.Reader,
	trips map[string]bool,
	report *Report,
) error {

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(f *FrequencyCSV) error {
		row++

		if !trips[f.TripID] {
			return report.skip(&model.ReferenceError{Table: "frequencies", Row: row, Field: "trip_id", Value: f.TripID})
		}

		start, err := parseTimeOfDay(f.StartTime)
		if err != nil {
			return report.skip(&model.ParseError{Table: "frequencies", Row: row, Err: errors.Wrap(err, "parsing start_time")})
		}
		end, err := parseTimeOfDay(f.EndTime)
		if err != nil {
			return report.skip(&model.ParseError{Table: "frequencies", Row: row, Err: errors.Wrap(err, "parsing end_time")})
		}
		if start >= end {
			return report.skip(&model.ValidationError{Table: "frequencies", Row: row, Msg: fmt.Sprintf("start_time %s not before end_time %s", f.StartTime, f.EndTime)})
		}

		headway, err := strconv.Atoi(f.HeadwaySecs)
		if err != nil {
			return report.skip(&model.ParseError{Table: "frequencies", Row: row, Err: fmt.Errorf("invalid headway_secs '%s'", f.HeadwaySecs)})
		}
		if headway <= 0 {
			return report.skip(&model.ValidationError{Table: "frequencies", Row: row, Msg: fmt.Sprintf("headway_secs %d not positive", headway)})
		}

		err = writer.WriteFrequency(&model.Frequency{
			TripID:      f.TripID,
			StartTime:   start,
			EndTime:     end,
			HeadwaySecs: headway,
		})
		if err != nil {
			return errors.Wrapf(err, "writing frequency (row %d)", row)
		}

		return nil
	})
	if err != nil {
		return wrapTableErr("frequencies", err)
	}

	return nil
}
