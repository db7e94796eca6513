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

type StopTimeCSV struct {
	TripID        string `csv:"trip_id"`
	StopID        string `csv:"stop_id"`
	StopSequence  string `csv:"stop_sequence"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	Headsign      string `csv:"stop_headsign"`
}

// Returns the maximum departure time seen, as an HHMMSS string.
//
// Within a trip, stop_sequence values must be unique; a duplicate is a
// ValidationError for the offending row. The per-trip visit order is
// defined by sorting on stop_sequence, so file order does not matter.
func ParseStopTimes(
	writer storage.FeedWriter,
	data io.Reader,
	trips map[string]bool,
	stops map[string]bool,
	report *Report,
) (string, error) {

	seqSeen := map[string]map[uint32]bool{}
	maxDeparture := "000000"

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(st *StopTimeCSV) error {
		row++

		if !trips[st.TripID] {
			return report.skip(&model.ReferenceError{Table: "stop_times", Row: row, Field: "trip_id", Value: st.TripID})
		}
		if st.StopID == "" {
			return report.skip(&model.ValidationError{Table: "stop_times", Row: row, Msg: "missing stop_id"})
		}
		if !stops[st.StopID] {
			return report.skip(&model.ReferenceError{Table: "stop_times", Row: row, Field: "stop_id", Value: st.StopID})
		}

		seq64, err := strconv.ParseUint(st.StopSequence, 10, 32)
		if err != nil {
			return report.skip(&model.ParseError{Table: "stop_times", Row: row, Err: fmt.Errorf("invalid stop_sequence '%s'", st.StopSequence)})
		}
		seq := uint32(seq64)

		if seqSeen[st.TripID] == nil {
			seqSeen[st.TripID] = map[uint32]bool{}
		}
		if seqSeen[st.TripID][seq] {
			return report.skip(&model.ValidationError{Table: "stop_times", Row: row, Msg: fmt.Sprintf("duplicate stop_sequence %d for trip_id '%s'", seq, st.TripID)})
		}

		arrivalTime, err := parseTimeOfDay(st.ArrivalTime)
		if err != nil {
			return report.skip(&model.ParseError{Table: "stop_times", Row: row, Err: errors.Wrap(err, "parsing arrival_time")})
		}
		departureTime, err := parseTimeOfDay(st.DepartureTime)
		if err != nil {
			return report.skip(&model.ParseError{Table: "stop_times", Row: row, Err: errors.Wrap(err, "parsing departure_time")})
		}
		if arrivalTime > departureTime {
			return report.skip(&model.ValidationError{Table: "stop_times", Row: row, Msg: fmt.Sprintf("arrival %s after departure %s", st.ArrivalTime, st.DepartureTime)})
		}

		seqSeen[st.TripID][seq] = true
		if departureTime > maxDeparture {
			maxDeparture = departureTime
		}

		err = writer.WriteStopTime(&model.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			Headsign:     st.Headsign,
			StopSequence: seq,
			Arrival:      arrivalTime,
			Departure:    departureTime,
		})
		if err != nil {
			return errors.Wrapf(err, "writing stop_time (row %d)", row)
		}

		return nil
	})
	if err != nil {
		return "", wrapTableErr("stop_times", err)
	}

	return maxDeparture, nil
}
