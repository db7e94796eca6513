package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"github.com/urbanfeed/transit/model"
	"github.com/urbanfeed/transit/storage"
)

// Parses a zipped feed archive into the given writer. The caller is
// responsible for committing (or aborting) the writer afterwards.
//
// Required tables missing from the archive fail with FeedError
// regardless of mode. Row-level problems follow the report's mode:
// strict aborts on the first one, lenient skips and records.
func ParseFeed(writer storage.FeedWriter, buf []byte, report *Report) (*storage.FeedMetadata, error) {
	file := map[string]io.ReadCloser{
		"agency.txt":         nil,
		"routes.txt":         nil,
		"stops.txt":          nil,
		"trips.txt":          nil,
		"stop_times.txt":     nil,
		"calendar.txt":       nil,
		"calendar_dates.txt": nil,
		"frequencies.txt":    nil,
	}

	defer func() {
		for _, rc := range file {
			if rc != nil {
				rc.Close()
			}
		}
	}()

	r, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, &model.FeedError{Msg: "unzipping archive", Err: err}
	}

	for _, f := range r.File {
		// Some agencies ship the tables inside a subdirectory.
		if f.FileInfo().IsDir() {
			continue
		}
		path := strings.Split(f.Name, "/")
		fName := path[len(path)-1]

		if _, found := file[fName]; !found {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, &model.FeedError{Msg: fmt.Sprintf("opening %s", f.Name), Err: err}
		}

		file[fName] = rc
	}

	for _, required := range []string{"agency.txt", "routes.txt", "stops.txt", "trips.txt", "stop_times.txt"} {
		if file[required] == nil {
			return nil, &model.FeedError{Msg: fmt.Sprintf("missing %s", required)}
		}
	}

	if file["calendar.txt"] == nil && file["calendar_dates.txt"] == nil {
		return nil, &model.FeedError{Msg: "missing calendar.txt and calendar_dates.txt"}
	}

	// LazyCSVReader survives sloppy use of quotes. The BOM reader
	// strips unicode BOMs at archive entry level.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	agencies, timezone, err := ParseAgencies(writer, file["agency.txt"], report)
	if err != nil {
		return nil, err
	}

	routes, err := ParseRoutes(writer, file["routes.txt"], agencies, report)
	if err != nil {
		return nil, err
	}

	// calendar.txt and calendar_dates.txt together yield the set of
	// known service IDs and the feed's date range. A feed with only
	// calendar_dates.txt is legal: services then exist purely
	// through Added exceptions.
	var calendarStart, calendarEnd string
	services := map[string]bool{}
	if file["calendar.txt"] != nil {
		services, calendarStart, calendarEnd, err = ParseCalendar(writer, file["calendar.txt"], report)
		if err != nil {
			return nil, err
		}
	}
	if file["calendar_dates.txt"] != nil {
		cdServices, minDate, maxDate, err := ParseCalendarDates(writer, file["calendar_dates.txt"], report)
		if err != nil {
			return nil, err
		}
		for serviceID := range cdServices {
			services[serviceID] = true
		}
		if minDate != "" && (calendarStart == "" || minDate < calendarStart) {
			calendarStart = minDate
		}
		if maxDate != "" && (calendarEnd == "" || maxDate > calendarEnd) {
			calendarEnd = maxDate
		}
	}

	stops, err := ParseStops(writer, file["stops.txt"], report)
	if err != nil {
		return nil, err
	}

	err = writer.BeginTrips()
	if err != nil {
		return nil, fmt.Errorf("beginning trips: %w", err)
	}
	trips, err := ParseTrips(writer, file["trips.txt"], routes, services, report)
	if err != nil {
		return nil, err
	}
	err = writer.EndTrips()
	if err != nil {
		return nil, fmt.Errorf("ending trips: %w", err)
	}

	err = writer.BeginStopTimes()
	if err != nil {
		return nil, fmt.Errorf("beginning stop_times: %w", err)
	}
	maxDeparture, err := ParseStopTimes(writer, file["stop_times.txt"], trips, stops, report)
	if err != nil {
		return nil, err
	}
	err = writer.EndStopTimes()
	if err != nil {
		return nil, fmt.Errorf("ending stop_times: %w", err)
	}

	// frequencies.txt is optional: absent means no synthesized
	// departures, not an error.
	if file["frequencies.txt"] != nil {
		err = ParseFrequencies(writer, file["frequencies.txt"], trips, report)
		if err != nil {
			return nil, err
		}
	}

	return &storage.FeedMetadata{
		Timezone:          timezone,
		CalendarStartDate: calendarStart,
		CalendarEndDate:   calendarEnd,
		MaxDeparture:      maxDeparture,
	}, nil
}

// TimeOfDay normalizes an H:MM:SS / HH:MM:SS time-of-day into a zero
// padded HHMMSS string. Hours up to 99 are allowed: times past
// 24:00:00 denote the same service day continuing past midnight.
func TimeOfDay(s string) (string, error) {
	return parseTimeOfDay(s)
}

func parseTimeOfDay(s string) (string, error) {
	split := strings.Split(strings.TrimSpace(s), ":")
	if len(split) != 3 {
		return "", fmt.Errorf("found %d parts in time '%s'", len(split), s)
	}

	hms := [3]int{}
	for i, str := range split {
		j, err := strconv.Atoi(str)
		if err != nil {
			return "", fmt.Errorf("non-integer in time '%s' pos %d", s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > 99 {
		return "", fmt.Errorf("invalid hour in '%s'", s)
	}
	if hms[1] < 0 || hms[1] > 59 {
		return "", fmt.Errorf("invalid minute in '%s'", s)
	}
	if hms[2] < 0 || hms[2] > 59 {
		return "", fmt.Errorf("invalid second in '%s'", s)
	}

	return fmt.Sprintf("%02d%02d%02d", hms[0], hms[1], hms[2]), nil
}
