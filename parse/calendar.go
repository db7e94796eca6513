package parse

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/urbanfeed/transit/model"
	"github.com/urbanfeed/transit/storage"
)

type CalendarCSV struct {
	ServiceID string `csv:"service_id"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
	Monday    string `csv:"monday"`
	Tuesday   string `csv:"tuesday"`
	Wednesday string `csv:"wednesday"`
	Thursday  string `csv:"thursday"`
	Friday    string `csv:"friday"`
	Saturday  string `csv:"saturday"`
	Sunday    string `csv:"sunday"`
}

func weekdayBit(value string, day time.Weekday) (int8, error) {
	switch value {
	case "0", "":
		return 0, nil
	case "1":
		return 1 << day, nil
	}
	return 0, fmt.Errorf("invalid %s value '%s'", day, value)
}

// Returns the set of service IDs plus the min start and max end dates.
func ParseCalendar(writer storage.FeedWriter, data io.Reader, report *Report) (map[string]bool, string, string, error) {
	services := map[string]bool{}
	var minDate, maxDate string

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(c *CalendarCSV) error {
		row++

		if c.ServiceID == "" {
			return report.skip(&model.ValidationError{Table: "calendar", Row: row, Msg: "empty service_id"})
		}
		if services[c.ServiceID] {
			return report.skip(&model.ValidationError{Table: "calendar", Row: row, Msg: "repeated service_id '" + c.ServiceID + "'"})
		}

		var weekday int8
		for _, day := range []struct {
			value string
			day   time.Weekday
		}{
			{c.Monday, time.Monday},
			{c.Tuesday, time.Tuesday},
			{c.Wednesday, time.Wednesday},
			{c.Thursday, time.Thursday},
			{c.Friday, time.Friday},
			{c.Saturday, time.Saturday},
			{c.Sunday, time.Sunday},
		} {
			bit, err := weekdayBit(day.value, day.day)
			if err != nil {
				return report.skip(&model.ParseError{Table: "calendar", Row: row, Err: err})
			}
			weekday |= bit
		}

		if _, err := time.ParseInLocation("20060102", c.StartDate, time.UTC); err != nil {
			return report.skip(&model.ParseError{Table: "calendar", Row: row, Err: fmt.Errorf("invalid start_date '%s'", c.StartDate)})
		}
		if _, err := time.ParseInLocation("20060102", c.EndDate, time.UTC); err != nil {
			return report.skip(&model.ParseError{Table: "calendar", Row: row, Err: fmt.Errorf("invalid end_date '%s'", c.EndDate)})
		}
		if c.StartDate > c.EndDate {
			return report.skip(&model.ValidationError{Table: "calendar", Row: row, Msg: "start_date " + c.StartDate + " after end_date " + c.EndDate})
		}

		services[c.ServiceID] = true

		if minDate == "" || c.StartDate < minDate {
			minDate = c.StartDate
		}
		if maxDate == "" || c.EndDate > maxDate {
			maxDate = c.EndDate
		}

		err := writer.WriteCalendar(&model.Calendar{
			ServiceID: c.ServiceID,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
			Weekday:   weekday,
		})
		if err != nil {
			return errors.Wrapf(err, "writing calendar (row %d)", row)
		}

		return nil
	})
	if err != nil {
		return nil, "", "", wrapTableErr("calendar", err)
	}

	return services, minDate, maxDate, nil
}
