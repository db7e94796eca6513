package parse

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/urbanfeed/transit/model"
	"github.com/urbanfeed/transit/storage"
)

type CalendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType string `csv:"exception_type"`
}

// Returns the set of service IDs seen plus the min and max exception
// dates. Service IDs appearing only here (never in calendar.txt) are
// legal: they exist purely through Added exceptions.
func ParseCalendarDates(
	writer storage.FeedWriter,
	data io.Reader,
	report *Report,
) (map[string]bool, string, string, error) {

	services := map[string]bool{}
	seen := map[string]bool{}
	var minDate, maxDate string

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(cd *CalendarDateCSV) error {
		row++

		if cd.ServiceID == "" {
			return report.skip(&model.ValidationError{Table: "calendar_dates", Row: row, Msg: "empty service_id"})
		}

		et, err := strconv.Atoi(cd.ExceptionType)
		if err != nil || (et != int(model.ExceptionAdded) && et != int(model.ExceptionRemoved)) {
			return report.skip(&model.ParseError{Table: "calendar_dates", Row: row, Err: fmt.Errorf("illegal exception_type '%s'", cd.ExceptionType)})
		}

		if _, err := time.ParseInLocation("20060102", cd.Date, time.UTC); err != nil {
			return report.skip(&model.ParseError{Table: "calendar_dates", Row: row, Err: fmt.Errorf("invalid date '%s'", cd.Date)})
		}

		serviceDate := cd.Date + "-" + cd.ServiceID
		if seen[serviceDate] {
			return report.skip(&model.ValidationError{Table: "calendar_dates", Row: row, Msg: "duplicate service/date '" + serviceDate + "'"})
		}
		seen[serviceDate] = true
		services[cd.ServiceID] = true

		if minDate == "" || cd.Date < minDate {
			minDate = cd.Date
		}
		if maxDate == "" || cd.Date > maxDate {
			maxDate = cd.Date
		}

		err = writer.WriteCalendarDate(&model.CalendarDate{
			ServiceID:     cd.ServiceID,
			Date:          cd.Date,
			ExceptionType: model.ExceptionType(et),
		})
		if err != nil {
			return errors.Wrapf(err, "writing calendar date (row %d)", row)
		}

		return nil
	})
	if err != nil {
		return nil, "", "", wrapTableErr("calendar_dates", err)
	}

	return services, minDate, maxDate, nil
}
