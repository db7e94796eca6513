package parse

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/urbanfeed/transit/model"
	"github.com/urbanfeed/transit/storage"
)

type AgencyCSV struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
}

// Returns the set of agency IDs and the feed timezone.
//
// The timezone is a property of the whole feed: "If multiple agencies
// are specified in the dataset, each must have the same
// agency_timezone." A broken timezone is a FeedError in both modes,
// since no schedule query can be anchored without one.
func ParseAgencies(writer storage.FeedWriter, data io.Reader, report *Report) (map[string]bool, string, error) {
	agencies := map[string]bool{}
	tz := ""

	row := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(a *AgencyCSV) error {
		row++

		if a.Timezone == "" {
			return &model.FeedError{Msg: "missing agency_timezone"}
		}
		if tz == "" {
			if _, err := time.LoadLocation(a.Timezone); err != nil {
				return &model.FeedError{Msg: "invalid agency_timezone '" + a.Timezone + "'", Err: err}
			}
			tz = a.Timezone
		} else if a.Timezone != tz {
			return &model.FeedError{Msg: "multiple agency_timezone values"}
		}

		if agencies[a.ID] {
			return report.skip(&model.ValidationError{Table: "agency", Row: row, Msg: "duplicated agency_id '" + a.ID + "'"})
		}
		if a.Name == "" {
			return report.skip(&model.ValidationError{Table: "agency", Row: row, Msg: "missing agency_name"})
		}

		agencies[a.ID] = true

		err := writer.WriteAgency(&model.Agency{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.URL,
			Timezone: tz,
		})
		if err != nil {
			return errors.Wrapf(err, "writing agency (row %d)", row)
		}

		return nil
	})
	if err != nil {
		return nil, "", wrapTableErr("agency", err)
	}

	if len(agencies) == 0 {
		return nil, "", &model.FeedError{Msg: "no agency record found"}
	}

	return agencies, tz, nil
}
