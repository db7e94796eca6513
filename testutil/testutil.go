// Package testutil builds small feed archives for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/urbanfeed/transit"
	"github.com/urbanfeed/transit/parse"
	"github.com/urbanfeed/transit/storage"
)

// BuildZip zips the given tables, one file per key, one record per
// line.
func BuildZip(t testing.TB, files map[string][]string) []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	for filename, lines := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(lines, "\n") + "\n"))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return buf.Bytes()
}

// BuildFeed builds a zipped feed archive from a minimal valid feed,
// with the given tables overriding (or, with a nil value, removing)
// the defaults.
//
// The default feed: one agency, stops s1/s2/s3 near downtown Seattle,
// route r1, trip t1 on service wk (weekdays through 2026), serving
// s1 at 10:00 and s2 at 10:30.
func BuildFeed(t testing.TB, overrides map[string][]string) []byte {
	files := map[string][]string{
		"agency.txt": {
			"agency_id,agency_name,agency_url,agency_timezone",
			"metro,Metro Transit,https://metro.example.com,America/Los_Angeles",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"s1,Pike St & 3rd Ave,47.6097,-122.3381",
			"s2,Union St & 5th Ave,47.6085,-122.3340",
			"s3,Broadway & Pine St,47.6152,-122.3208",
		},
		"routes.txt": {
			"route_id,agency_id,route_short_name,route_long_name,route_type",
			"r1,metro,10,Downtown Loop,3",
		},
		"trips.txt": {
			"trip_id,route_id,service_id,trip_headsign,direction_id",
			"t1,r1,wk,Downtown,0",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"t1,10:00:00,10:00:00,s1,1",
			"t1,10:30:00,10:30:00,s2,2",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"wk,1,1,1,1,1,0,0,20250101,20261231",
		},
	}

	for filename, lines := range overrides {
		if lines == nil {
			delete(files, filename)
		} else {
			files[filename] = lines
		}
	}

	return BuildZip(t, files)
}

// ImportFeed imports a feed built by BuildFeed into in-memory storage
// and returns an engine over it. The import must succeed.
func ImportFeed(t testing.TB, overrides map[string][]string, mode parse.Mode) (*transit.Engine, *parse.Report) {
	importer := transit.NewImporter(storage.NewMemoryStorage(), nil)

	engine, report, err := importer.Import("test", BuildFeed(t, overrides), mode)
	require.NoError(t, err)

	return engine, report
}
