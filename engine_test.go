package transit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanfeed/transit"
	"github.com/urbanfeed/transit/model"
	"github.com/urbanfeed/transit/parse"
	"github.com/urbanfeed/transit/storage"
	"github.com/urbanfeed/transit/testutil"
)

// The default test feed serves stop s1 at 10:00:00 and s2 at 10:30:00
// on trip t1, service wk (weekdays through 2026). 2025-06-10 is a
// Tuesday.

func TestDeparturesWindow(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, nil, parse.Strict)

	// Window start is inclusive.
	departures, err := engine.Departures("s1", "20250610", "10:00:00", "10:30:00", 0)
	require.NoError(t, err)
	require.Len(t, departures, 1)
	assert.Equal(t, "s1", departures[0].StopID)
	assert.Equal(t, "r1", departures[0].RouteID)
	assert.Equal(t, "t1", departures[0].TripID)
	assert.Equal(t, "Downtown", departures[0].Headsign)
	assert.Equal(t, "100000", departures[0].DepartureTime)

	// Window end is exclusive.
	departures, err = engine.Departures("s1", "20250610", "09:00:00", "10:00:00", 0)
	require.NoError(t, err)
	assert.Empty(t, departures)

	departures, err = engine.Departures("s2", "20250610", "10:00:00", "10:30:01", 0)
	require.NoError(t, err)
	require.Len(t, departures, 1)
	assert.Equal(t, "103000", departures[0].DepartureTime)

	// Empty and inverted windows are valid, just empty.
	departures, err = engine.Departures("s1", "20250610", "10:00:00", "10:00:00", 0)
	require.NoError(t, err)
	assert.Empty(t, departures)

	departures, err = engine.Departures("s1", "20250610", "11:00:00", "10:00:00", 0)
	require.NoError(t, err)
	assert.Empty(t, departures)
}

func TestDeparturesFollowCalendar(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, map[string][]string{
		"calendar_dates.txt": {
			"service_id,date,exception_type",
			"wk,20250610,2",
			"wk,20250614,1",
		},
	}, parse.Strict)

	// Regular weekday, service runs.
	departures, err := engine.Departures("s1", "20250611", "09:00:00", "11:00:00", 0)
	require.NoError(t, err)
	assert.Len(t, departures, 1)

	// Friday, still a weekday, service runs.
	departures, err = engine.Departures("s1", "20250613", "09:00:00", "11:00:00", 0)
	require.NoError(t, err)
	assert.Len(t, departures, 1)

	// Regular Saturday, no service.
	departures, err = engine.Departures("s1", "20250621", "09:00:00", "11:00:00", 0)
	require.NoError(t, err)
	assert.Empty(t, departures)

	// Tuesday with a Removed exception: the exception wins.
	departures, err = engine.Departures("s1", "20250610", "09:00:00", "11:00:00", 0)
	require.NoError(t, err)
	assert.Empty(t, departures)

	// Saturday with an Added exception.
	departures, err = engine.Departures("s1", "20250614", "09:00:00", "11:00:00", 0)
	require.NoError(t, err)
	assert.Len(t, departures, 1)

	// Outside the calendar range.
	departures, err = engine.Departures("s1", "20270610", "09:00:00", "11:00:00", 0)
	require.NoError(t, err)
	assert.Empty(t, departures)
}

func TestDeparturesOvernight(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, map[string][]string{
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"t1,23:55:00,23:55:00,s1,1",
			"t1,25:30:00,25:30:00,s2,2",
		},
	}, parse.Strict)

	// A time past 24:00:00 belongs to the same service day; the
	// query uses that day's date, not the next calendar day's.
	departures, err := engine.Departures("s2", "20250610", "25:00:00", "26:00:00", 0)
	require.NoError(t, err)
	require.Len(t, departures, 1)
	assert.Equal(t, "253000", departures[0].DepartureTime)

	departures, err = engine.Departures("s2", "20250610", "01:00:00", "02:00:00", 0)
	require.NoError(t, err)
	assert.Empty(t, departures)
}

func TestDeparturesFrequencySynthesis(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, map[string][]string{
		"frequencies.txt": {
			"trip_id,start_time,end_time,headway_secs",
			"t1,06:00:00,09:00:00,600",
		},
	}, parse.Strict)

	// 06:00:00, 06:10:00, ... up to 08:50:00. The end of the block
	// is exclusive: nothing departs at 09:00:00, and the trip's
	// literal 10:00:00 stop_time is superseded by the blocks.
	departures, err := engine.Departures("s1", "20250610", "05:00:00", "11:00:00", 0)
	require.NoError(t, err)
	require.Len(t, departures, 18)
	assert.Equal(t, "060000", departures[0].DepartureTime)
	assert.Equal(t, "061000", departures[1].DepartureTime)
	assert.Equal(t, "085000", departures[17].DepartureTime)
	for _, d := range departures {
		assert.Equal(t, "t1", d.TripID)
		assert.Equal(t, "r1", d.RouteID)
	}

	// The query window clips synthesized departures too.
	departures, err = engine.Departures("s1", "20250610", "06:25:00", "06:45:00", 0)
	require.NoError(t, err)
	require.Len(t, departures, 2)
	assert.Equal(t, "063000", departures[0].DepartureTime)
	assert.Equal(t, "064000", departures[1].DepartureTime)

	// No service on Saturday, no synthesized departures either.
	departures, err = engine.Departures("s1", "20250614", "05:00:00", "11:00:00", 0)
	require.NoError(t, err)
	assert.Empty(t, departures)
}

func TestDeparturesLimit(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, map[string][]string{
		"frequencies.txt": {
			"trip_id,start_time,end_time,headway_secs",
			"t1,06:00:00,09:00:00,600",
		},
	}, parse.Strict)

	departures, err := engine.Departures("s1", "20250610", "05:00:00", "11:00:00", 5)
	require.NoError(t, err)
	require.Len(t, departures, 5)
	assert.Equal(t, "060000", departures[0].DepartureTime)
	assert.Equal(t, "064000", departures[4].DepartureTime)
}

func TestDeparturesErrors(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, nil, parse.Strict)

	_, err := engine.Departures("no-such-stop", "20250610", "09:00:00", "11:00:00", 0)
	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "stop", notFound.Kind)
	assert.Equal(t, "no-such-stop", notFound.ID)

	var queryErr *model.QueryError
	_, err = engine.Departures("s1", "2025-06-10", "09:00:00", "11:00:00", 0)
	require.ErrorAs(t, err, &queryErr)

	_, err = engine.Departures("s1", "20250610", "9am", "11:00:00", 0)
	require.ErrorAs(t, err, &queryErr)

	_, err = engine.Departures("s1", "20250610", "09:00:00", "11:61:00", 0)
	require.ErrorAs(t, err, &queryErr)
}

func TestNearestStops(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, nil, parse.Strict)

	// Exactly at s1.
	nearest, err := engine.NearestStops(47.6097, -122.3381, 1)
	require.NoError(t, err)
	require.Len(t, nearest, 1)
	assert.Equal(t, "s1", nearest[0].Stop.ID)
	assert.Equal(t, 0.0, nearest[0].Meters)

	// Ordered nearest first.
	nearest, err = engine.NearestStops(47.6097, -122.3381, 3)
	require.NoError(t, err)
	require.Len(t, nearest, 3)
	assert.Equal(t, "s1", nearest[0].Stop.ID)
	assert.Equal(t, "s2", nearest[1].Stop.ID)
	assert.Equal(t, "s3", nearest[2].Stop.ID)
	assert.Less(t, nearest[0].Meters, nearest[1].Meters)
	assert.Less(t, nearest[1].Meters, nearest[2].Meters)

	// Asking for more stops than the feed has.
	nearest, err = engine.NearestStops(47.6097, -122.3381, 10)
	require.NoError(t, err)
	assert.Len(t, nearest, 3)

	// A query point far from every stop still finds them.
	nearest, err = engine.NearestStops(-33.8688, 151.2093, 1)
	require.NoError(t, err)
	require.Len(t, nearest, 1)
	assert.Greater(t, nearest[0].Meters, 1000000.0)

	var queryErr *model.QueryError
	_, err = engine.NearestStops(91.0, 0.0, 1)
	require.ErrorAs(t, err, &queryErr)
	_, err = engine.NearestStops(0.0, 181.0, 1)
	require.ErrorAs(t, err, &queryErr)
	_, err = engine.NearestStops(0.0, 0.0, 0)
	require.ErrorAs(t, err, &queryErr)
}

func TestActiveServices(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, nil, parse.Strict)

	services, err := engine.ActiveServices("20250610")
	require.NoError(t, err)
	assert.Equal(t, []string{"wk"}, services)

	var queryErr *model.QueryError
	_, err = engine.ActiveServices("tomorrow")
	require.ErrorAs(t, err, &queryErr)
}

func TestLookups(t *testing.T) {
	engine, _ := testutil.ImportFeed(t, nil, parse.Strict)

	stop, err := engine.Stop("s1")
	require.NoError(t, err)
	assert.Equal(t, "Pike St & 3rd Ave", stop.Name)

	route, err := engine.Route("r1")
	require.NoError(t, err)
	assert.Equal(t, "Downtown Loop", route.LongName)

	trip, err := engine.Trip("t1")
	require.NoError(t, err)
	assert.Equal(t, "wk", trip.ServiceID)

	var notFound *model.NotFoundError
	_, err = engine.Stop("nope")
	require.ErrorAs(t, err, &notFound)
	_, err = engine.Route("nope")
	require.ErrorAs(t, err, &notFound)
	_, err = engine.Trip("nope")
	require.ErrorAs(t, err, &notFound)

	agencies, err := engine.Agencies()
	require.NoError(t, err)
	require.Len(t, agencies, 1)
	assert.Equal(t, "America/Los_Angeles", agencies[0].Timezone)
}

func TestImportStrictVsLenient(t *testing.T) {
	badTrips := map[string][]string{
		"trips.txt": {
			"trip_id,route_id,service_id,trip_headsign,direction_id",
			"t1,r1,wk,Downtown,0",
			"t2,no-such-route,wk,Uptown,1",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"t1,10:00:00,10:00:00,s1,1",
			"t2,11:00:00,11:00:00,s1,1",
		},
	}

	importer := transit.NewImporter(storage.NewMemoryStorage(), nil)

	// Strict: the import aborts and the feed stays unqueryable.
	_, _, err := importer.Import("feed", testutil.BuildFeed(t, badTrips), parse.Strict)
	var refErr *model.ReferenceError
	require.ErrorAs(t, err, &refErr)
	_, err = importer.Open("feed")
	require.Error(t, err)

	// Lenient: bad rows are skipped and reported, the rest imports.
	engine, report, err := importer.Import("feed", testutil.BuildFeed(t, badTrips), parse.Lenient)
	require.NoError(t, err)
	assert.Len(t, report.Skipped, 2)

	departures, err := engine.Departures("s1", "20250610", "09:00:00", "12:00:00", 0)
	require.NoError(t, err)
	require.Len(t, departures, 1)
	assert.Equal(t, "t1", departures[0].TripID)

	feeds, err := importer.Feeds()
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, 2, feeds[0].RowsSkipped)
	assert.NotEmpty(t, feeds[0].SHA256)
}

func TestReimportKeepsOldEngine(t *testing.T) {
	importer := transit.NewImporter(storage.NewMemoryStorage(), nil)

	before, _, err := importer.Import("feed", testutil.BuildFeed(t, nil), parse.Strict)
	require.NoError(t, err)

	after, _, err := importer.Import("feed", testutil.BuildFeed(t, map[string][]string{
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"t1,12:00:00,12:00:00,s1,1",
		},
	}), parse.Strict)
	require.NoError(t, err)

	departures, err := before.Departures("s1", "20250610", "09:00:00", "13:00:00", 0)
	require.NoError(t, err)
	require.Len(t, departures, 1)
	assert.Equal(t, "100000", departures[0].DepartureTime)

	departures, err = after.Departures("s1", "20250610", "09:00:00", "13:00:00", 0)
	require.NoError(t, err)
	require.Len(t, departures, 1)
	assert.Equal(t, "120000", departures[0].DepartureTime)
}

func TestMissingFrequenciesFile(t *testing.T) {
	// frequencies.txt is optional; without it every departure is
	// literal.
	engine, report := testutil.ImportFeed(t, nil, parse.Strict)
	assert.Empty(t, report.Skipped)

	departures, err := engine.Departures("s1", "20250610", "00:00:00", "26:00:00", 0)
	require.NoError(t, err)
	assert.Len(t, departures, 1)
}
