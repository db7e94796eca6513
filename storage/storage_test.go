package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanfeed/transit/model"
	"github.com/urbanfeed/transit/storage"
)

// Backends under test. Postgres needs a running server and is covered
// by its own integration setup.
func testStorages(t *testing.T) map[string]storage.Storage {
	sqlite, err := storage.NewSQLiteStorage()
	require.NoError(t, err)

	return map[string]storage.Storage{
		"memory": storage.NewMemoryStorage(),
		"sqlite": sqlite,
	}
}

func writeTestFeed(t *testing.T, s storage.Storage, feedID string) {
	w, err := s.GetWriter(feedID)
	require.NoError(t, err)

	require.NoError(t, w.WriteAgency(&model.Agency{
		ID: "a", Name: "Agency", URL: "https://agency.example.com", Timezone: "America/New_York",
	}))

	require.NoError(t, w.WriteStop(&model.Stop{ID: "s1", Name: "First", Lat: 40.0, Lon: -74.0}))
	require.NoError(t, w.WriteStop(&model.Stop{ID: "s2", Name: "Second", Lat: 40.1, Lon: -74.1}))

	require.NoError(t, w.WriteRoute(&model.Route{ID: "r1", AgencyID: "a", ShortName: "1", Type: model.RouteTypeBus}))

	require.NoError(t, w.WriteCalendar(&model.Calendar{
		ServiceID: "weekday",
		StartDate: "20250101",
		EndDate:   "20251231",
		Weekday: 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday |
			1<<time.Thursday | 1<<time.Friday,
	}))
	require.NoError(t, w.WriteCalendar(&model.Calendar{
		ServiceID: "weekend",
		StartDate: "20250101",
		EndDate:   "20251231",
		Weekday:   1<<time.Saturday | 1<<time.Sunday,
	}))

	// 2025-06-09 is a Monday.
	require.NoError(t, w.WriteCalendarDate(&model.CalendarDate{
		ServiceID: "weekday", Date: "20250609", ExceptionType: model.ExceptionRemoved,
	}))
	require.NoError(t, w.WriteCalendarDate(&model.CalendarDate{
		ServiceID: "weekend", Date: "20250609", ExceptionType: model.ExceptionAdded,
	}))

	require.NoError(t, w.BeginTrips())
	require.NoError(t, w.WriteTrip(&model.Trip{ID: "t1", RouteID: "r1", ServiceID: "weekday", Headsign: "North"}))
	require.NoError(t, w.WriteTrip(&model.Trip{ID: "t2", RouteID: "r1", ServiceID: "weekend", Headsign: "South"}))
	require.NoError(t, w.EndTrips())

	require.NoError(t, w.BeginStopTimes())
	require.NoError(t, w.WriteStopTime(&model.StopTime{TripID: "t1", StopID: "s1", StopSequence: 1, Arrival: "080000", Departure: "080000"}))
	require.NoError(t, w.WriteStopTime(&model.StopTime{TripID: "t1", StopID: "s2", StopSequence: 2, Arrival: "083000", Departure: "083000"}))
	require.NoError(t, w.WriteStopTime(&model.StopTime{TripID: "t2", StopID: "s1", StopSequence: 1, Arrival: "090000", Departure: "090000"}))
	require.NoError(t, w.EndStopTimes())

	require.NoError(t, w.WriteFrequency(&model.Frequency{
		TripID: "t1", StartTime: "060000", EndTime: "070000", HeadwaySecs: 600,
	}))

	require.NoError(t, w.Close())
}

func TestActiveServices(t *testing.T) {
	for name, s := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			writeTestFeed(t, s, "feed")
			r, err := s.GetReader("feed")
			require.NoError(t, err)

			// Regular Tuesday: only the weekday service.
			services, err := r.ActiveServices("20250610")
			require.NoError(t, err)
			assert.Equal(t, []string{"weekday"}, services)

			// Saturday.
			services, err = r.ActiveServices("20250614")
			require.NoError(t, err)
			assert.Equal(t, []string{"weekend"}, services)

			// Monday with both exceptions applied: weekday removed,
			// weekend added.
			services, err = r.ActiveServices("20250609")
			require.NoError(t, err)
			assert.Equal(t, []string{"weekend"}, services)

			// Outside the calendar range.
			services, err = r.ActiveServices("20261006")
			require.NoError(t, err)
			assert.Empty(t, services)

			_, err = r.ActiveServices("not-a-date")
			assert.Error(t, err)
		})
	}
}

func TestStopTimeEventWindow(t *testing.T) {
	for name, s := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			writeTestFeed(t, s, "feed")
			r, err := s.GetReader("feed")
			require.NoError(t, err)

			// DepartureStart is inclusive, DepartureEnd exclusive.
			events, err := r.StopTimeEvents(storage.StopTimeEventFilter{
				StopID:         "s1",
				DepartureStart: "080000",
				DepartureEnd:   "090000",
			})
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "t1", events[0].Trip.ID)
			assert.Equal(t, "080000", events[0].StopTime.Departure)
			assert.Equal(t, "r1", events[0].Route.ID)

			events, err = r.StopTimeEvents(storage.StopTimeEventFilter{
				StopID:         "s1",
				DepartureStart: "080000",
				DepartureEnd:   "090001",
			})
			require.NoError(t, err)
			assert.Len(t, events, 2)

			events, err = r.StopTimeEvents(storage.StopTimeEventFilter{
				StopID:     "s1",
				ServiceIDs: []string{"weekend"},
			})
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "t2", events[0].Trip.ID)

			events, err = r.StopTimeEvents(storage.StopTimeEventFilter{
				StopID:  "s1",
				TripIDs: []string{"t1"},
			})
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "t1", events[0].Trip.ID)
		})
	}
}

func TestLookupsAndListings(t *testing.T) {
	for name, s := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			writeTestFeed(t, s, "feed")
			r, err := s.GetReader("feed")
			require.NoError(t, err)

			stop, err := r.StopByID("s1")
			require.NoError(t, err)
			require.NotNil(t, stop)
			assert.Equal(t, "First", stop.Name)

			stop, err = r.StopByID("nope")
			require.NoError(t, err)
			assert.Nil(t, stop)

			route, err := r.RouteByID("r1")
			require.NoError(t, err)
			require.NotNil(t, route)
			assert.Equal(t, model.RouteTypeBus, route.Type)

			trip, err := r.TripByID("t2")
			require.NoError(t, err)
			require.NotNil(t, trip)
			assert.Equal(t, "weekend", trip.ServiceID)

			stops, err := r.Stops()
			require.NoError(t, err)
			assert.Len(t, stops, 2)

			frequencies, err := r.Frequencies()
			require.NoError(t, err)
			require.Len(t, frequencies, 1)
			assert.Equal(t, 600, frequencies[0].HeadwaySecs)

			calendars, err := r.Calendars()
			require.NoError(t, err)
			assert.Len(t, calendars, 2)

			calendarDates, err := r.CalendarDates()
			require.NoError(t, err)
			assert.Len(t, calendarDates, 2)
		})
	}
}

func TestReimportIsAtomic(t *testing.T) {
	for name, s := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			writeTestFeed(t, s, "feed")

			before, err := s.GetReader("feed")
			require.NoError(t, err)

			// Re-import with a different stop set. The earlier
			// reader keeps its version.
			w, err := s.GetWriter("feed")
			require.NoError(t, err)
			require.NoError(t, w.WriteAgency(&model.Agency{ID: "a", Name: "Agency", Timezone: "America/New_York"}))
			require.NoError(t, w.WriteStop(&model.Stop{ID: "s9", Name: "Ninth", Lat: 41.0, Lon: -75.0}))
			require.NoError(t, w.Close())

			after, err := s.GetReader("feed")
			require.NoError(t, err)

			stops, err := after.Stops()
			require.NoError(t, err)
			require.Len(t, stops, 1)
			assert.Equal(t, "s9", stops[0].ID)

			stops, err = before.Stops()
			require.NoError(t, err)
			assert.Len(t, stops, 2)
		})
	}
}

func TestAbortLeavesPreviousVersion(t *testing.T) {
	for name, s := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			writeTestFeed(t, s, "feed")

			w, err := s.GetWriter("feed")
			require.NoError(t, err)
			require.NoError(t, w.WriteStop(&model.Stop{ID: "s9", Name: "Ninth", Lat: 41.0, Lon: -75.0}))
			require.NoError(t, w.Abort())

			r, err := s.GetReader("feed")
			require.NoError(t, err)
			stops, err := r.Stops()
			require.NoError(t, err)
			assert.Len(t, stops, 2)
		})
	}
}

func TestFeedMetadataRegistry(t *testing.T) {
	for name, s := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			feeds, err := s.ListFeeds()
			require.NoError(t, err)
			assert.Empty(t, feeds)

			require.NoError(t, s.WriteFeedMetadata(&storage.FeedMetadata{
				FeedID:            "older",
				SHA256:            "aaaa",
				ImportedAt:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				Timezone:          "America/New_York",
				CalendarStartDate: "20250101",
				CalendarEndDate:   "20251231",
				MaxDeparture:      "260000",
			}))
			require.NoError(t, s.WriteFeedMetadata(&storage.FeedMetadata{
				FeedID:            "newer",
				SHA256:            "bbbb",
				ImportedAt:        time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
				Timezone:          "America/New_York",
				CalendarStartDate: "20250101",
				CalendarEndDate:   "20251231",
				MaxDeparture:      "250000",
				RowsSkipped:       3,
			}))

			feeds, err = s.ListFeeds()
			require.NoError(t, err)
			require.Len(t, feeds, 2)
			assert.Equal(t, "newer", feeds[0].FeedID)
			assert.Equal(t, 3, feeds[0].RowsSkipped)
			assert.Equal(t, "older", feeds[1].FeedID)

			// Replacing an existing record.
			require.NoError(t, s.WriteFeedMetadata(&storage.FeedMetadata{
				FeedID:            "older",
				SHA256:            "cccc",
				ImportedAt:        time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
				Timezone:          "America/New_York",
				CalendarStartDate: "20250101",
				CalendarEndDate:   "20251231",
				MaxDeparture:      "260000",
			}))
			feeds, err = s.ListFeeds()
			require.NoError(t, err)
			require.Len(t, feeds, 2)
			assert.Equal(t, "older", feeds[0].FeedID)
			assert.Equal(t, "cccc", feeds[0].SHA256)

			require.NoError(t, s.DeleteFeed("older"))
			feeds, err = s.ListFeeds()
			require.NoError(t, err)
			require.Len(t, feeds, 1)
			assert.Equal(t, "newer", feeds[0].FeedID)
		})
	}
}
