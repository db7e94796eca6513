package storage

import (
	"time"

	"github.com/urbanfeed/transit/model"
)

// Storage manages imported feeds: a registry of feed metadata, plus
// per-feed writers (import) and readers (queries).
type Storage interface {
	// Retrieves metadata for all imported feeds, most recent first.
	ListFeeds() ([]*FeedMetadata, error)

	// Writes a FeedMetadata record. An existing record with the
	// same feed ID is replaced.
	WriteFeedMetadata(metadata *FeedMetadata) error

	// Removes a feed's metadata and its data.
	DeleteFeed(feedID string) error

	// Gets a reader for an imported feed.
	GetReader(feedID string) (FeedReader, error)

	// Gets a writer for a new import of the feed. The previous
	// import (if any) stays readable until the writer's Close
	// publishes the new one.
	GetWriter(feedID string) (FeedWriter, error)
}

// Metadata for one imported feed.
type FeedMetadata struct {
	FeedID            string
	SHA256            string
	ImportedAt        time.Time
	Timezone          string
	CalendarStartDate string
	CalendarEndDate   string
	MaxDeparture      string
	RowsSkipped       int
}

// FeedWriter writes all records of a single feed as one atomic unit:
// nothing is visible to readers until Close succeeds, and Abort
// leaves any previously imported version of the feed untouched.
//
// As stop_times.txt tends to be very large, BeginStopTimes and
// EndStopTimes bracket all WriteStopTime calls to allow batching;
// BeginTrips/EndTrips do the same for trips.txt.
type FeedWriter interface {
	WriteAgency(agency *model.Agency) error
	WriteStop(stop *model.Stop) error
	WriteRoute(route *model.Route) error
	BeginTrips() error
	WriteTrip(trip *model.Trip) error
	EndTrips() error
	WriteCalendar(cal *model.Calendar) error
	WriteCalendarDate(caldate *model.CalendarDate) error
	BeginStopTimes() error
	WriteStopTime(stopTime *model.StopTime) error
	EndStopTimes() error
	WriteFrequency(freq *model.Frequency) error
	Close() error
	Abort() error
}

// FeedReader answers queries against an imported feed. Feeds are
// immutable between imports, and every query observes a single
// complete version: a re-import never exposes a mix of old and new
// rows. The SQLite and memory backends additionally keep a reader
// pinned to the version it was opened against; a Postgres reader sees
// the new version once a re-import commits.
//
// The ByID lookups return (nil, nil) when no such entity exists.
type FeedReader interface {
	Agencies() ([]*model.Agency, error)
	Stops() ([]*model.Stop, error)
	Routes() ([]*model.Route, error)
	Trips() ([]*model.Trip, error)
	StopTimes() ([]*model.StopTime, error)
	Calendars() ([]*model.Calendar, error)
	CalendarDates() ([]*model.CalendarDate, error)
	Frequencies() ([]*model.Frequency, error)

	StopByID(id string) (*model.Stop, error)
	RouteByID(id string) (*model.Route, error)
	TripByID(id string) (*model.Trip, error)

	// Service IDs active on the given date (YYYYMMDD): calendar
	// rules matching the weekday and date range, minus Removed
	// exceptions, plus Added exceptions.
	ActiveServices(date string) ([]string, error)

	// stop_times with their trip and route, matching the filter.
	StopTimeEvents(filter StopTimeEventFilter) ([]*StopTimeEvent, error)
}

// Filter for StopTimeEvents. Zero values mean "no constraint".
type StopTimeEventFilter struct {
	StopID     string
	RouteID    string
	ServiceIDs []string
	TripIDs    []string

	// Half-open departure window: DepartureStart is inclusive,
	// DepartureEnd exclusive. Times given as HHMMSS.
	DepartureStart string
	DepartureEnd   string
}

// One stop_time record joined with its trip and route.
type StopTimeEvent struct {
	StopTime *model.StopTime
	Trip     *model.Trip
	Route    *model.Route
}
