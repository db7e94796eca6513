package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/urbanfeed/transit/model"
)

// SQLite storage keeps one database file per imported feed, plus a
// small registry database for feed metadata. With OnDisk unset,
// everything lives in memory (useful for tests).
//
// Imports are atomic: the writer fills a temp file inside a single
// transaction and Close renames it over the published one. Readers
// opened against the previous file keep working; they just hold a
// handle to the replaced inode.
type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	registry *sql.DB

	mu    sync.Mutex
	feeds map[string]*sql.DB
}

type SQLiteFeedWriter struct {
	storage *SQLiteStorage
	feedID  string
	db      *sql.DB
	tx      *sql.Tx

	stopTimeInsert *sql.Stmt

	tmpPath   string
	finalPath string
}

type SQLiteFeedReader struct {
	db *sql.DB
}

var feedSchema = map[string]string{
	"agency": `
CREATE TABLE agency (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    url TEXT,
    timezone TEXT NOT NULL
);`,
	"stops": `
CREATE TABLE stops (
    id TEXT PRIMARY KEY,
    code TEXT,
    name TEXT NOT NULL,
    desc TEXT,
    lat REAL NOT NULL,
    lon REAL NOT NULL
);`,
	"routes": `
CREATE TABLE routes (
    id TEXT PRIMARY KEY,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT,
    type INTEGER NOT NULL
);`,
	"trips": `
CREATE TABLE trips (
    id TEXT PRIMARY KEY,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT,
    direction_id INTEGER
);
CREATE INDEX trips_route_id ON trips (route_id);
CREATE INDEX trips_service_id ON trips (service_id);
`,
	"stop_times": `
CREATE TABLE stop_times (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time TEXT NOT NULL,
    departure_time TEXT NOT NULL,
    headsign TEXT
);
CREATE INDEX stop_times_trip_id ON stop_times (trip_id);
CREATE INDEX stop_times_stop_departure ON stop_times (stop_id, departure_time);
`,
	"calendar": `
CREATE TABLE calendar (
    service_id TEXT PRIMARY KEY,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    monday INTEGER NOT NULL,
    tuesday INTEGER NOT NULL,
    wednesday INTEGER NOT NULL,
    thursday INTEGER NOT NULL,
    friday INTEGER NOT NULL,
    saturday INTEGER NOT NULL,
    sunday INTEGER NOT NULL
);`,
	"calendar_dates": `
CREATE TABLE calendar_dates (
    service_id TEXT NOT NULL,
    date TEXT NOT NULL,
    exception_type INTEGER NOT NULL,
PRIMARY KEY (service_id, date)
);
CREATE INDEX calendar_dates_date ON calendar_dates (date);
`,
	"frequencies": `
CREATE TABLE frequencies (
    trip_id TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    headway_secs INTEGER NOT NULL
);
CREATE INDEX frequencies_trip_id ON frequencies (trip_id);
`,
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = filepath.Join(directory, "feeds.db")
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}
	if !onDisk {
		// Each pooled connection would otherwise get its own empty
		// memory database.
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS feed (
    feed_id TEXT PRIMARY KEY,
    sha256 TEXT NOT NULL,
    imported_at TIMESTAMP NOT NULL,
    timezone TEXT NOT NULL,
    calendar_start TEXT NOT NULL,
    calendar_end TEXT NOT NULL,
    max_departure TEXT NOT NULL,
    rows_skipped INTEGER NOT NULL
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating feed table: %w", err)
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		registry: db,
		feeds:    map[string]*sql.DB{},
	}, nil
}

func (s *SQLiteStorage) ListFeeds() ([]*FeedMetadata, error) {
	rows, err := s.registry.Query(`
SELECT feed_id, sha256, imported_at, timezone, calendar_start, calendar_end, max_departure, rows_skipped
FROM feed
ORDER BY imported_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*FeedMetadata
	for rows.Next() {
		var feed FeedMetadata
		err := rows.Scan(
			&feed.FeedID,
			&feed.SHA256,
			&feed.ImportedAt,
			&feed.Timezone,
			&feed.CalendarStartDate,
			&feed.CalendarEndDate,
			&feed.MaxDeparture,
			&feed.RowsSkipped,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feeds = append(feeds, &feed)
	}

	return feeds, nil
}

func (s *SQLiteStorage) WriteFeedMetadata(feed *FeedMetadata) error {
	_, err := s.registry.Exec(`
INSERT INTO feed (feed_id, sha256, imported_at, timezone, calendar_start, calendar_end, max_departure, rows_skipped)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (feed_id) DO UPDATE SET
    sha256 = excluded.sha256,
    imported_at = excluded.imported_at,
    timezone = excluded.timezone,
    calendar_start = excluded.calendar_start,
    calendar_end = excluded.calendar_end,
    max_departure = excluded.max_departure,
    rows_skipped = excluded.rows_skipped
`,
		feed.FeedID,
		feed.SHA256,
		feed.ImportedAt,
		feed.Timezone,
		feed.CalendarStartDate,
		feed.CalendarEndDate,
		feed.MaxDeparture,
		feed.RowsSkipped,
	)
	if err != nil {
		return fmt.Errorf("writing feed metadata: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteFeed(feedID string) error {
	_, err := s.registry.Exec(`DELETE FROM feed WHERE feed_id = ?`, feedID)
	if err != nil {
		return fmt.Errorf("deleting feed metadata: %w", err)
	}

	s.mu.Lock()
	delete(s.feeds, feedID)
	s.mu.Unlock()

	if s.OnDisk {
		path := filepath.Join(s.Directory, feedID+".db")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing feed database: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) GetReader(feedID string) (FeedReader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, found := s.feeds[feedID]
	if found {
		return &SQLiteFeedReader{db: db}, nil
	}
	if !s.OnDisk {
		return nil, fmt.Errorf("feed %s does not exist", feedID)
	}

	sourceName := filepath.Join(s.Directory, feedID+".db")
	if _, err := os.Stat(sourceName); os.IsNotExist(err) {
		return nil, fmt.Errorf("feed %s does not exist at %s", feedID, sourceName)
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s.feeds[feedID] = db

	return &SQLiteFeedReader{db: db}, nil
}

func (s *SQLiteStorage) GetWriter(feedID string) (FeedWriter, error) {
	sourceName := ":memory:"
	tmpPath, finalPath := "", ""
	if s.OnDisk {
		finalPath = filepath.Join(s.Directory, feedID+".db")
		tmpPath = finalPath + ".tmp"
		if _, err := os.Stat(tmpPath); err == nil {
			if err := os.Remove(tmpPath); err != nil {
				return nil, fmt.Errorf("removing stale temp database: %w", err)
			}
		}
		sourceName = tmpPath
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if !s.OnDisk {
		db.SetMaxOpenConns(1)
	}

	for name, query := range feedSchema {
		_, err = db.Exec(query)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating %s table: %w", name, err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("beginning import transaction: %w", err)
	}

	return &SQLiteFeedWriter{
		storage:   s,
		feedID:    feedID,
		db:        db,
		tx:        tx,
		tmpPath:   tmpPath,
		finalPath: finalPath,
	}, nil
}

// publish makes db the current version of the feed. Old handles are
// dropped from the cache but deliberately not closed: readers still
// holding them continue to see the previous version.
func (s *SQLiteStorage) publish(feedID string, db *sql.DB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if db == nil {
		delete(s.feeds, feedID)
	} else {
		s.feeds[feedID] = db
	}
}

func (w *SQLiteFeedWriter) WriteAgency(a *model.Agency) error {
	_, err := w.tx.Exec(`
INSERT INTO agency (id, name, url, timezone)
VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.URL, a.Timezone)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteStop(stop *model.Stop) error {
	_, err := w.tx.Exec(`
INSERT INTO stops (id, code, name, desc, lat, lon)
VALUES (?, ?, ?, ?, ?, ?)`,
		stop.ID, stop.Code, stop.Name, stop.Desc, stop.Lat, stop.Lon)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteRoute(route *model.Route) error {
	_, err := w.tx.Exec(`
INSERT INTO routes (id, agency_id, short_name, long_name, type)
VALUES (?, ?, ?, ?, ?)`,
		route.ID, route.AgencyID, route.ShortName, route.LongName, route.Type)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) BeginTrips() error {
	return nil
}

func (w *SQLiteFeedWriter) WriteTrip(trip *model.Trip) error {
	_, err := w.tx.Exec(`
INSERT INTO trips (id, route_id, service_id, headsign, direction_id)
VALUES (?, ?, ?, ?, ?)`,
		trip.ID, trip.RouteID, trip.ServiceID, trip.Headsign, trip.DirectionID)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) EndTrips() error {
	return nil
}

func (w *SQLiteFeedWriter) BeginStopTimes() error {
	var err error
	w.stopTimeInsert, err = w.tx.Prepare(`
INSERT INTO stop_times (trip_id, stop_id, stop_sequence, arrival_time, departure_time, headsign)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing stop_time insert: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteStopTime(stopTime *model.StopTime) error {
	_, err := w.stopTimeInsert.Exec(
		stopTime.TripID,
		stopTime.StopID,
		stopTime.StopSequence,
		stopTime.Arrival,
		stopTime.Departure,
		stopTime.Headsign,
	)
	if err != nil {
		return fmt.Errorf("inserting stop_time: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) EndStopTimes() error {
	err := w.stopTimeInsert.Close()
	w.stopTimeInsert = nil
	if err != nil {
		return fmt.Errorf("closing stop_time insert: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteCalendar(cal *model.Calendar) error {
	days := [7]int{}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if cal.Weekday&(1<<day) != 0 {
			days[day] = 1
		}
	}

	_, err := w.tx.Exec(`
INSERT INTO calendar (service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cal.ServiceID,
		cal.StartDate,
		cal.EndDate,
		days[time.Monday],
		days[time.Tuesday],
		days[time.Wednesday],
		days[time.Thursday],
		days[time.Friday],
		days[time.Saturday],
		days[time.Sunday],
	)
	if err != nil {
		return fmt.Errorf("inserting calendar: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteCalendarDate(cd *model.CalendarDate) error {
	_, err := w.tx.Exec(`
INSERT INTO calendar_dates (service_id, date, exception_type)
VALUES (?, ?, ?)`,
		cd.ServiceID, cd.Date, cd.ExceptionType)
	if err != nil {
		return fmt.Errorf("inserting calendar date: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteFrequency(f *model.Frequency) error {
	_, err := w.tx.Exec(`
INSERT INTO frequencies (trip_id, start_time, end_time, headway_secs)
VALUES (?, ?, ?, ?)`,
		f.TripID, f.StartTime, f.EndTime, f.HeadwaySecs)
	if err != nil {
		return fmt.Errorf("inserting frequency: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) Close() error {
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("committing import transaction: %w", err)
	}

	if _, err := w.db.Exec(`ANALYZE;`); err != nil {
		w.db.Close()
		return fmt.Errorf("analyzing database: %w", err)
	}

	if w.storage.OnDisk {
		if err := w.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		// The rename is the publish: queries against the old file
		// keep their handle, new readers get the new file.
		if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
			return fmt.Errorf("publishing database: %w", err)
		}
		w.storage.publish(w.feedID, nil)
	} else {
		w.storage.publish(w.feedID, w.db)
	}

	return nil
}

func (w *SQLiteFeedWriter) Abort() error {
	if w.stopTimeInsert != nil {
		w.stopTimeInsert.Close()
		w.stopTimeInsert = nil
	}
	w.tx.Rollback()
	w.db.Close()
	if w.storage.OnDisk {
		if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing temp database: %w", err)
		}
	}
	return nil
}

func (r *SQLiteFeedReader) ActiveServices(date string) ([]string, error) {
	parsedDate, err := time.Parse("20060102", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", date)
	}

	var weekday string
	switch parsedDate.Weekday() {
	case time.Monday:
		weekday = "monday"
	case time.Tuesday:
		weekday = "tuesday"
	case time.Wednesday:
		weekday = "wednesday"
	case time.Thursday:
		weekday = "thursday"
	case time.Friday:
		weekday = "friday"
	case time.Saturday:
		weekday = "saturday"
	case time.Sunday:
		weekday = "sunday"
	}

	rows, err := r.db.Query(`
WITH
Exceptions AS (
	SELECT service_id, exception_type
	FROM calendar_dates
	WHERE date = ?
),
Regular AS (
	SELECT service_id
	FROM calendar
	WHERE `+weekday+` = 1 AND
	      start_date <= ? AND
	      end_date >= ?
)
SELECT service_id
FROM Regular
WHERE service_id NOT IN (
	SELECT service_id FROM Exceptions WHERE exception_type = 2
)
UNION
SELECT service_id
FROM Exceptions
WHERE exception_type = 1
ORDER BY service_id
`, date, date, date)
	if err != nil {
		return nil, fmt.Errorf("querying for active services: %w", err)
	}
	defer rows.Close()

	activeServices := []string{}
	for rows.Next() {
		var serviceID string
		err = rows.Scan(&serviceID)
		if err != nil {
			return nil, fmt.Errorf("scanning active services: %w", err)
		}
		activeServices = append(activeServices, serviceID)
	}

	return activeServices, nil
}

func (r *SQLiteFeedReader) StopTimeEvents(filter StopTimeEventFilter) ([]*StopTimeEvent, error) {
	baseQuery := `
SELECT
    stop_times.trip_id,
    stop_times.stop_id,
    stop_times.stop_sequence,
    stop_times.arrival_time,
    stop_times.departure_time,
    stop_times.headsign,
    trips.id,
    trips.route_id,
    trips.service_id,
    trips.headsign,
    trips.direction_id,
    routes.id,
    routes.agency_id,
    routes.short_name,
    routes.long_name,
    routes.type
FROM stop_times
INNER JOIN trips ON stop_times.trip_id = trips.id
INNER JOIN routes ON trips.route_id = routes.id
`

	fParams, fVals := []string{}, []interface{}{}

	if filter.StopID != "" {
		fParams = append(fParams, "stop_times.stop_id = ?")
		fVals = append(fVals, filter.StopID)
	}
	if filter.RouteID != "" {
		fParams = append(fParams, "routes.id = ?")
		fVals = append(fVals, filter.RouteID)
	}
	if len(filter.TripIDs) > 0 {
		placeholders := []string{}
		for _, id := range filter.TripIDs {
			placeholders = append(placeholders, "?")
			fVals = append(fVals, id)
		}
		fParams = append(fParams, "trips.id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(filter.ServiceIDs) > 0 {
		placeholders := []string{}
		for _, id := range filter.ServiceIDs {
			placeholders = append(placeholders, "?")
			fVals = append(fVals, id)
		}
		fParams = append(fParams, "trips.service_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.DepartureStart != "" {
		fParams = append(fParams, "stop_times.departure_time >= ?")
		fVals = append(fVals, filter.DepartureStart)
	}
	if filter.DepartureEnd != "" {
		fParams = append(fParams, "stop_times.departure_time < ?")
		fVals = append(fVals, filter.DepartureEnd)
	}

	query := baseQuery
	if len(fParams) > 0 {
		query += " WHERE " + strings.Join(fParams, " AND ")
	}

	rows, err := r.db.Query(query, fVals...)
	if err != nil {
		return nil, fmt.Errorf("querying for stop time events: %w", err)
	}
	defer rows.Close()

	events := []*StopTimeEvent{}
	for rows.Next() {
		stopTime := &model.StopTime{}
		trip := &model.Trip{}
		route := &model.Route{}

		err = rows.Scan(
			&stopTime.TripID,
			&stopTime.StopID,
			&stopTime.StopSequence,
			&stopTime.Arrival,
			&stopTime.Departure,
			&stopTime.Headsign,
			&trip.ID,
			&trip.RouteID,
			&trip.ServiceID,
			&trip.Headsign,
			&trip.DirectionID,
			&route.ID,
			&route.AgencyID,
			&route.ShortName,
			&route.LongName,
			&route.Type,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop time event: %w", err)
		}

		events = append(events, &StopTimeEvent{
			StopTime: stopTime,
			Trip:     trip,
			Route:    route,
		})
	}

	return events, nil
}

func (r *SQLiteFeedReader) Agencies() ([]*model.Agency, error) {
	rows, err := r.db.Query(`SELECT id, name, url, timezone FROM agency`)
	if err != nil {
		return nil, fmt.Errorf("querying agencies: %w", err)
	}
	defer rows.Close()

	agencies := []*model.Agency{}
	for rows.Next() {
		a := &model.Agency{}
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Timezone); err != nil {
			return nil, fmt.Errorf("scanning agency: %w", err)
		}
		agencies = append(agencies, a)
	}

	return agencies, nil
}

func (r *SQLiteFeedReader) Stops() ([]*model.Stop, error) {
	rows, err := r.db.Query(`SELECT id, code, name, desc, lat, lon FROM stops`)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []*model.Stop{}
	for rows.Next() {
		s := &model.Stop{}
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Desc, &s.Lat, &s.Lon); err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, s)
	}

	return stops, nil
}

func (r *SQLiteFeedReader) Routes() ([]*model.Route, error) {
	rows, err := r.db.Query(`SELECT id, agency_id, short_name, long_name, type FROM routes`)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []*model.Route{}
	for rows.Next() {
		route := &model.Route{}
		if err := rows.Scan(&route.ID, &route.AgencyID, &route.ShortName, &route.LongName, &route.Type); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, route)
	}

	return routes, nil
}

func (r *SQLiteFeedReader) Trips() ([]*model.Trip, error) {
	rows, err := r.db.Query(`SELECT id, route_id, service_id, headsign, direction_id FROM trips`)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	trips := []*model.Trip{}
	for rows.Next() {
		t := &model.Trip{}
		if err := rows.Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.Headsign, &t.DirectionID); err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, t)
	}

	return trips, nil
}

func (r *SQLiteFeedReader) StopTimes() ([]*model.StopTime, error) {
	rows, err := r.db.Query(`
SELECT trip_id, stop_id, headsign, stop_sequence, arrival_time, departure_time
FROM stop_times`)
	if err != nil {
		return nil, fmt.Errorf("querying stop times: %w", err)
	}
	defer rows.Close()

	stopTimes := []*model.StopTime{}
	for rows.Next() {
		st := &model.StopTime{}
		err := rows.Scan(&st.TripID, &st.StopID, &st.Headsign, &st.StopSequence, &st.Arrival, &st.Departure)
		if err != nil {
			return nil, fmt.Errorf("scanning stop time: %w", err)
		}
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, nil
}

func (r *SQLiteFeedReader) Calendars() ([]*model.Calendar, error) {
	rows, err := r.db.Query(`
SELECT service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday
FROM calendar`)
	if err != nil {
		return nil, fmt.Errorf("querying calendar: %w", err)
	}
	defer rows.Close()

	calendars := []*model.Calendar{}
	for rows.Next() {
		var serviceID, startDate, endDate string
		var days [7]bool
		err := rows.Scan(
			&serviceID,
			&startDate,
			&endDate,
			&days[time.Monday],
			&days[time.Tuesday],
			&days[time.Wednesday],
			&days[time.Thursday],
			&days[time.Friday],
			&days[time.Saturday],
			&days[time.Sunday],
		)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar: %w", err)
		}
		weekday := int8(0)
		for day := time.Sunday; day <= time.Saturday; day++ {
			if days[day] {
				weekday |= 1 << day
			}
		}
		calendars = append(calendars, &model.Calendar{
			ServiceID: serviceID,
			StartDate: startDate,
			EndDate:   endDate,
			Weekday:   weekday,
		})
	}

	return calendars, nil
}

func (r *SQLiteFeedReader) CalendarDates() ([]*model.CalendarDate, error) {
	rows, err := r.db.Query(`SELECT service_id, date, exception_type FROM calendar_dates`)
	if err != nil {
		return nil, fmt.Errorf("querying calendar dates: %w", err)
	}
	defer rows.Close()

	calendarDates := []*model.CalendarDate{}
	for rows.Next() {
		cd := &model.CalendarDate{}
		if err := rows.Scan(&cd.ServiceID, &cd.Date, &cd.ExceptionType); err != nil {
			return nil, fmt.Errorf("scanning calendar date: %w", err)
		}
		calendarDates = append(calendarDates, cd)
	}

	return calendarDates, nil
}

func (r *SQLiteFeedReader) Frequencies() ([]*model.Frequency, error) {
	rows, err := r.db.Query(`SELECT trip_id, start_time, end_time, headway_secs FROM frequencies`)
	if err != nil {
		return nil, fmt.Errorf("querying frequencies: %w", err)
	}
	defer rows.Close()

	frequencies := []*model.Frequency{}
	for rows.Next() {
		f := &model.Frequency{}
		if err := rows.Scan(&f.TripID, &f.StartTime, &f.EndTime, &f.HeadwaySecs); err != nil {
			return nil, fmt.Errorf("scanning frequency: %w", err)
		}
		frequencies = append(frequencies, f)
	}

	return frequencies, nil
}

func (r *SQLiteFeedReader) StopByID(id string) (*model.Stop, error) {
	s := &model.Stop{}
	err := r.db.QueryRow(`SELECT id, code, name, desc, lat, lon FROM stops WHERE id = ?`, id).
		Scan(&s.ID, &s.Code, &s.Name, &s.Desc, &s.Lat, &s.Lon)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying stop: %w", err)
	}
	return s, nil
}

func (r *SQLiteFeedReader) RouteByID(id string) (*model.Route, error) {
	route := &model.Route{}
	err := r.db.QueryRow(`SELECT id, agency_id, short_name, long_name, type FROM routes WHERE id = ?`, id).
		Scan(&route.ID, &route.AgencyID, &route.ShortName, &route.LongName, &route.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying route: %w", err)
	}
	return route, nil
}

func (r *SQLiteFeedReader) TripByID(id string) (*model.Trip, error) {
	t := &model.Trip{}
	err := r.db.QueryRow(`SELECT id, route_id, service_id, headsign, direction_id FROM trips WHERE id = ?`, id).
		Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.Headsign, &t.DirectionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying trip: %w", err)
	}
	return t, nil
}
