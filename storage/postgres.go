package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/urbanfeed/transit/model"
)

// Postgres storage. All feeds share one set of tables, with rows keyed
// by feed ID. An import runs in a single transaction that first clears
// the feed's old rows and then inserts the new ones, so the swap is
// atomic: queries see either the old version or the new one, never a
// mix. Trips and stop times go through COPY for bulk speed.
type PSQLConfig struct {
	DSN     string
	ClearDB bool
}

type PSQLStorage struct {
	db *sql.DB
}

type PSQLFeedWriter struct {
	feedID string
	tx     *sql.Tx

	tripInsert     *sql.Stmt
	stopTimeInsert *sql.Stmt
}

type PSQLFeedReader struct {
	feedID string
	db     *sql.DB
}

var psqlTables = []string{"feed", "agency", "stops", "routes", "trips", "stop_times", "calendar", "calendar_dates", "frequencies"}

const psqlSchema = `
CREATE TABLE IF NOT EXISTS feed (
    feed_id TEXT PRIMARY KEY,
    sha256 TEXT NOT NULL,
    imported_at TIMESTAMPTZ NOT NULL,
    timezone TEXT NOT NULL,
    calendar_start TEXT NOT NULL,
    calendar_end TEXT NOT NULL,
    max_departure TEXT NOT NULL,
    rows_skipped INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS agency (
    feed_id TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    url TEXT,
    timezone TEXT NOT NULL,
    PRIMARY KEY (feed_id, id)
);
CREATE TABLE IF NOT EXISTS stops (
    feed_id TEXT NOT NULL,
    id TEXT NOT NULL,
    code TEXT,
    name TEXT NOT NULL,
    "desc" TEXT,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (feed_id, id)
);
CREATE TABLE IF NOT EXISTS routes (
    feed_id TEXT NOT NULL,
    id TEXT NOT NULL,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT,
    type INTEGER NOT NULL,
    PRIMARY KEY (feed_id, id)
);
CREATE TABLE IF NOT EXISTS trips (
    feed_id TEXT NOT NULL,
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT,
    direction_id SMALLINT,
    PRIMARY KEY (feed_id, id)
);
CREATE INDEX IF NOT EXISTS trips_route_id ON trips (feed_id, route_id);
CREATE INDEX IF NOT EXISTS trips_service_id ON trips (feed_id, service_id);
CREATE TABLE IF NOT EXISTS stop_times (
    feed_id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time TEXT NOT NULL,
    departure_time TEXT NOT NULL,
    headsign TEXT
);
CREATE INDEX IF NOT EXISTS stop_times_trip_id ON stop_times (feed_id, trip_id);
CREATE INDEX IF NOT EXISTS stop_times_stop_departure ON stop_times (feed_id, stop_id, departure_time);
CREATE TABLE IF NOT EXISTS calendar (
    feed_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    monday SMALLINT NOT NULL,
    tuesday SMALLINT NOT NULL,
    wednesday SMALLINT NOT NULL,
    thursday SMALLINT NOT NULL,
    friday SMALLINT NOT NULL,
    saturday SMALLINT NOT NULL,
    sunday SMALLINT NOT NULL,
    PRIMARY KEY (feed_id, service_id)
);
CREATE TABLE IF NOT EXISTS calendar_dates (
    feed_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    date TEXT NOT NULL,
    exception_type SMALLINT NOT NULL,
    PRIMARY KEY (feed_id, service_id, date)
);
CREATE INDEX IF NOT EXISTS calendar_dates_date ON calendar_dates (feed_id, date);
CREATE TABLE IF NOT EXISTS frequencies (
    feed_id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    headway_secs INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS frequencies_trip_id ON frequencies (feed_id, trip_id);
`

func NewPSQLStorage(cfg PSQLConfig) (*PSQLStorage, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.ClearDB {
		_, err = db.Exec(`DROP TABLE IF EXISTS ` + strings.Join(psqlTables, ", "))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("clearing database: %w", err)
		}
	}

	if _, err := db.Exec(psqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PSQLStorage{db: db}, nil
}

func (s *PSQLStorage) Close() error {
	return s.db.Close()
}

func (s *PSQLStorage) ListFeeds() ([]*FeedMetadata, error) {
	rows, err := s.db.Query(`
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

func (s *PSQLStorage) WriteFeedMetadata(feed *FeedMetadata) error {
	_, err := s.db.Exec(`
INSERT INTO feed (feed_id, sha256, imported_at, timezone, calendar_start, calendar_end, max_departure, rows_skipped)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
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

func (s *PSQLStorage) DeleteFeed(feedID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	for _, table := range psqlTables {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE feed_id = $1`, feedID); err != nil {
			tx.Rollback()
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete transaction: %w", err)
	}
	return nil
}

func (s *PSQLStorage) GetReader(feedID string) (FeedReader, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM agency WHERE feed_id = $1)`, feedID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking feed: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("feed %s does not exist", feedID)
	}

	return &PSQLFeedReader{feedID: feedID, db: s.db}, nil
}

func (s *PSQLStorage) GetWriter(feedID string) (FeedWriter, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning import transaction: %w", err)
	}

	// Clearing the old rows inside the import transaction makes the
	// re-import an atomic swap under MVCC.
	for _, table := range psqlTables {
		if table == "feed" {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE feed_id = $1`, feedID); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return &PSQLFeedWriter{feedID: feedID, tx: tx}, nil
}

func (w *PSQLFeedWriter) WriteAgency(a *model.Agency) error {
	_, err := w.tx.Exec(`
INSERT INTO agency (feed_id, id, name, url, timezone)
VALUES ($1, $2, $3, $4, $5)`,
		w.feedID, a.ID, a.Name, a.URL, a.Timezone)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteStop(stop *model.Stop) error {
	_, err := w.tx.Exec(`
INSERT INTO stops (feed_id, id, code, name, "desc", lat, lon)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.feedID, stop.ID, stop.Code, stop.Name, stop.Desc, stop.Lat, stop.Lon)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteRoute(route *model.Route) error {
	_, err := w.tx.Exec(`
INSERT INTO routes (feed_id, id, agency_id, short_name, long_name, type)
VALUES ($1, $2, $3, $4, $5, $6)`,
		w.feedID, route.ID, route.AgencyID, route.ShortName, route.LongName, route.Type)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) BeginTrips() error {
	var err error
	w.tripInsert, err = w.tx.Prepare(pq.CopyIn(
		"trips", "feed_id", "id", "route_id", "service_id", "headsign", "direction_id",
	))
	if err != nil {
		return fmt.Errorf("preparing trip copy: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteTrip(trip *model.Trip) error {
	_, err := w.tripInsert.Exec(
		w.feedID, trip.ID, trip.RouteID, trip.ServiceID, trip.Headsign, trip.DirectionID,
	)
	if err != nil {
		return fmt.Errorf("copying trip: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) EndTrips() error {
	if _, err := w.tripInsert.Exec(); err != nil {
		return fmt.Errorf("flushing trip copy: %w", err)
	}
	err := w.tripInsert.Close()
	w.tripInsert = nil
	if err != nil {
		return fmt.Errorf("closing trip copy: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) BeginStopTimes() error {
	var err error
	w.stopTimeInsert, err = w.tx.Prepare(pq.CopyIn(
		"stop_times", "feed_id", "trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time", "headsign",
	))
	if err != nil {
		return fmt.Errorf("preparing stop_time copy: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteStopTime(stopTime *model.StopTime) error {
	_, err := w.stopTimeInsert.Exec(
		w.feedID,
		stopTime.TripID,
		stopTime.StopID,
		stopTime.StopSequence,
		stopTime.Arrival,
		stopTime.Departure,
		stopTime.Headsign,
	)
	if err != nil {
		return fmt.Errorf("copying stop_time: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) EndStopTimes() error {
	if _, err := w.stopTimeInsert.Exec(); err != nil {
		return fmt.Errorf("flushing stop_time copy: %w", err)
	}
	err := w.stopTimeInsert.Close()
	w.stopTimeInsert = nil
	if err != nil {
		return fmt.Errorf("closing stop_time copy: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteCalendar(cal *model.Calendar) error {
	days := [7]int{}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if cal.Weekday&(1<<day) != 0 {
			days[day] = 1
		}
	}

	_, err := w.tx.Exec(`
INSERT INTO calendar (feed_id, service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		w.feedID,
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

func (w *PSQLFeedWriter) WriteCalendarDate(cd *model.CalendarDate) error {
	_, err := w.tx.Exec(`
INSERT INTO calendar_dates (feed_id, service_id, date, exception_type)
VALUES ($1, $2, $3, $4)`,
		w.feedID, cd.ServiceID, cd.Date, cd.ExceptionType)
	if err != nil {
		return fmt.Errorf("inserting calendar date: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) WriteFrequency(f *model.Frequency) error {
	_, err := w.tx.Exec(`
INSERT INTO frequencies (feed_id, trip_id, start_time, end_time, headway_secs)
VALUES ($1, $2, $3, $4, $5)`,
		w.feedID, f.TripID, f.StartTime, f.EndTime, f.HeadwaySecs)
	if err != nil {
		return fmt.Errorf("inserting frequency: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) Close() error {
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("committing import transaction: %w", err)
	}
	return nil
}

func (w *PSQLFeedWriter) Abort() error {
	if w.tripInsert != nil {
		w.tripInsert.Close()
		w.tripInsert = nil
	}
	if w.stopTimeInsert != nil {
		w.stopTimeInsert.Close()
		w.stopTimeInsert = nil
	}
	if err := w.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back import transaction: %w", err)
	}
	return nil
}

func (r *PSQLFeedReader) ActiveServices(date string) ([]string, error) {
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
	WHERE feed_id = $1 AND date = $2
),
Regular AS (
	SELECT service_id
	FROM calendar
	WHERE feed_id = $1 AND
	      `+weekday+` = 1 AND
	      start_date <= $2 AND
	      end_date >= $2
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
`, r.feedID, date)
	if err != nil {
		return nil, fmt.Errorf("querying for active services: %w", err)
	}
	defer rows.Close()

	activeServices := []string{}
	for rows.Next() {
		var serviceID string
		if err := rows.Scan(&serviceID); err != nil {
			return nil, fmt.Errorf("scanning active services: %w", err)
		}
		activeServices = append(activeServices, serviceID)
	}

	return activeServices, nil
}

func (r *PSQLFeedReader) StopTimeEvents(filter StopTimeEventFilter) ([]*StopTimeEvent, error) {
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
INNER JOIN trips ON stop_times.feed_id = trips.feed_id AND stop_times.trip_id = trips.id
INNER JOIN routes ON trips.feed_id = routes.feed_id AND trips.route_id = routes.id
`

	fParams := []string{"stop_times.feed_id = $1"}
	fVals := []interface{}{r.feedID}
	arg := func(v interface{}) string {
		fVals = append(fVals, v)
		return fmt.Sprintf("$%d", len(fVals))
	}

	if filter.StopID != "" {
		fParams = append(fParams, "stop_times.stop_id = "+arg(filter.StopID))
	}
	if filter.RouteID != "" {
		fParams = append(fParams, "routes.id = "+arg(filter.RouteID))
	}
	if len(filter.TripIDs) > 0 {
		fParams = append(fParams, "trips.id = ANY("+arg(pq.Array(filter.TripIDs))+")")
	}
	if len(filter.ServiceIDs) > 0 {
		fParams = append(fParams, "trips.service_id = ANY("+arg(pq.Array(filter.ServiceIDs))+")")
	}
	if filter.DepartureStart != "" {
		fParams = append(fParams, "stop_times.departure_time >= "+arg(filter.DepartureStart))
	}
	if filter.DepartureEnd != "" {
		fParams = append(fParams, "stop_times.departure_time < "+arg(filter.DepartureEnd))
	}

	query := baseQuery + " WHERE " + strings.Join(fParams, " AND ")

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

func (r *PSQLFeedReader) Agencies() ([]*model.Agency, error) {
	rows, err := r.db.Query(`SELECT id, name, url, timezone FROM agency WHERE feed_id = $1`, r.feedID)
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

func (r *PSQLFeedReader) Stops() ([]*model.Stop, error) {
	rows, err := r.db.Query(`SELECT id, code, name, "desc", lat, lon FROM stops WHERE feed_id = $1`, r.feedID)
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

func (r *PSQLFeedReader) Routes() ([]*model.Route, error) {
	rows, err := r.db.Query(`SELECT id, agency_id, short_name, long_name, type FROM routes WHERE feed_id = $1`, r.feedID)
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

func (r *PSQLFeedReader) Trips() ([]*model.Trip, error) {
	rows, err := r.db.Query(`SELECT id, route_id, service_id, headsign, direction_id FROM trips WHERE feed_id = $1`, r.feedID)
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

func (r *PSQLFeedReader) StopTimes() ([]*model.StopTime, error) {
	rows, err := r.db.Query(`
SELECT trip_id, stop_id, headsign, stop_sequence, arrival_time, departure_time
FROM stop_times
WHERE feed_id = $1`, r.feedID)
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

func (r *PSQLFeedReader) Calendars() ([]*model.Calendar, error) {
	rows, err := r.db.Query(`
SELECT service_id, start_date, end_date, monday, tuesday, wednesday, thursday, friday, saturday, sunday
FROM calendar
WHERE feed_id = $1`, r.feedID)
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

func (r *PSQLFeedReader) CalendarDates() ([]*model.CalendarDate, error) {
	rows, err := r.db.Query(`SELECT service_id, date, exception_type FROM calendar_dates WHERE feed_id = $1`, r.feedID)
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

func (r *PSQLFeedReader) Frequencies() ([]*model.Frequency, error) {
	rows, err := r.db.Query(`SELECT trip_id, start_time, end_time, headway_secs FROM frequencies WHERE feed_id = $1`, r.feedID)
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

func (r *PSQLFeedReader) StopByID(id string) (*model.Stop, error) {
	s := &model.Stop{}
	err := r.db.QueryRow(`SELECT id, code, name, "desc", lat, lon FROM stops WHERE feed_id = $1 AND id = $2`, r.feedID, id).
		Scan(&s.ID, &s.Code, &s.Name, &s.Desc, &s.Lat, &s.Lon)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying stop: %w", err)
	}
	return s, nil
}

func (r *PSQLFeedReader) RouteByID(id string) (*model.Route, error) {
	route := &model.Route{}
	err := r.db.QueryRow(`SELECT id, agency_id, short_name, long_name, type FROM routes WHERE feed_id = $1 AND id = $2`, r.feedID, id).
		Scan(&route.ID, &route.AgencyID, &route.ShortName, &route.LongName, &route.Type)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying route: %w", err)
	}
	return route, nil
}

func (r *PSQLFeedReader) TripByID(id string) (*model.Trip, error) {
	t := &model.Trip{}
	err := r.db.QueryRow(`SELECT id, route_id, service_id, headsign, direction_id FROM trips WHERE feed_id = $1 AND id = $2`, r.feedID, id).
		Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.Headsign, &t.DirectionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying trip: %w", err)
	}
	return t, nil
}
