package transit

import (
	"fmt"
	"sort"
	"time"

	"github.com/urbanfeed/transit/model"
	"github.com/urbanfeed/transit/parse"
	"github.com/urbanfeed/transit/storage"
)

// MaxDepartures caps the result size of Departures regardless of the
// caller's limit.
const MaxDepartures = 1000

// Engine answers schedule and geo queries against one imported feed
// version. It is read-only and safe for concurrent use; re-importing
// the feed does not affect engines created earlier.
type Engine struct {
	reader storage.FeedReader

	// Frequency blocks by trip ID, loaded once. Trips present here
	// are frequency-based: their literal stop_times give the stop
	// pattern, while departures come from the blocks.
	frequencies map[string][]*model.Frequency
}

func NewEngine(reader storage.FeedReader) (*Engine, error) {
	frequencies, err := reader.Frequencies()
	if err != nil {
		return nil, fmt.Errorf("loading frequencies: %w", err)
	}

	byTrip := map[string][]*model.Frequency{}
	for _, f := range frequencies {
		byTrip[f.TripID] = append(byTrip[f.TripID], f)
	}

	return &Engine{
		reader:      reader,
		frequencies: byTrip,
	}, nil
}

// Departures returns all departures from the stop on the given service
// date (YYYYMMDD) with departure time in the half-open window
// [from, to). Times are H:MM:SS or HH:MM:SS; hours past 24 address the
// tail of the same service day. Results are sorted by departure time,
// then trip ID, and capped at limit (or MaxDepartures if limit is 0 or
// larger).
//
// Frequency-based trips contribute synthesized departures at
// start, start+headway, ... strictly before the block's end; all other
// trips contribute their literal stop_times.
func (e *Engine) Departures(stopID string, date string, from string, to string, limit int) ([]*model.Departure, error) {
	stop, err := e.reader.StopByID(stopID)
	if err != nil {
		return nil, fmt.Errorf("looking up stop: %w", err)
	}
	if stop == nil {
		return nil, &model.NotFoundError{Kind: "stop", ID: stopID}
	}

	if _, err := time.Parse("20060102", date); err != nil {
		return nil, &model.QueryError{Msg: fmt.Sprintf("invalid date '%s'", date)}
	}
	fromTime, err := parse.TimeOfDay(from)
	if err != nil {
		return nil, &model.QueryError{Msg: fmt.Sprintf("invalid window start '%s'", from)}
	}
	toTime, err := parse.TimeOfDay(to)
	if err != nil {
		return nil, &model.QueryError{Msg: fmt.Sprintf("invalid window end '%s'", to)}
	}

	if limit <= 0 || limit > MaxDepartures {
		limit = MaxDepartures
	}

	// An empty or inverted window is a valid query with no results.
	if fromTime >= toTime {
		return []*model.Departure{}, nil
	}

	services, err := e.reader.ActiveServices(date)
	if err != nil {
		return nil, fmt.Errorf("resolving active services: %w", err)
	}
	if len(services) == 0 {
		return []*model.Departure{}, nil
	}

	events, err := e.reader.StopTimeEvents(storage.StopTimeEventFilter{
		StopID:         stopID,
		ServiceIDs:     services,
		DepartureStart: fromTime,
		DepartureEnd:   toTime,
	})
	if err != nil {
		return nil, fmt.Errorf("querying stop times: %w", err)
	}

	seen := map[string]bool{}
	departures := []*model.Departure{}
	add := func(tripID, routeID, headsign, departureTime string) {
		key := tripID + "@" + departureTime
		if seen[key] {
			return
		}
		seen[key] = true
		departures = append(departures, &model.Departure{
			StopID:        stopID,
			RouteID:       routeID,
			TripID:        tripID,
			Headsign:      headsign,
			DepartureTime: departureTime,
		})
	}

	for _, event := range events {
		// Frequency-based trips get synthesized below.
		if len(e.frequencies[event.Trip.ID]) > 0 {
			continue
		}
		add(event.Trip.ID, event.Route.ID, headsign(event), event.StopTime.Departure)
	}

	freqDepartures, err := e.frequencyDepartures(stopID, services, fromTime, toTime)
	if err != nil {
		return nil, err
	}
	for _, d := range freqDepartures {
		add(d.TripID, d.RouteID, d.Headsign, d.DepartureTime)
	}

	sort.Slice(departures, func(i, j int) bool {
		if departures[i].DepartureTime != departures[j].DepartureTime {
			return departures[i].DepartureTime < departures[j].DepartureTime
		}
		return departures[i].TripID < departures[j].TripID
	})

	if len(departures) > limit {
		departures = departures[:limit]
	}

	return departures, nil
}

// Synthesized departures for frequency-based trips serving the stop.
func (e *Engine) frequencyDepartures(stopID string, services []string, from, to string) ([]*model.Departure, error) {
	if len(e.frequencies) == 0 {
		return nil, nil
	}

	tripIDs := make([]string, 0, len(e.frequencies))
	for tripID := range e.frequencies {
		tripIDs = append(tripIDs, tripID)
	}

	events, err := e.reader.StopTimeEvents(storage.StopTimeEventFilter{
		StopID:     stopID,
		ServiceIDs: services,
		TripIDs:    tripIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("querying frequency trips: %w", err)
	}

	departures := []*model.Departure{}
	for _, event := range events {
		for _, freq := range e.frequencies[event.Trip.ID] {
			headway := freq.Headway()
			for t := freq.Start(); t < freq.End(); t += headway {
				departureTime := formatHHMMSS(t)
				if departureTime < from || departureTime >= to {
					continue
				}
				departures = append(departures, &model.Departure{
					StopID:        stopID,
					RouteID:       event.Route.ID,
					TripID:        event.Trip.ID,
					Headsign:      headsign(event),
					DepartureTime: departureTime,
				})
			}
		}
	}

	return departures, nil
}

// NearestStops returns the k stops closest to (lat, lon) by
// great-circle distance, nearest first. Fewer than k are returned if
// the feed has fewer stops.
//
// Candidates are prefiltered with a widening bounding box before the
// exact distance is computed.
func (e *Engine) NearestStops(lat float64, lon float64, k int) ([]*model.StopDistance, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, &model.QueryError{Msg: fmt.Sprintf("invalid coordinate (%f, %f)", lat, lon)}
	}
	if k <= 0 {
		return nil, &model.QueryError{Msg: fmt.Sprintf("invalid k %d", k)}
	}

	stops, err := e.reader.Stops()
	if err != nil {
		return nil, fmt.Errorf("loading stops: %w", err)
	}

	var candidates []*model.Stop
	for radius := 500.0; ; radius *= 4 {
		box := storage.BoxAround(lat, lon, radius)

		candidates = candidates[:0]
		for _, stop := range stops {
			if box.Contains(stop.Lat, stop.Lon) {
				candidates = append(candidates, stop)
			}
		}

		if len(candidates) >= k || box.Whole() {
			break
		}
	}

	nearest := make([]*model.StopDistance, 0, len(candidates))
	for _, stop := range candidates {
		nearest = append(nearest, &model.StopDistance{
			Stop:   *stop,
			Meters: storage.HaversineMeters(lat, lon, stop.Lat, stop.Lon),
		})
	}

	sort.Slice(nearest, func(i, j int) bool {
		if nearest[i].Meters != nearest[j].Meters {
			return nearest[i].Meters < nearest[j].Meters
		}
		return nearest[i].Stop.ID < nearest[j].Stop.ID
	})

	if len(nearest) > k {
		nearest = nearest[:k]
	}

	return nearest, nil
}

// ActiveServices returns the service IDs running on the date
// (YYYYMMDD), sorted.
func (e *Engine) ActiveServices(date string) ([]string, error) {
	if _, err := time.Parse("20060102", date); err != nil {
		return nil, &model.QueryError{Msg: fmt.Sprintf("invalid date '%s'", date)}
	}
	return e.reader.ActiveServices(date)
}

func (e *Engine) Agencies() ([]*model.Agency, error) {
	return e.reader.Agencies()
}

func (e *Engine) Stops() ([]*model.Stop, error) {
	return e.reader.Stops()
}

func (e *Engine) Routes() ([]*model.Route, error) {
	return e.reader.Routes()
}

func (e *Engine) Stop(id string) (*model.Stop, error) {
	stop, err := e.reader.StopByID(id)
	if err != nil {
		return nil, err
	}
	if stop == nil {
		return nil, &model.NotFoundError{Kind: "stop", ID: id}
	}
	return stop, nil
}

func (e *Engine) Route(id string) (*model.Route, error) {
	route, err := e.reader.RouteByID(id)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, &model.NotFoundError{Kind: "route", ID: id}
	}
	return route, nil
}

func (e *Engine) Trip(id string) (*model.Trip, error) {
	trip, err := e.reader.TripByID(id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, &model.NotFoundError{Kind: "trip", ID: id}
	}
	return trip, nil
}

// Headsign precedence: the stop_time's own headsign wins over the
// trip's.
func headsign(event *storage.StopTimeEvent) string {
	if event.StopTime.Headsign != "" {
		return event.StopTime.Headsign
	}
	return event.Trip.Headsign
}

func formatHHMMSS(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d%02d%02d", h, m, s)
}
