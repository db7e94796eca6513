package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/urbanfeed/transit/model"
)

// In-memory storage. Mostly useful for tests, but behaves like the
// real backends: a writer stages a full feed and Close swaps it in
// atomically, so readers opened earlier keep their snapshot.
type MemoryStorage struct {
	mu       sync.RWMutex
	metadata map[string]*FeedMetadata
	feeds    map[string]*memoryFeed
}

type memoryFeed struct {
	agencies      []*model.Agency
	stops         []*model.Stop
	routes        []*model.Route
	trips         []*model.Trip
	stopTimes     []*model.StopTime
	calendars     []*model.Calendar
	calendarDates []*model.CalendarDate
	frequencies   []*model.Frequency

	stopsByID  map[string]*model.Stop
	routesByID map[string]*model.Route
	tripsByID  map[string]*model.Trip
}

type MemoryFeedWriter struct {
	storage *MemoryStorage
	feedID  string
	feed    *memoryFeed
}

type MemoryFeedReader struct {
	feed *memoryFeed
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		metadata: map[string]*FeedMetadata{},
		feeds:    map[string]*memoryFeed{},
	}
}

func (s *MemoryStorage) ListFeeds() ([]*FeedMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feeds := make([]*FeedMetadata, 0, len(s.metadata))
	for _, metadata := range s.metadata {
		feeds = append(feeds, metadata)
	}
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].ImportedAt.After(feeds[j].ImportedAt)
	})

	return feeds, nil
}

func (s *MemoryStorage) WriteFeedMetadata(metadata *FeedMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[metadata.FeedID] = metadata
	return nil
}

func (s *MemoryStorage) DeleteFeed(feedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.metadata, feedID)
	delete(s.feeds, feedID)
	return nil
}

func (s *MemoryStorage) GetReader(feedID string) (FeedReader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feed, found := s.feeds[feedID]
	if !found {
		return nil, fmt.Errorf("feed %s does not exist", feedID)
	}

	return &MemoryFeedReader{feed: feed}, nil
}

func (s *MemoryStorage) GetWriter(feedID string) (FeedWriter, error) {
	return &MemoryFeedWriter{
		storage: s,
		feedID:  feedID,
		feed: &memoryFeed{
			stopsByID:  map[string]*model.Stop{},
			routesByID: map[string]*model.Route{},
			tripsByID:  map[string]*model.Trip{},
		},
	}, nil
}

func (w *MemoryFeedWriter) WriteAgency(agency *model.Agency) error {
	w.feed.agencies = append(w.feed.agencies, agency)
	return nil
}

func (w *MemoryFeedWriter) WriteStop(stop *model.Stop) error {
	w.feed.stops = append(w.feed.stops, stop)
	w.feed.stopsByID[stop.ID] = stop
	return nil
}

func (w *MemoryFeedWriter) WriteRoute(route *model.Route) error {
	w.feed.routes = append(w.feed.routes, route)
	w.feed.routesByID[route.ID] = route
	return nil
}

func (w *MemoryFeedWriter) BeginTrips() error {
	return nil
}

func (w *MemoryFeedWriter) WriteTrip(trip *model.Trip) error {
	w.feed.trips = append(w.feed.trips, trip)
	w.feed.tripsByID[trip.ID] = trip
	return nil
}

func (w *MemoryFeedWriter) EndTrips() error {
	return nil
}

func (w *MemoryFeedWriter) BeginStopTimes() error {
	return nil
}

func (w *MemoryFeedWriter) WriteStopTime(stopTime *model.StopTime) error {
	w.feed.stopTimes = append(w.feed.stopTimes, stopTime)
	return nil
}

func (w *MemoryFeedWriter) EndStopTimes() error {
	return nil
}

func (w *MemoryFeedWriter) WriteCalendar(cal *model.Calendar) error {
	w.feed.calendars = append(w.feed.calendars, cal)
	return nil
}

func (w *MemoryFeedWriter) WriteCalendarDate(caldate *model.CalendarDate) error {
	w.feed.calendarDates = append(w.feed.calendarDates, caldate)
	return nil
}

func (w *MemoryFeedWriter) WriteFrequency(freq *model.Frequency) error {
	w.feed.frequencies = append(w.feed.frequencies, freq)
	return nil
}

func (w *MemoryFeedWriter) Close() error {
	w.storage.mu.Lock()
	defer w.storage.mu.Unlock()
	w.storage.feeds[w.feedID] = w.feed
	return nil
}

func (w *MemoryFeedWriter) Abort() error {
	w.feed = nil
	return nil
}

func (r *MemoryFeedReader) Agencies() ([]*model.Agency, error) {
	return r.feed.agencies, nil
}

func (r *MemoryFeedReader) Stops() ([]*model.Stop, error) {
	return r.feed.stops, nil
}

func (r *MemoryFeedReader) Routes() ([]*model.Route, error) {
	return r.feed.routes, nil
}

func (r *MemoryFeedReader) Trips() ([]*model.Trip, error) {
	return r.feed.trips, nil
}

func (r *MemoryFeedReader) StopTimes() ([]*model.StopTime, error) {
	return r.feed.stopTimes, nil
}

func (r *MemoryFeedReader) Calendars() ([]*model.Calendar, error) {
	return r.feed.calendars, nil
}

func (r *MemoryFeedReader) CalendarDates() ([]*model.CalendarDate, error) {
	return r.feed.calendarDates, nil
}

func (r *MemoryFeedReader) Frequencies() ([]*model.Frequency, error) {
	return r.feed.frequencies, nil
}

func (r *MemoryFeedReader) StopByID(id string) (*model.Stop, error) {
	return r.feed.stopsByID[id], nil
}

func (r *MemoryFeedReader) RouteByID(id string) (*model.Route, error) {
	return r.feed.routesByID[id], nil
}

func (r *MemoryFeedReader) TripByID(id string) (*model.Trip, error) {
	return r.feed.tripsByID[id], nil
}

func (r *MemoryFeedReader) ActiveServices(date string) ([]string, error) {
	parsedDate, err := time.Parse("20060102", date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", date)
	}

	active := map[string]bool{}
	for _, cal := range r.feed.calendars {
		if cal.StartDate <= date && date <= cal.EndDate &&
			cal.Weekday&(1<<parsedDate.Weekday()) != 0 {
			active[cal.ServiceID] = true
		}
	}

	// Exceptions win over calendar rules.
	for _, cd := range r.feed.calendarDates {
		if cd.Date != date {
			continue
		}
		switch cd.ExceptionType {
		case model.ExceptionAdded:
			active[cd.ServiceID] = true
		case model.ExceptionRemoved:
			delete(active, cd.ServiceID)
		}
	}

	services := make([]string, 0, len(active))
	for serviceID := range active {
		services = append(services, serviceID)
	}
	sort.Strings(services)

	return services, nil
}

func (r *MemoryFeedReader) StopTimeEvents(filter StopTimeEventFilter) ([]*StopTimeEvent, error) {
	serviceIDs := map[string]bool{}
	for _, id := range filter.ServiceIDs {
		serviceIDs[id] = true
	}
	tripIDs := map[string]bool{}
	for _, id := range filter.TripIDs {
		tripIDs[id] = true
	}

	events := []*StopTimeEvent{}
	for _, st := range r.feed.stopTimes {
		if filter.StopID != "" && st.StopID != filter.StopID {
			continue
		}
		if filter.DepartureStart != "" && st.Departure < filter.DepartureStart {
			continue
		}
		if filter.DepartureEnd != "" && st.Departure >= filter.DepartureEnd {
			continue
		}
		if len(tripIDs) > 0 && !tripIDs[st.TripID] {
			continue
		}

		trip := r.feed.tripsByID[st.TripID]
		if trip == nil {
			continue
		}
		if len(serviceIDs) > 0 && !serviceIDs[trip.ServiceID] {
			continue
		}

		route := r.feed.routesByID[trip.RouteID]
		if route == nil {
			continue
		}
		if filter.RouteID != "" && route.ID != filter.RouteID {
			continue
		}

		events = append(events, &StopTimeEvent{
			StopTime: st,
			Trip:     trip,
			Route:    route,
		})
	}

	return events, nil
}
