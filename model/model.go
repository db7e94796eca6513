package model

import (
	"strconv"
	"time"
)

// Entity types shared by the parser, the storage backends and the
// query engine. All of them are immutable once a feed is imported.

type RouteType int

const (
	RouteTypeTram       RouteType = 0
	RouteTypeSubway     RouteType = 1
	RouteTypeRail       RouteType = 2
	RouteTypeBus        RouteType = 3
	RouteTypeFerry      RouteType = 4
	RouteTypeCable      RouteType = 5
	RouteTypeAerial     RouteType = 6
	RouteTypeFunicular  RouteType = 7
	RouteTypeTrolleybus RouteType = 11
	RouteTypeMonorail   RouteType = 12
)

type ExceptionType int8

const (
	ExceptionAdded   ExceptionType = 1
	ExceptionRemoved ExceptionType = 2
)

type Agency struct {
	ID       string
	Name     string
	URL      string
	Timezone string
}

type Stop struct {
	ID   string
	Code string
	Name string
	Desc string
	Lat  float64
	Lon  float64
}

type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Type      RouteType
}

type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	Headsign    string
	DirectionID int8
}

// Arrival and Departure hold service-day-relative times as zero padded
// HHMMSS strings. Hours may exceed 23 for trips continuing past
// midnight; the strings order lexicographically.
type StopTime struct {
	TripID       string
	StopID       string
	Headsign     string
	StopSequence uint32
	Arrival      string
	Departure    string
}

func hhmmssDuration(s string) time.Duration {
	h, _ := strconv.Atoi(s[0:2])
	m, _ := strconv.Atoi(s[2:4])
	sec, _ := strconv.Atoi(s[4:6])
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

func (st *StopTime) ArrivalTime() time.Duration {
	return hhmmssDuration(st.Arrival)
}

func (st *StopTime) DepartureTime() time.Duration {
	return hhmmssDuration(st.Departure)
}

// Weekday is a bitmask over time.Weekday: bit 1<<time.Monday is set if
// the service runs on Mondays, and so on. StartDate and EndDate are
// inclusive YYYYMMDD strings.
type Calendar struct {
	ServiceID string
	StartDate string
	EndDate   string
	Weekday   int8
}

type CalendarDate struct {
	ServiceID     string
	Date          string
	ExceptionType ExceptionType
}

// A frequency block marks its trip as frequency-based: departures are
// synthesized at StartTime, StartTime+headway, ... strictly before
// EndTime. Times are HHMMSS strings like StopTime's.
type Frequency struct {
	TripID      string
	StartTime   string
	EndTime     string
	HeadwaySecs int
}

func (f *Frequency) Headway() time.Duration {
	return time.Duration(f.HeadwaySecs) * time.Second
}

func (f *Frequency) Start() time.Duration {
	return hhmmssDuration(f.StartTime)
}

func (f *Frequency) End() time.Duration {
	return hhmmssDuration(f.EndTime)
}

// A vehicle departing from a stop, literal or synthesized.
type Departure struct {
	StopID        string
	RouteID       string
	TripID        string
	Headsign      string
	DepartureTime string
}

// A stop paired with its great-circle distance from a query point.
type StopDistance struct {
	Stop   Stop
	Meters float64
}
