package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStopTimeDurations(t *testing.T) {
	st := &StopTime{Arrival: "080500", Departure: "253000"}
	assert.Equal(t, 8*time.Hour+5*time.Minute, st.ArrivalTime())
	// Past-midnight times extend beyond 24h on the same service day.
	assert.Equal(t, 25*time.Hour+30*time.Minute, st.DepartureTime())
}

func TestFrequencyDurations(t *testing.T) {
	f := &Frequency{StartTime: "060000", EndTime: "090000", HeadwaySecs: 600}
	assert.Equal(t, 6*time.Hour, f.Start())
	assert.Equal(t, 9*time.Hour, f.End())
	assert.Equal(t, 10*time.Minute, f.Headway())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "stops row 3: bad coordinate",
		(&ValidationError{Table: "stops", Row: 3, Msg: "bad coordinate"}).Error())
	assert.Equal(t, "trips row 7: unknown route_id 'r9'",
		(&ReferenceError{Table: "trips", Row: 7, Field: "route_id", Value: "r9"}).Error())
	assert.Equal(t, "stop 's1' not found",
		(&NotFoundError{Kind: "stop", ID: "s1"}).Error())
}
