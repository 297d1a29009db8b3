package plants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func event(id int64, t EventType, at time.Time) Event {
	return Event{Id: id, PlantId: 1, Type: t, Timestamp: at}
}

func TestLatestPicksMostRecentRegardlessOfOrder(t *testing.T) {
	older := event(1, Fertilize, base)
	newer := event(2, Fertilize, base.Add(48*time.Hour))

	for _, events := range [][]Event{{older, newer}, {newer, older}} {
		got := Latest(events, Fertilize)
		require.NotNil(t, got)
		assert.Equal(t, int64(2), got.Id)
	}
}

func TestLatestIgnoresOtherTypes(t *testing.T) {
	events := []Event{
		event(1, Fertilize, base),
		event(2, Water, base.Add(time.Hour)),
	}
	got := Latest(events, Water)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.Id)

	assert.Nil(t, Latest(events[1:], Fertilize))
	assert.Nil(t, Latest(nil, Water))
}

func TestLatestTieBreaksOnId(t *testing.T) {
	events := []Event{event(7, Water, base), event(3, Water, base)}
	got := Latest(events, Water)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.Id)
}

func TestLatestDoesNotAliasInput(t *testing.T) {
	events := []Event{event(1, Water, base)}
	got := Latest(events, Water)
	require.NotNil(t, got)
	got.Note = "changed"
	assert.Empty(t, events[0].Note)
}

func TestWithCareHistoryWithoutFertilizerEvents(t *testing.T) {
	stale := base.Add(-24 * time.Hour)
	p := Plant{
		Id:                  1,
		Name:                "Fern",
		LastFertilizerEvent: &Event{Id: 99, Type: Fertilize, Timestamp: stale},
		NextFertilizerDue:   &stale,
	}

	got := WithCareHistory(p, []Event{event(1, Water, base)})

	assert.Nil(t, got.LastFertilizerEvent)
	assert.Nil(t, got.NextFertilizerDue)
	assert.NotNil(t, p.LastFertilizerEvent, "input plant must not change")
}

func TestWithCareHistoryFertilizerDueIsThirtyDaysAfterLatest(t *testing.T) {
	events := []Event{
		event(1, Fertilize, base),
		event(2, Fertilize, base.Add(72*time.Hour)),
		event(3, Water, base.Add(96*time.Hour)),
	}

	got := WithCareHistory(Plant{Id: 1, Name: "Fern"}, events)

	require.NotNil(t, got.LastFertilizerEvent)
	assert.Equal(t, int64(2), got.LastFertilizerEvent.Id)
	require.NotNil(t, got.NextFertilizerDue)
	assert.True(t, got.NextFertilizerDue.Equal(base.Add(72*time.Hour+30*24*time.Hour)))
}

func TestWithCareHistoryKeepsBackendWaterState(t *testing.T) {
	due := base.Add(7 * 24 * time.Hour)
	backend := &Event{Id: 5, Type: Water, Timestamp: base}
	p := Plant{Id: 1, LastWaterEvent: backend, NextWaterDue: &due}

	got := WithCareHistory(p, []Event{event(6, Water, base.Add(time.Hour))})

	assert.Same(t, backend, got.LastWaterEvent)
	assert.Same(t, &due, got.NextWaterDue)
}

func TestWithCareHistoryFillsMissingWaterEvent(t *testing.T) {
	got := WithCareHistory(Plant{Id: 1}, []Event{event(6, Water, base)})

	require.NotNil(t, got.LastWaterEvent)
	assert.Equal(t, int64(6), got.LastWaterEvent.Id)
	assert.Nil(t, got.NextWaterDue)
}

func TestIsOverdue(t *testing.T) {
	past := base.Add(-time.Minute)
	future := base.Add(time.Minute)

	assert.True(t, IsOverdue(nil, base))
	assert.True(t, IsOverdue(&past, base))
	assert.False(t, IsOverdue(&future, base))

	p := Plant{NextWaterDue: &future}
	assert.False(t, p.NeedsWater(base))
	assert.True(t, p.NeedsFertilizer(base))
}

func TestParseEventType(t *testing.T) {
	et, err := ParseEventType("water")
	require.NoError(t, err)
	assert.Equal(t, Water, et)

	et, err = ParseEventType("fertilize")
	require.NoError(t, err)
	assert.Equal(t, Fertilize, et)

	_, err = ParseEventType("prune")
	assert.Error(t, err)
	assert.False(t, EventType(3).Valid())
}
