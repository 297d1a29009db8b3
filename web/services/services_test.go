package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/mgmu/hortus-tracker/api/database"
	"github.com/mgmu/hortus-tracker/api/handlers"
	"github.com/mgmu/hortus-tracker/internal/errs"
	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/mgmu/hortus-tracker/web/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testServices struct {
	users  *UsersService
	plants *PlantsService
	events *EventsService
	logs   *observer.ObservedLogs
}

func newServices(t *testing.T, h http.Handler) testServices {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	c, err := client.New(srv.URL, client.WithLogger(logger))
	require.NoError(t, err)
	events := NewEventsService(c, logger)
	return testServices{
		users:  NewUsersService(c, logger),
		plants: NewPlantsService(c, events, logger),
		events: events,
		logs:   logs,
	}
}

// newAPI serves the real API over a fresh SQLite database.
func newAPI(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "hortus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return handlers.New(db, zap.NewNop()).Handler()
}

func TestEndToEndWatering(t *testing.T) {
	ctx := context.Background()
	s := newServices(t, newAPI(t))

	alice, err := s.users.Create(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Name)
	assert.NotEmpty(t, alice.Colour)

	monstera, err := s.plants.Create(ctx, alice.Id, "Monstera")
	require.NoError(t, err)
	assert.Nil(t, monstera.LastWaterEvent)

	watered, err := s.events.Water(ctx, alice.Id, monstera.Id)
	require.NoError(t, err)
	assert.Equal(t, plants.Water, watered.Type)

	ps, err := s.plants.List(ctx, alice.Id)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	require.NotNil(t, ps[0].LastWaterEvent)
	assert.Equal(t, watered.Id, ps[0].LastWaterEvent.Id)
	require.NotNil(t, ps[0].NextWaterDue)
	assert.Nil(t, ps[0].LastFertilizerEvent)

	fed, err := s.events.Fertilize(ctx, alice.Id, monstera.Id)
	require.NoError(t, err)

	p, err := s.plants.Get(ctx, alice.Id, monstera.Id)
	require.NoError(t, err)
	require.NotNil(t, p.LastFertilizerEvent)
	assert.Equal(t, fed.Id, p.LastFertilizerEvent.Id)
	require.NotNil(t, p.NextFertilizerDue)
	assert.True(t, p.NextFertilizerDue.Equal(fed.Timestamp.Add(plants.FertilizerInterval)))

	renamed, err := s.plants.Rename(ctx, alice.Id, monstera.Id, "Swiss cheese plant")
	require.NoError(t, err)
	assert.Equal(t, "Swiss cheese plant", renamed.Name)
	assert.NotNil(t, renamed.LastFertilizerEvent)

	users, err := s.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	events, err := s.events.List(ctx, alice.Id, monstera.Id)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestUnknownUserIsNotFound(t *testing.T) {
	s := newServices(t, newAPI(t))

	_, err := s.users.Get(context.Background(), 42)

	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, err.Error(), "404")
}

func TestBlankNamesAreRejectedLocally(t *testing.T) {
	var calls atomic.Int32
	s := newServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	ctx := context.Background()

	_, err := s.users.Create(ctx, "   ")
	assert.Equal(t, "Name is required", errs.UserMessage(err))
	_, err = s.plants.Create(ctx, 1, "")
	assert.Equal(t, "Name is required", errs.UserMessage(err))
	_, err = s.plants.Rename(ctx, 1, 1, "\t")
	assert.Equal(t, "Name is required", errs.UserMessage(err))
	assert.Zero(t, calls.Load())
}

func TestInvalidPayloadIsLoggedAndGeneric(t *testing.T) {
	s := newServices(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":1,"name":"Fern","nextWaterDue":"not-a-date"}]}`))
	}))

	_, err := s.plants.List(context.Background(), 1)

	assert.ErrorIs(t, err, errs.ErrInvalidData)
	assert.Equal(t, "Received invalid data from server.", errs.UserMessage(err))
	assert.NotContains(t, err.Error(), "not-a-date")
	entries := s.logs.FilterMessage("invalid data from server").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "not-a-date")
}

func TestEnhancementFailureKeepsPlant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/1/plants", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":1,"name":"Fern","lastWaterEvent":null,"nextWaterDue":null},
			{"id":2,"name":"Aloe"}
		]}`))
	})
	mux.HandleFunc("/users/1/plants/1/events", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/users/1/plants/2/events", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":7,"plantId":2,"typeId":2,"note":"","timestamp":"2024-06-01T08:00:00Z"}]}`))
	})
	s := newServices(t, mux)

	ps, err := s.plants.List(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Fern", ps[0].Name)
	assert.Nil(t, ps[0].LastFertilizerEvent)
	require.NotNil(t, ps[1].LastFertilizerEvent)
	assert.Equal(t, int64(7), ps[1].LastFertilizerEvent.Id)
	assert.Equal(t, 1, s.logs.FilterMessage("loading plant history failed").Len())
}

func TestCreateRejectsUnknownEventType(t *testing.T) {
	s := newServices(t, http.NotFoundHandler())

	_, err := s.events.Create(context.Background(), 1, 1, plants.EventType(9), "")

	var domainErr *errs.DomainError
	assert.ErrorAs(t, err, &domainErr)
}
