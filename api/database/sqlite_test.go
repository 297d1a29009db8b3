package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteDatabase {
	t.Helper()
	db, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "hortus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)

	users, err := db.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	alice, err := db.AddUser(ctx, "Alice", "#F44336")
	require.NoError(t, err)
	assert.NotZero(t, alice.Id)

	got, err := db.User(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = db.User(ctx, alice.Id+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLitePlantsAreScopedToTheirUser(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)
	alice, err := db.AddUser(ctx, "Alice", "#F44336")
	require.NoError(t, err)
	bob, err := db.AddUser(ctx, "Bob", "#2196F3")
	require.NoError(t, err)

	monstera, err := db.AddPlant(ctx, alice.Id, "Monstera")
	require.NoError(t, err)
	assert.Equal(t, alice.Id, monstera.UserId)

	_, err = db.Plant(ctx, bob.Id, monstera.Id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.RenamePlant(ctx, bob.Id, monstera.Id, "Stolen")
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := db.RenamePlant(ctx, alice.Id, monstera.Id, "Swiss cheese plant")
	require.NoError(t, err)
	assert.Equal(t, "Swiss cheese plant", renamed.Name)

	ps, err := db.UserPlants(ctx, alice.Id)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Swiss cheese plant", ps[0].Name)

	ps, err = db.UserPlants(ctx, bob.Id)
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestSQLiteEvents(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)
	u, err := db.AddUser(ctx, "Alice", "#F44336")
	require.NoError(t, err)
	p, err := db.AddPlant(ctx, u.Id, "Fern")
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	_, err = db.AddEvent(ctx, p.Id, plants.Water, "", base)
	require.NoError(t, err)
	lastWater, err := db.AddEvent(ctx, p.Id, plants.Water, "soaked", base.Add(48*time.Hour))
	require.NoError(t, err)
	feed, err := db.AddEvent(ctx, p.Id, plants.Fertilize, "", base.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, plants.Water, lastWater.Type)
	assert.Equal(t, "soaked", lastWater.Note)
	assert.True(t, lastWater.Timestamp.Equal(base.Add(48*time.Hour)))

	events, err := db.PlantEvents(ctx, p.Id)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, lastWater.Id, events[0].Id)
	assert.Equal(t, feed.Id, events[1].Id)

	latest, err := db.LatestEvents(ctx, p.Id)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, lastWater, latest[0])
	assert.Equal(t, feed, latest[1])
}

func TestSQLiteLatestEventsTieGoesToHigherId(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLite(t)
	u, err := db.AddUser(ctx, "Alice", "#F44336")
	require.NoError(t, err)
	p, err := db.AddPlant(ctx, u.Id, "Fern")
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	_, err = db.AddEvent(ctx, p.Id, plants.Water, "first", at)
	require.NoError(t, err)
	second, err := db.AddEvent(ctx, p.Id, plants.Water, "second", at)
	require.NoError(t, err)

	latest, err := db.LatestEvents(ctx, p.Id)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, second.Id, latest[0].Id)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	assert.Error(t, err)
}
