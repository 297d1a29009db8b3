package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/pressly/goose/v3"
)

// ErrNotFound is returned when a requested user or plant does not exist, or
// the plant does not belong to the given user.
var ErrNotFound = errors.New("database: not found")

//go:embed migrations
var migrations embed.FS

// Database defines the API to store and retrieve users, plants and care
// events.
type Database interface {
	Close() error
	Users(ctx context.Context) ([]plants.User, error)
	User(ctx context.Context, id int64) (plants.User, error)
	AddUser(ctx context.Context, name, colour string) (plants.User, error)
	// UserPlants and Plant return plants without care state.
	UserPlants(ctx context.Context, userId int64) ([]plants.Plant, error)
	Plant(ctx context.Context, userId, plantId int64) (plants.Plant, error)
	AddPlant(ctx context.Context, userId int64, name string) (plants.Plant, error)
	RenamePlant(ctx context.Context, userId, plantId int64, name string) (plants.Plant, error)
	// PlantEvents returns the events of a plant, newest first.
	PlantEvents(ctx context.Context, plantId int64) ([]plants.Event, error)
	// LatestEvents returns at most one event per type: the most recent one.
	LatestEvents(ctx context.Context, plantId int64) ([]plants.Event, error)
	AddEvent(ctx context.Context, plantId int64, t plants.EventType, note string, at time.Time) (plants.Event, error)
}

// Open connects to the database of the given driver ("postgres" or "sqlite")
// and brings its schema up to date.
func Open(ctx context.Context, driver, url string) (Database, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, url)
	case "sqlite":
		return NewSQLite(ctx, url)
	}
	return nil, fmt.Errorf("database: unsupported driver %q", driver)
}

// migrate applies the embedded migrations found under dir.
func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrations, "migrations/"+dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("database: preparing migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("database: migrating: %w", err)
	}
	return nil
}

// plantRow is a plant as stored, without care state.
type plantRow struct {
	Id     int64  `db:"id"`
	UserId int64  `db:"user_id"`
	Name   string `db:"name"`
}

func (r plantRow) plant() plants.Plant {
	return plants.Plant{Id: r.Id, UserId: r.UserId, Name: r.Name}
}

func toPlants(rows []plantRow) []plants.Plant {
	ps := make([]plants.Plant, len(rows))
	for i, r := range rows {
		ps[i] = r.plant()
	}
	return ps
}
