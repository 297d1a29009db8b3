package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/pressly/goose/v3"
)

type PostgresDatabase struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the Postgres database at url and applies pending
// migrations.
func NewPostgres(ctx context.Context, url string) (*PostgresDatabase, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("database: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: connecting: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := migrate(ctx, sqlDB, goose.DialectPostgres, "postgres"); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresDatabase{pool: pool}, nil
}

// Close closes all connections to this connection pool. Always returns a nil
// error.
func (db *PostgresDatabase) Close() error {
	db.pool.Close()
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (db *PostgresDatabase) Users(ctx context.Context) ([]plants.User, error) {
	rows, _ := db.pool.Query(ctx, "SELECT id, name, colour FROM users ORDER BY id;")
	return pgx.CollectRows(rows, pgx.RowToStructByPos[plants.User])
}

func (db *PostgresDatabase) User(ctx context.Context, id int64) (plants.User, error) {
	rows, _ := db.pool.Query(ctx, "SELECT id, name, colour FROM users WHERE id = $1;", id)
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[plants.User])
	return u, notFound(err)
}

func (db *PostgresDatabase) AddUser(ctx context.Context, name, colour string) (plants.User, error) {
	rows, _ := db.pool.Query(
		ctx,
		`
INSERT INTO users (name, colour)
VALUES ($1, $2)
RETURNING id, name, colour;`,
		name,
		colour,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[plants.User])
}

func (db *PostgresDatabase) UserPlants(ctx context.Context, userId int64) ([]plants.Plant, error) {
	rows, _ := db.pool.Query(
		ctx,
		"SELECT id, user_id, name FROM plants WHERE user_id = $1 ORDER BY id;",
		userId,
	)
	ps, err := pgx.CollectRows(rows, pgx.RowToStructByPos[plantRow])
	if err != nil {
		return nil, err
	}
	return toPlants(ps), nil
}

func (db *PostgresDatabase) Plant(ctx context.Context, userId, plantId int64) (plants.Plant, error) {
	rows, _ := db.pool.Query(
		ctx,
		"SELECT id, user_id, name FROM plants WHERE id = $1 AND user_id = $2;",
		plantId,
		userId,
	)
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[plantRow])
	if err != nil {
		return plants.Plant{}, notFound(err)
	}
	return p.plant(), nil
}

func (db *PostgresDatabase) AddPlant(ctx context.Context, userId int64, name string) (plants.Plant, error) {
	rows, _ := db.pool.Query(
		ctx,
		`
INSERT INTO plants (user_id, name)
VALUES ($1, $2)
RETURNING id, user_id, name;`,
		userId,
		name,
	)
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[plantRow])
	if err != nil {
		return plants.Plant{}, err
	}
	return p.plant(), nil
}

func (db *PostgresDatabase) RenamePlant(ctx context.Context, userId, plantId int64, name string) (plants.Plant, error) {
	rows, _ := db.pool.Query(
		ctx,
		`
UPDATE plants SET name = $1
WHERE id = $2 AND user_id = $3
RETURNING id, user_id, name;`,
		name,
		plantId,
		userId,
	)
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[plantRow])
	if err != nil {
		return plants.Plant{}, notFound(err)
	}
	return p.plant(), nil
}

func (db *PostgresDatabase) PlantEvents(ctx context.Context, plantId int64) ([]plants.Event, error) {
	rows, _ := db.pool.Query(
		ctx,
		`
SELECT id, plant_id, event_type, note, timestamp
FROM events
WHERE plant_id = $1
ORDER BY timestamp DESC, id DESC;`,
		plantId,
	)
	return collectEvents(rows)
}

func (db *PostgresDatabase) LatestEvents(ctx context.Context, plantId int64) ([]plants.Event, error) {
	rows, _ := db.pool.Query(
		ctx,
		`
SELECT DISTINCT ON (event_type) id, plant_id, event_type, note, timestamp
FROM events
WHERE plant_id = $1 AND event_type IN (1, 2)
ORDER BY event_type, timestamp DESC, id DESC;`,
		plantId,
	)
	return collectEvents(rows)
}

func (db *PostgresDatabase) AddEvent(ctx context.Context, plantId int64, t plants.EventType, note string, at time.Time) (plants.Event, error) {
	rows, _ := db.pool.Query(
		ctx,
		`
INSERT INTO events (plant_id, event_type, note, timestamp)
VALUES ($1, $2, $3, $4)
RETURNING id, plant_id, event_type, note, timestamp;`,
		plantId,
		int(t),
		note,
		at,
	)
	e, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[plants.Event])
	if err != nil {
		return plants.Event{}, err
	}
	e.Timestamp = e.Timestamp.UTC()
	return e, nil
}

func collectEvents(rows pgx.Rows) ([]plants.Event, error) {
	events, err := pgx.CollectRows(rows, pgx.RowToStructByPos[plants.Event])
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Timestamp = events[i].Timestamp.UTC()
	}
	return events, nil
}

var _ Database = (*PostgresDatabase)(nil)
