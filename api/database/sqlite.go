package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteDatabase stores everything in a single SQLite file. Timestamps are
// kept as Unix nanoseconds.
type SQLiteDatabase struct {
	db *sqlx.DB
}

type eventRow struct {
	Id        int64  `db:"id"`
	PlantId   int64  `db:"plant_id"`
	EventType int    `db:"event_type"`
	Note      string `db:"note"`
	Timestamp int64  `db:"timestamp"`
}

func (r eventRow) event() plants.Event {
	return plants.Event{
		Id:        r.Id,
		PlantId:   r.PlantId,
		Type:      plants.EventType(r.EventType),
		Note:      r.Note,
		Timestamp: time.Unix(0, r.Timestamp).UTC(),
	}
}

// NewSQLite opens the SQLite database at dsn, a file path optionally followed
// by modernc.org/sqlite query parameters, and applies pending migrations.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteDatabase, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: opening sqlite: %w", err)
	}
	if err := migrate(ctx, db.DB, goose.DialectSQLite3, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteDatabase{db: db}, nil
}

func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *SQLiteDatabase) Users(ctx context.Context) ([]plants.User, error) {
	users := []plants.User{}
	err := s.db.SelectContext(ctx, &users, "SELECT id, name, colour FROM users ORDER BY id;")
	return users, err
}

func (s *SQLiteDatabase) User(ctx context.Context, id int64) (plants.User, error) {
	var u plants.User
	err := s.db.GetContext(ctx, &u, "SELECT id, name, colour FROM users WHERE id = ?;", id)
	return u, noRows(err)
}

func (s *SQLiteDatabase) AddUser(ctx context.Context, name, colour string) (plants.User, error) {
	var u plants.User
	err := s.db.GetContext(
		ctx,
		&u,
		"INSERT INTO users (name, colour) VALUES (?, ?) RETURNING id, name, colour;",
		name,
		colour,
	)
	return u, err
}

func (s *SQLiteDatabase) UserPlants(ctx context.Context, userId int64) ([]plants.Plant, error) {
	var rows []plantRow
	err := s.db.SelectContext(
		ctx,
		&rows,
		"SELECT id, user_id, name FROM plants WHERE user_id = ? ORDER BY id;",
		userId,
	)
	if err != nil {
		return nil, err
	}
	return toPlants(rows), nil
}

func (s *SQLiteDatabase) Plant(ctx context.Context, userId, plantId int64) (plants.Plant, error) {
	var r plantRow
	err := s.db.GetContext(
		ctx,
		&r,
		"SELECT id, user_id, name FROM plants WHERE id = ? AND user_id = ?;",
		plantId,
		userId,
	)
	if err != nil {
		return plants.Plant{}, noRows(err)
	}
	return r.plant(), nil
}

func (s *SQLiteDatabase) AddPlant(ctx context.Context, userId int64, name string) (plants.Plant, error) {
	var r plantRow
	err := s.db.GetContext(
		ctx,
		&r,
		"INSERT INTO plants (user_id, name) VALUES (?, ?) RETURNING id, user_id, name;",
		userId,
		name,
	)
	if err != nil {
		return plants.Plant{}, err
	}
	return r.plant(), nil
}

func (s *SQLiteDatabase) RenamePlant(ctx context.Context, userId, plantId int64, name string) (plants.Plant, error) {
	var r plantRow
	err := s.db.GetContext(
		ctx,
		&r,
		"UPDATE plants SET name = ? WHERE id = ? AND user_id = ? RETURNING id, user_id, name;",
		name,
		plantId,
		userId,
	)
	if err != nil {
		return plants.Plant{}, noRows(err)
	}
	return r.plant(), nil
}

func (s *SQLiteDatabase) PlantEvents(ctx context.Context, plantId int64) ([]plants.Event, error) {
	return s.selectEvents(
		ctx,
		`
SELECT id, plant_id, event_type, note, timestamp
FROM events
WHERE plant_id = ?
ORDER BY timestamp DESC, id DESC;`,
		plantId,
	)
}

func (s *SQLiteDatabase) LatestEvents(ctx context.Context, plantId int64) ([]plants.Event, error) {
	return s.selectEvents(
		ctx,
		`
SELECT id, plant_id, event_type, note, timestamp
FROM (
    SELECT id, plant_id, event_type, note, timestamp,
           ROW_NUMBER() OVER (PARTITION BY event_type ORDER BY timestamp DESC, id DESC) AS rn
    FROM events
    WHERE plant_id = ? AND event_type IN (1, 2)
)
WHERE rn = 1
ORDER BY event_type;`,
		plantId,
	)
}

func (s *SQLiteDatabase) AddEvent(ctx context.Context, plantId int64, t plants.EventType, note string, at time.Time) (plants.Event, error) {
	var r eventRow
	err := s.db.GetContext(
		ctx,
		&r,
		`
INSERT INTO events (plant_id, event_type, note, timestamp)
VALUES (?, ?, ?, ?)
RETURNING id, plant_id, event_type, note, timestamp;`,
		plantId,
		int(t),
		note,
		at.UnixNano(),
	)
	if err != nil {
		return plants.Event{}, err
	}
	return r.event(), nil
}

func (s *SQLiteDatabase) selectEvents(ctx context.Context, query string, args ...any) ([]plants.Event, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	events := make([]plants.Event, len(rows))
	for i, r := range rows {
		events[i] = r.event()
	}
	return events, nil
}

var _ Database = (*SQLiteDatabase)(nil)
