// Package validation turns raw API payloads into typed records. A payload
// that does not match its schema is rejected as a whole with an
// *errs.ValidationError; partial records are never returned.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mgmu/hortus-tracker/internal/errs"
	"github.com/mgmu/hortus-tracker/internal/plants"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Layouts accepted for dates, tried in order. Values without a zone are read
// as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

type wireUser struct {
	Id     *int64  `json:"id" validate:"required"`
	Name   *string `json:"name" validate:"required"`
	Colour *string `json:"colour" validate:"required"`
}

type wireEvent struct {
	Id        *int64  `json:"id" validate:"required"`
	PlantId   *int64  `json:"plantId" validate:"required"`
	TypeId    *int    `json:"typeId" validate:"required,oneof=1 2"`
	Note      *string `json:"note"`
	Timestamp *string `json:"timestamp" validate:"required"`
}

type wirePlant struct {
	Id                  *int64     `json:"id" validate:"required"`
	UserId              *int64     `json:"userId"`
	Name                *string    `json:"name" validate:"required"`
	LastWaterEvent      *wireEvent `json:"lastWaterEvent"`
	NextWaterDue        *string    `json:"nextWaterDue"`
	LastFertilizerEvent *wireEvent `json:"lastFertilizerEvent"`
	NextFertilizerDue   *string    `json:"nextFertilizerDue"`
}

func invalid(format string, args ...any) error {
	return &errs.ValidationError{Cause: fmt.Errorf(format, args...)}
}

// decode unmarshals raw into v and checks its validate tags.
func decode(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return invalid("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalid("decoding payload: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return invalid("%w", err)
	}
	return nil
}

// decodeList unmarshals a JSON array into elements. A null array is empty.
func decodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, invalid("decoding list: %w", err)
	}
	return elems, nil
}

// parseDate reads an optional date. A missing or empty value is nil; a value
// in no accepted layout is an error.
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, invalid("%s: invalid datetime %q", field, *s)
}

// ParseUser validates a single user.
func ParseUser(raw json.RawMessage) (plants.User, error) {
	var w wireUser
	if err := decode(raw, &w); err != nil {
		return plants.User{}, err
	}
	return plants.User{Id: *w.Id, Name: *w.Name, Colour: *w.Colour}, nil
}

// ParseUsers validates a list of users.
func ParseUsers(raw json.RawMessage) ([]plants.User, error) {
	return parseList(raw, ParseUser)
}

// ParseEvent validates a single care event.
func ParseEvent(raw json.RawMessage) (plants.Event, error) {
	var w wireEvent
	if err := decode(raw, &w); err != nil {
		return plants.Event{}, err
	}
	return w.event("event")
}

func (w *wireEvent) event(field string) (plants.Event, error) {
	ts, err := parseDate(field+".timestamp", w.Timestamp)
	if err != nil {
		return plants.Event{}, err
	}
	if ts == nil {
		return plants.Event{}, invalid("%s.timestamp: missing", field)
	}
	e := plants.Event{
		Id:        *w.Id,
		PlantId:   *w.PlantId,
		Type:      plants.EventType(*w.TypeId),
		Timestamp: *ts,
	}
	if w.Note != nil {
		e.Note = *w.Note
	}
	return e, nil
}

// ParseEvents validates a list of care events.
func ParseEvents(raw json.RawMessage) ([]plants.Event, error) {
	return parseList(raw, ParseEvent)
}

// ParsePlant validates a single plant.
func ParsePlant(raw json.RawMessage) (plants.Plant, error) {
	var w wirePlant
	if err := decode(raw, &w); err != nil {
		return plants.Plant{}, err
	}
	p := plants.Plant{Id: *w.Id, Name: *w.Name}
	if w.UserId != nil {
		p.UserId = *w.UserId
	}

	var err error
	if p.LastWaterEvent, err = optionalEvent("lastWaterEvent", w.LastWaterEvent); err != nil {
		return plants.Plant{}, err
	}
	if p.NextWaterDue, err = parseDate("nextWaterDue", w.NextWaterDue); err != nil {
		return plants.Plant{}, err
	}
	if p.LastFertilizerEvent, err = optionalEvent("lastFertilizerEvent", w.LastFertilizerEvent); err != nil {
		return plants.Plant{}, err
	}
	if p.NextFertilizerDue, err = parseDate("nextFertilizerDue", w.NextFertilizerDue); err != nil {
		return plants.Plant{}, err
	}
	return p, nil
}

func optionalEvent(field string, w *wireEvent) (*plants.Event, error) {
	if w == nil {
		return nil, nil
	}
	e, err := w.event(field)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ParsePlants validates a list of plants.
func ParsePlants(raw json.RawMessage) ([]plants.Plant, error) {
	return parseList(raw, ParsePlant)
}

func parseList[T any](raw json.RawMessage, parse func(json.RawMessage) (T, error)) ([]T, error) {
	elems, err := decodeList(raw)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		v, err := parse(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
