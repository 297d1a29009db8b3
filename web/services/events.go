package services

import (
	"context"
	"fmt"

	"github.com/mgmu/hortus-tracker/internal/errs"
	"github.com/mgmu/hortus-tracker/internal/messages"
	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/mgmu/hortus-tracker/web/validation"
	"go.uber.org/zap"
)

// EventsService reads and records care events.
type EventsService struct {
	api    API
	logger *zap.Logger
}

func NewEventsService(api API, logger *zap.Logger) *EventsService {
	return &EventsService{api: api, logger: logger}
}

func eventsPath(userId, plantId int64) string {
	return fmt.Sprintf("/users/%d/plants/%d/events", userId, plantId)
}

// List returns the care history of a plant in the order the API sends it.
func (s *EventsService) List(ctx context.Context, userId, plantId int64) ([]plants.Event, error) {
	data, err := s.api.Get(ctx, eventsPath(userId, plantId))
	if err != nil {
		return nil, err
	}
	events, err := validation.ParseEvents(data)
	return events, checked(s.logger, "events", err)
}

// Create records a care event of type t with an optional note.
func (s *EventsService) Create(ctx context.Context, userId, plantId int64, t plants.EventType, note string) (plants.Event, error) {
	if !t.Valid() {
		return plants.Event{}, errs.Domain("Unknown care action")
	}
	body := messages.CreateEventRequest{EventType: int(t), Note: note}
	data, err := s.api.Post(ctx, eventsPath(userId, plantId), body)
	if err != nil {
		return plants.Event{}, err
	}
	event, err := validation.ParseEvent(data)
	return event, checked(s.logger, "event", err)
}

// Water records a watering with an empty note.
func (s *EventsService) Water(ctx context.Context, userId, plantId int64) (plants.Event, error) {
	return s.Create(ctx, userId, plantId, plants.Water, "")
}

// Fertilize records a fertilizer application with an empty note.
func (s *EventsService) Fertilize(ctx context.Context, userId, plantId int64) (plants.Event, error) {
	return s.Create(ctx, userId, plantId, plants.Fertilize, "")
}
