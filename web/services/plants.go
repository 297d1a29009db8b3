package services

import (
	"context"
	"fmt"

	"github.com/mgmu/hortus-tracker/internal/messages"
	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/mgmu/hortus-tracker/web/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxEnhancers bounds the number of event histories fetched at once.
const maxEnhancers = 8

// PlantsService lists, fetches, creates and renames plants. Plants returned
// by List, Get and Rename carry fertilizer state derived from their history.
type PlantsService struct {
	api    API
	events *EventsService
	logger *zap.Logger
}

func NewPlantsService(api API, events *EventsService, logger *zap.Logger) *PlantsService {
	return &PlantsService{api: api, events: events, logger: logger}
}

func plantsPath(userId int64) string {
	return fmt.Sprintf("/users/%d/plants", userId)
}

func plantPath(userId, plantId int64) string {
	return fmt.Sprintf("/users/%d/plants/%d", userId, plantId)
}

// List returns the plants of a user.
func (s *PlantsService) List(ctx context.Context, userId int64) ([]plants.Plant, error) {
	data, err := s.api.Get(ctx, plantsPath(userId))
	if err != nil {
		return nil, err
	}
	ps, err := validation.ParsePlants(data)
	if err != nil {
		return nil, checked(s.logger, "plants", err)
	}
	return s.enhanceAll(ctx, userId, ps), nil
}

// Get returns one plant of a user.
func (s *PlantsService) Get(ctx context.Context, userId, plantId int64) (plants.Plant, error) {
	data, err := s.api.Get(ctx, plantPath(userId, plantId))
	if err != nil {
		return plants.Plant{}, err
	}
	p, err := validation.ParsePlant(data)
	if err != nil {
		return plants.Plant{}, checked(s.logger, "plant", err)
	}
	return s.enhance(ctx, userId, p), nil
}

// Create adds a plant named name to a user. The new plant has no history and
// is returned as the API sent it.
func (s *PlantsService) Create(ctx context.Context, userId int64, name string) (plants.Plant, error) {
	name, err := requireName(name)
	if err != nil {
		return plants.Plant{}, err
	}
	data, err := s.api.Post(ctx, plantsPath(userId), messages.CreatePlantRequest{Name: name})
	if err != nil {
		return plants.Plant{}, err
	}
	p, err := validation.ParsePlant(data)
	return p, checked(s.logger, "plant", err)
}

// Rename changes the name of a plant.
func (s *PlantsService) Rename(ctx context.Context, userId, plantId int64, name string) (plants.Plant, error) {
	name, err := requireName(name)
	if err != nil {
		return plants.Plant{}, err
	}
	data, err := s.api.Put(ctx, plantPath(userId, plantId), messages.UpdatePlantRequest{Name: name})
	if err != nil {
		return plants.Plant{}, err
	}
	p, err := validation.ParsePlant(data)
	if err != nil {
		return plants.Plant{}, checked(s.logger, "plant", err)
	}
	return s.enhance(ctx, userId, p), nil
}

// enhance derives the care state of p from its event history. When the
// history cannot be fetched p is returned unchanged.
func (s *PlantsService) enhance(ctx context.Context, userId int64, p plants.Plant) plants.Plant {
	events, err := s.events.List(ctx, userId, p.Id)
	if err != nil {
		s.logger.Warn("loading plant history failed",
			zap.Int64("user_id", userId),
			zap.Int64("plant_id", p.Id),
			zap.Error(err),
		)
		return p
	}
	return plants.WithCareHistory(p, events)
}

func (s *PlantsService) enhanceAll(ctx context.Context, userId int64, ps []plants.Plant) []plants.Plant {
	out := make([]plants.Plant, len(ps))
	var g errgroup.Group
	g.SetLimit(maxEnhancers)
	for i, p := range ps {
		g.Go(func() error {
			out[i] = s.enhance(ctx, userId, p)
			return nil
		})
	}
	g.Wait()
	return out
}
