package services

import (
	"context"
	"fmt"

	"github.com/mgmu/hortus-tracker/internal/messages"
	"github.com/mgmu/hortus-tracker/internal/plants"
	"github.com/mgmu/hortus-tracker/web/validation"
	"go.uber.org/zap"
)

// UsersService lists, fetches and creates users.
type UsersService struct {
	api    API
	logger *zap.Logger
}

func NewUsersService(api API, logger *zap.Logger) *UsersService {
	return &UsersService{api: api, logger: logger}
}

// List returns every user.
func (s *UsersService) List(ctx context.Context) ([]plants.User, error) {
	data, err := s.api.Get(ctx, "/users")
	if err != nil {
		return nil, err
	}
	users, err := validation.ParseUsers(data)
	return users, checked(s.logger, "users", err)
}

// Get returns the user with the given id.
func (s *UsersService) Get(ctx context.Context, id int64) (plants.User, error) {
	data, err := s.api.Get(ctx, fmt.Sprintf("/users/%d", id))
	if err != nil {
		return plants.User{}, err
	}
	user, err := validation.ParseUser(data)
	return user, checked(s.logger, "user", err)
}

// Create adds a user named name. A blank name is rejected without contacting
// the API.
func (s *UsersService) Create(ctx context.Context, name string) (plants.User, error) {
	name, err := requireName(name)
	if err != nil {
		return plants.User{}, err
	}
	data, err := s.api.Post(ctx, "/users", messages.CreateUserRequest{Name: name})
	if err != nil {
		return plants.User{}, err
	}
	user, err := validation.ParseUser(data)
	return user, checked(s.logger, "user", err)
}
