// Package services exposes the operations pages need, built on the API
// client: it validates every payload and returns typed records.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mgmu/hortus-tracker/internal/errs"
	"go.uber.org/zap"
)

// API is the subset of the HTTP client wrapper used by the services.
type API interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// checked logs the cause of a validation failure and returns err unchanged.
func checked(logger *zap.Logger, what string, err error) error {
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		logger.Error("invalid data from server",
			zap.String("payload", what),
			zap.Error(verr.Cause),
		)
	}
	return err
}

// requireName trims name and rejects it when blank.
func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.Domain("Name is required")
	}
	return name, nil
}
