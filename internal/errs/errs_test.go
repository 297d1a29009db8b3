package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorMessageCarriesStatus(t *testing.T) {
	err := NewAPIError(404)

	assert.Equal(t, "API error: 404 Not Found", err.Error())
	assert.True(t, IsNotFound(fmt.Errorf("loading user: %w", err)))
	assert.False(t, IsNotFound(NewAPIError(500)))
}

func TestValidationErrorIsGeneric(t *testing.T) {
	cause := errors.New(`nextWaterDue: parsing time "not-a-date"`)
	err := error(&ValidationError{Cause: cause})

	assert.Equal(t, "invalid data from server", err.Error())
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, UserMessage(err), "not-a-date")
}

func TestUserMessage(t *testing.T) {
	netErr := &NetworkError{Method: "GET", URL: "http://api/users", Err: errors.New("dial tcp: connection refused")}

	assert.True(t, IsNetwork(netErr))
	assert.NotContains(t, UserMessage(netErr), "connection refused")
	assert.Contains(t, UserMessage(netErr), "Network error")
	assert.Equal(t, "API error: 503 Service Unavailable", UserMessage(NewAPIError(503)))
	assert.Equal(t, "Name is required", UserMessage(Domain("Name is required")))
	assert.Equal(t, "", UserMessage(nil))
}
