package messages

import "encoding/json"

// Response is the envelope wrapping every body sent by the API. Successful
// responses carry Data, failed ones carry Errors.
type Response[T any] struct {
	Data   T        `json:"data"`
	Errors []string `json:"errors,omitempty"`
}

// ErrorResponse is the envelope of a failed request.
type ErrorResponse struct {
	Errors []string `json:"errors"`
}

// RawResponse is the envelope as read by clients that validate Data later.
type RawResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []string        `json:"errors,omitempty"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name string `json:"name"`
}

// CreatePlantRequest is the body of POST /users/{userId}/plants.
type CreatePlantRequest struct {
	Name string `json:"name"`
}

// UpdatePlantRequest is the body of PUT /users/{userId}/plants/{plantId}.
type UpdatePlantRequest struct {
	Name string `json:"name"`
}

// CreateEventRequest is the body of POST
// /users/{userId}/plants/{plantId}/events. EventType holds the integer value
// of a plants.EventType.
type CreateEventRequest struct {
	EventType int    `json:"eventType"`
	Note      string `json:"note"`
}
