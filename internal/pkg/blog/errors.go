package blog

import "errors"

var (
	// ErrPostNotFound is returned when no post matches the requested id
	ErrPostNotFound = errors.New("post not found")

	// ErrMalformedPayload is returned when the request body is not a JSON object
	ErrMalformedPayload = errors.New("malformed payload")
)
