// Package types holds the JSON envelope shapes shared by every endpoint.
package types

// SuccessEnvelope wraps successful payloads under a stable "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body. Details is only populated for codes
// whose metadata allows exposing them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under a stable "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
