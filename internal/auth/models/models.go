// Package models holds the request and response shapes of the auth API.
package models

// Credentials is the payload of sign-up and password sign-in. Both fields are
// checked before any provider call; password content is never logged.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// StatusResponse is the uniform success envelope.
type StatusResponse struct {
	Status string `json:"status"`
}

// Success is the body every successful auth operation responds with.
func Success() StatusResponse {
	return StatusResponse{Status: "success"}
}
