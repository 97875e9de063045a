package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrForbidden = errors.New("user does not have permission to access this resource")
var ErrConflict = errors.New("resource was modified concurrently, retry the operation")
var ErrUnauthenticated = errors.New("operation requires an authenticated user")
var ErrInvalidToken = errors.New("token not found or expired")
var ErrInvalidCredentials = errors.New("invalid credentials") // email or password provided does not match database record
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidTransition indicates a status change that is not allowed from the
// request's current status, e.g. completing a request that was never accepted.
var ErrInvalidTransition = errors.New("status transition not allowed from current status")

// ErrAlreadyRated indicates feedback has already been recorded for the request.
var ErrAlreadyRated = errors.New("request has already been rated")

// ErrorResponse is the standard JSON error body returned by handlers.
type ErrorResponse struct {
	Message string `json:"message"`
}
