package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound        = errors.New("resource not found") // General not found
	ErrSessionNotFound = errors.New("assessment session not found")
	ErrTaskNotFound    = errors.New("task definition not found")

	// User & Authentication Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Assessment Errors
	ErrTooManySessions   = errors.New("user already has the maximum number of active sessions")
	ErrNotASubTaskParent = errors.New("task has no dependent sub-tasks")
	ErrTaskNotEligible   = errors.New("task conditions do not match the current answers")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")

	// Add other specific errors as needed
)
