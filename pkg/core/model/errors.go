package model

import "errors"

var (
	// ErrRole means the actor lacks the role an operation requires
	ErrRole = errors.New("actor does not have the required role")
	// ErrCapacity means the event has no spots left
	ErrCapacity = errors.New("event is full")
	// ErrDuplicate means the entity already exists (registration for event+volunteer, username)
	ErrDuplicate = errors.New("already exists")
	// ErrOwnership means the actor is not the organizer or recipient of the resource
	ErrOwnership = errors.New("actor does not own this resource")
	// ErrNotFound means the entity is absent or not visible to the actor
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition means the registration cannot move to the requested status
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidInput means attributes failed validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials means the username/password pair did not match
	ErrInvalidCredentials = errors.New("invalid credentials")
)
