package service

import (
	"errors"

	"github.com/mmynk/groupdo/internal/auth"
)

var (
	// ErrNotFound is returned when an operation names a todo, group or
	// member that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the acting user may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	ErrDuplicateGroupName = errors.New("that group name is taken")
	ErrBadGroupPassword   = errors.New("incorrect group password")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrNoSuchUser is shared with the auth package so callers can match
	// either source with one errors.Is.
	ErrNoSuchUser = auth.ErrNoSuchUser
)
