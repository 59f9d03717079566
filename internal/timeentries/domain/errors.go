package domain

import "errors"

var (
	ErrNotFound     = errors.New("time entry not found")
	ErrInvalidHours = errors.New("hours must be positive")
	ErrBadReference = errors.New("user or project does not exist")
)
