package domain

import "errors"

var (
	ErrNotFound          = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already in use")
	ErrDuplicateRateDate = errors.New("rate change already exists for that effective date")
	ErrNegativeRate      = errors.New("rate must not be negative")
)
