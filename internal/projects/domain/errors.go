package domain

import "errors"

var (
	ErrNotFound       = errors.New("project not found")
	ErrBudgetNotFound = errors.New("budget not set for project")
)
