package domain

import "errors"

var (
	ErrSnapshotNotFound = errors.New("budget snapshot not found")
	ErrReportNotCached  = errors.New("report not cached")
)
