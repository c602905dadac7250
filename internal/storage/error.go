package storage

import "errors"

// Error description
const (
	ErrExecuteStatement = "failed to execute statement"
	ErrExecuteQuery     = "failed to execute query"
	ErrScanData         = "failed to scan data"
)

var (
	ErrDeploymentNotFound = errors.New("deployment not found")
	ErrInvalidFilter      = errors.New("invalid filter")
)
