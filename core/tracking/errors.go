package tracking

import "github.com/pkg/errors"

var (
	// errors
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrStaleSample        = errors.New("sample is older than the latest accepted sample")
	ErrNoBoundaryAssigned = errors.New("no boundary assigned")
	ErrNoOpenSession      = errors.New("no open session")
	ErrNotFound           = errors.New("not found")
	ErrVersionConflict    = errors.New("record was updated concurrently")
)
