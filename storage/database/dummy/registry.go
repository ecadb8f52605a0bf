package dummydb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classfence/core/tracking"
)

type boundaryRegistry struct {
	db *classTable
}

var _ tracking.BoundaryRegistry = (*boundaryRegistry)(nil) // interface compliance check

func NewBoundaryRegistry(db *DB) tracking.BoundaryRegistry {
	return &boundaryRegistry{db: db.class}
}

func (reg *boundaryRegistry) BoundaryFor(_ context.Context, subjectID string) (tracking.Boundary, error) {
	reg.db.RLock()
	defer reg.db.RUnlock()

	classID, ok := reg.db.students[subjectID]
	if !ok {
		return tracking.Boundary{}, errors.Wrapf(tracking.ErrNoBoundaryAssigned, "subject %q", subjectID)
	}
	b, ok := reg.db.classes[classID]
	if !ok {
		return tracking.Boundary{}, errors.Wrapf(tracking.ErrNoBoundaryAssigned, "class %q", classID)
	}
	return b, nil
}
