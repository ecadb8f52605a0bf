package dummydb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/classfence/core/tracking"
)

type recordRepository struct {
	db *recordTable
}

var _ tracking.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) tracking.Repository {
	return &recordRepository{db: db.record}
}

func (repo *recordRepository) GetRecord(_ context.Context, subjectID, boundaryID string) (tracking.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[recordKey{subjectID, boundaryID}]; ok {
		return rec.Clone(), nil
	}
	return tracking.Record{}, tracking.ErrNotFound
}

func (repo *recordRepository) QueryRecords(_ context.Context, filter tracking.RecordFilter) ([]tracking.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]tracking.Record, 0)
	for key, rec := range repo.db.table {
		if filter.SubjectID != "" && key.subjectID != filter.SubjectID {
			continue
		}
		if filter.BoundaryID != "" && key.boundaryID != filter.BoundaryID {
			continue
		}
		recs = append(recs, rec.Clone())
	}
	return recs, nil
}

func (repo *recordRepository) SaveRecord(_ context.Context, rec tracking.Record) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := recordKey{rec.SubjectID, rec.BoundaryID}
	clone := rec.Clone()
	if stored, ok := repo.db.table[key]; ok {
		if stored.Version >= rec.Version {
			return errors.Wrapf(tracking.ErrVersionConflict, "record %s/%s: version %d, stored %d",
				rec.SubjectID, rec.BoundaryID, rec.Version, stored.Version)
		}
		for _, a := range stored.Alerts {
			if i, ok := clone.FindAlert(a.ID); ok && a.Resolved {
				clone.Alerts[i].Resolved = true
			}
		}
	}
	repo.db.table[key] = &clone
	return nil
}

func (repo *recordRepository) QueryUnresolvedAlerts(_ context.Context) ([]tracking.AlertEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	alerts := make([]tracking.AlertEntry, 0)
	for _, rec := range repo.db.table {
		for _, a := range rec.Alerts {
			if !a.Resolved {
				alerts = append(alerts, tracking.AlertEntry{SubjectID: rec.SubjectID, BoundaryID: rec.BoundaryID, Alert: a})
			}
		}
	}
	return alerts, nil
}
