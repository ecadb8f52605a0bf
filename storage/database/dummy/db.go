package dummydb

import (
	"sync"

	"github.com/trezcool/classfence/core/tracking"
)

type (
	DB struct {
		record *recordTable
		class  *classTable
	}

	recordKey struct {
		subjectID  string
		boundaryID string
	}

	recordTable struct {
		sync.RWMutex
		table map[recordKey]*tracking.Record
	}

	// classTable mirrors the roster: classes and their enrolled students.
	classTable struct {
		sync.RWMutex
		classes  map[string]tracking.Boundary // by class ID
		students map[string]string            // subject ID -> class ID
	}
)

func Open() (*DB, error) {
	db := &DB{
		record: &recordTable{table: make(map[recordKey]*tracking.Record)},
		class: &classTable{
			classes:  make(map[string]tracking.Boundary),
			students: make(map[string]string),
		},
	}
	return db, nil
}

// AssignBoundary registers the class b and enrolls the subject in it.
func (db *DB) AssignBoundary(subjectID string, b tracking.Boundary) {
	db.class.Lock()
	defer db.class.Unlock()
	db.class.classes[b.ID] = b
	db.class.students[subjectID] = b.ID
}

// UnassignBoundary removes the subject from its class.
func (db *DB) UnassignBoundary(subjectID string) {
	db.class.Lock()
	defer db.class.Unlock()
	delete(db.class.students, subjectID)
}
