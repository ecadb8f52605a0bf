package tracking

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	msgReturned    = "Student returned to classroom"
	msgLongAbsence = "Student outside classroom for %.1f minutes"
)

// advance applies the sample s, checked against boundary b, to rec and returns the alerts it emitted.
// rec must be a working copy: on error it is left in an undefined state and must be discarded.
// A record with an empty Status has never seen a sample.
func advance(rec *Record, b Boundary, s Sample, newID func() string) ([]Alert, error) {
	d, within := b.Contains(s.Coordinate)
	var emitted []Alert

	switch prev := rec.Status; {
	case prev == "":
		if within {
			rec.Status, rec.Attendance = StatusInside, AttendancePresent
		} else {
			rec.openSession(s.Timestamp, d)
			rec.Status, rec.Attendance = StatusJustLeft, AttendanceLeft
		}

	case within && prev == StatusInside:
		rec.Attendance = AttendancePresent

	case within:
		if err := rec.closeSession(s.Timestamp); err != nil {
			return nil, errors.Wrapf(err, "closing session (status: %s)", prev)
		}
		rec.Status, rec.Attendance = StatusInside, AttendanceReturned
		emitted = append(emitted, Alert{
			ID:        newID(),
			Type:      AlertReturned,
			Timestamp: s.Timestamp,
			Location:  s.Coordinate,
			Distance:  d,
			Message:   msgReturned,
			Resolved:  true,
		})

	case prev == StatusInside:
		rec.openSession(s.Timestamp, d)
		rec.Status, rec.Attendance = StatusJustLeft, AttendanceLeft

	default: // still outside
		if rec.Session == nil {
			return nil, errors.Wrapf(ErrNoOpenSession, "tracking absence (status: %s)", prev)
		}
		rec.Session.track(d)

		if elapsed := rec.Session.Elapsed(s.Timestamp); elapsed >= LongAbsenceThreshold {
			rec.Status, rec.Attendance = StatusLongAbsence, AttendanceLongAbsence
			if !rec.Session.AlertSent {
				rec.Session.AlertSent = true
				emitted = append(emitted, Alert{
					ID:        newID(),
					Type:      AlertLongAbsence,
					Timestamp: s.Timestamp,
					Location:  s.Coordinate,
					Distance:  d,
					Message:   fmt.Sprintf(msgLongAbsence, elapsed.Minutes()),
				})
			}
		} else if prev == StatusJustLeft {
			rec.Status = StatusOutside
		}
	}

	rec.SubjectID = s.SubjectID
	rec.BoundaryID = b.ID
	rec.Boundary = b
	rec.Position = s.Coordinate
	rec.Accuracy = s.Accuracy
	rec.Distance = d
	rec.LastUpdate = s.Timestamp
	rec.History.Push(HistoryPoint{
		Location:  s.Coordinate,
		Accuracy:  s.Accuracy,
		Distance:  d,
		Status:    rec.Status,
		Timestamp: s.Timestamp,
	})
	rec.Alerts = append(rec.Alerts, emitted...)
	rec.Version++
	return emitted, nil
}

// validateSample rejects s if its coordinate is invalid or if it is older than latest.
func validateSample(s Sample, latest time.Time) error {
	if !s.Coordinate.Valid() {
		return errors.Wrapf(ErrInvalidCoordinate, "(%v, %v)", s.Coordinate.Lat, s.Coordinate.Lng)
	}
	if s.Timestamp.Before(latest) {
		return errors.Wrapf(ErrStaleSample, "%s < %s", s.Timestamp.Format(time.RFC3339), latest.Format(time.RFC3339))
	}
	return nil
}
