package tracking

import "time"

const (
	snapshotHistorySize = 10
	snapshotAlertsSize  = 5
)

type (
	IngestResult struct {
		SubjectID       string     `json:"subject_id"`
		ClassID         string     `json:"class_id"`
		Status          Attendance `json:"status"`
		Distance        float64    `json:"distance"` // meters, rounded
		WithinBoundary  bool       `json:"within_boundary"`
		BoundaryStatus  Status     `json:"boundary_status"`
		OutsideDuration float64    `json:"outside_duration"` // minutes
		AlertTriggered  bool       `json:"alert_triggered"`
		Accuracy        *float64   `json:"accuracy"`
		Timestamp       time.Time  `json:"timestamp"`
	}

	Snapshot struct {
		SubjectID       string         `json:"subject_id"`
		ClassID         string         `json:"class_id"`
		Status          Attendance     `json:"status"`
		BoundaryStatus  Status         `json:"boundary_status"`
		Location        Coordinate     `json:"location"`
		Accuracy        *float64       `json:"accuracy"`
		Distance        float64        `json:"distance"`
		WithinBoundary  bool           `json:"within_boundary"`
		OutsideDuration float64        `json:"outside_duration"`
		LastUpdate      time.Time      `json:"last_update"`
		Session         *Session       `json:"session"`
		LastSession     *Session       `json:"last_session"`
		History         []HistoryPoint `json:"history"`
		Alerts          []Alert        `json:"alerts"`
	}

	ClassOverview struct {
		ClassID      string     `json:"class_id"`
		Students     []Snapshot `json:"students"`
		Total        int        `json:"total"`
		Present      int        `json:"present"`
		Outside      int        `json:"outside"`
		ActiveAlerts int        `json:"active_alerts"`
	}
)

func newIngestResult(rec Record, emitted []Alert) IngestResult {
	res := IngestResult{
		SubjectID:       rec.SubjectID,
		ClassID:         rec.BoundaryID,
		Status:          rec.Attendance,
		Distance:        roundMeters(rec.Distance),
		WithinBoundary:  rec.Status == StatusInside,
		BoundaryStatus:  rec.Status,
		OutsideDuration: roundMinutes(rec.OutsideDuration(rec.LastUpdate)),
		Accuracy:        rec.Accuracy,
		Timestamp:       rec.LastUpdate,
	}
	for _, a := range emitted {
		if a.Type == AlertLongAbsence {
			res.AlertTriggered = true
		}
	}
	return res
}

// newSnapshot reports the outside duration as of `now`.
func newSnapshot(rec Record, now time.Time) Snapshot {
	return Snapshot{
		SubjectID:       rec.SubjectID,
		ClassID:         rec.BoundaryID,
		Status:          rec.Attendance,
		BoundaryStatus:  rec.Status,
		Location:        rec.Position,
		Accuracy:        rec.Accuracy,
		Distance:        roundMeters(rec.Distance),
		WithinBoundary:  rec.Status == StatusInside,
		OutsideDuration: roundMinutes(rec.OutsideDuration(now)),
		LastUpdate:      rec.LastUpdate,
		Session:         rec.Session,
		LastSession:     rec.LastSession,
		History:         rec.History.Last(snapshotHistorySize),
		Alerts:          rec.LastAlerts(snapshotAlertsSize),
	}
}

func newAlertEntry(rec Record, a Alert) AlertEntry {
	return AlertEntry{SubjectID: rec.SubjectID, BoundaryID: rec.BoundaryID, Alert: a}
}
