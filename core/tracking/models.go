package tracking

import (
	"time"
)

// LongAbsenceThreshold is the time spent outside after which a session becomes a long absence.
const LongAbsenceThreshold = 5 * time.Minute

// Boundary statuses
const (
	StatusInside      Status = "inside"
	StatusJustLeft    Status = "just_left"
	StatusOutside     Status = "outside"
	StatusLongAbsence Status = "long_absence"
)

// Attendance labels
const (
	AttendancePresent     Attendance = "Present"
	AttendanceLeft        Attendance = "Left"
	AttendanceReturned    Attendance = "Returned"
	AttendanceLongAbsence Attendance = "Long_Absence"
)

// Alert types
const (
	AlertReturned    AlertType = "returned_to_class"
	AlertLongAbsence AlertType = "outside_boundary_5min"
)

type (
	Status     string
	Attendance string
	AlertType  string

	// Boundary is a circular geofence around a class.
	Boundary struct {
		ID     string     `json:"id"`
		Name   string     `json:"name"`
		Center Coordinate `json:"center"`
		Radius float64    `json:"radius"` // meters
	}

	Sample struct {
		SubjectID  string
		Coordinate Coordinate
		Accuracy   *float64
		Timestamp  time.Time
	}

	Alert struct {
		ID            string     `json:"id"`
		Type          AlertType  `json:"type"`
		Timestamp     time.Time  `json:"timestamp"`
		Location      Coordinate `json:"location"`
		Distance      float64    `json:"distance"`
		Message       string     `json:"message"`
		StaffNotified bool       `json:"staff_notified"`
		Resolved      bool       `json:"resolved"`
	}

	// AlertEntry is an alert along with the record it belongs to.
	AlertEntry struct {
		SubjectID  string `json:"subject_id"`
		BoundaryID string `json:"class_id"`
		Alert
	}

	// Record is the tracking state of a subject within one boundary.
	Record struct {
		SubjectID   string
		BoundaryID  string
		Boundary    Boundary
		Position    Coordinate
		Accuracy    *float64
		Distance    float64
		Status      Status
		Attendance  Attendance
		Session     *Session // open session; nil while inside
		LastSession *Session // most recently closed session
		History     History
		Alerts      []Alert
		LastUpdate  time.Time
		Version     int64
	}

	RecordFilter struct {
		SubjectID  string
		BoundaryID string
	}
)

func (b Boundary) Contains(c Coordinate) (float64, bool) {
	d := Distance(b.Center, c)
	return d, d <= b.Radius
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	clone := r
	if r.Session != nil {
		s := r.Session.clone()
		clone.Session = &s
	}
	if r.LastSession != nil {
		s := r.LastSession.clone()
		clone.LastSession = &s
	}
	if r.Alerts != nil {
		clone.Alerts = make([]Alert, len(r.Alerts))
		copy(clone.Alerts, r.Alerts)
	}
	return clone
}

// FindAlert returns the index of the alert with the given ID.
func (r *Record) FindAlert(id string) (int, bool) {
	for i := range r.Alerts {
		if r.Alerts[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// LastAlerts returns (at most) the n most recent alerts, oldest first.
func (r *Record) LastAlerts(n int) []Alert {
	start := len(r.Alerts) - n
	if start < 0 {
		start = 0
	}
	alerts := make([]Alert, len(r.Alerts)-start)
	copy(alerts, r.Alerts[start:])
	return alerts
}

// HasActiveAlert reports whether any of r's alerts is unresolved.
func (r *Record) HasActiveAlert() bool {
	for _, a := range r.Alerts {
		if !a.Resolved {
			return true
		}
	}
	return false
}

// OutsideDuration is the time spent outside since the open session started; 0 if none is open.
func (r *Record) OutsideDuration(at time.Time) time.Duration {
	if r.Session == nil {
		return 0
	}
	return r.Session.Elapsed(at)
}
