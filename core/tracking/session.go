package tracking

import (
	"encoding/json"
	"math"
	"time"
)

// Session is one continuous excursion outside a boundary.
type Session struct {
	Start         time.Time     `json:"start"`
	End           *time.Time    `json:"end"`
	Duration      time.Duration `json:"-"`
	MaxDistance   float64       `json:"max_distance"`
	AlertSent     bool          `json:"alert_sent"`
	StaffNotified bool          `json:"staff_notified"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	type session Session
	return json.Marshal(struct {
		session
		DurationMinutes float64 `json:"duration_minutes"`
	}{session(s), s.Duration.Minutes()})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	type session Session
	var ss session
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	*s = Session(ss)
	if s.End != nil {
		s.Duration = s.End.Sub(s.Start)
	}
	return nil
}

func (s *Session) IsOpen() bool { return s.End == nil }

// Elapsed is the time between the start of s and `at` (or its end, once closed).
func (s *Session) Elapsed(at time.Time) time.Duration {
	if !s.IsOpen() {
		return s.Duration
	}
	if at.Before(s.Start) {
		return 0
	}
	return at.Sub(s.Start)
}

func (s *Session) track(d float64) {
	s.MaxDistance = math.Max(s.MaxDistance, d)
}

func (s Session) clone() Session {
	if s.End != nil {
		end := *s.End
		s.End = &end
	}
	return s
}

// openSession starts a session at `at`; the caller ensures none is open.
func (r *Record) openSession(at time.Time, d float64) {
	r.Session = &Session{Start: at, MaxDistance: d}
}

// closeSession ends the open session at `at` and keeps it as the last session.
func (r *Record) closeSession(at time.Time) error {
	if r.Session == nil {
		return ErrNoOpenSession
	}
	s := r.Session
	end := at
	s.End = &end
	s.Duration = end.Sub(s.Start)
	r.LastSession = s
	r.Session = nil
	return nil
}
