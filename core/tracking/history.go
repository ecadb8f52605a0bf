package tracking

import (
	"encoding/json"
	"time"
)

// HistorySize is the number of samples kept per record.
const HistorySize = 50

type (
	HistoryPoint struct {
		Location  Coordinate `json:"location"`
		Accuracy  *float64   `json:"accuracy"`
		Distance  float64    `json:"distance"`
		Status    Status     `json:"boundary_status"`
		Timestamp time.Time  `json:"timestamp"`
	}

	// History is a fixed-size ring of the most recent samples. The zero value is empty and ready to use.
	// Copying a History copies its points.
	History struct {
		buf  [HistorySize]HistoryPoint
		head int // index of the oldest point
		n    int
	}
)

// Push appends p, evicting the oldest point when full.
func (h *History) Push(p HistoryPoint) {
	if h.n < HistorySize {
		h.buf[(h.head+h.n)%HistorySize] = p
		h.n++
		return
	}
	h.buf[h.head] = p
	h.head = (h.head + 1) % HistorySize
}

func (h *History) Len() int { return h.n }

// Points returns all points, oldest first.
func (h *History) Points() []HistoryPoint {
	return h.Last(h.n)
}

// Last returns (at most) the n most recent points, oldest first.
func (h *History) Last(n int) []HistoryPoint {
	if n > h.n {
		n = h.n
	}
	if n < 0 {
		n = 0
	}
	pts := make([]HistoryPoint, 0, n)
	for i := h.n - n; i < h.n; i++ {
		pts = append(pts, h.buf[(h.head+i)%HistorySize])
	}
	return pts
}

func (h History) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Points())
}

func (h *History) UnmarshalJSON(data []byte) error {
	var pts []HistoryPoint
	if err := json.Unmarshal(data, &pts); err != nil {
		return err
	}
	*h = History{}
	for _, p := range pts {
		h.Push(p)
	}
	return nil
}
