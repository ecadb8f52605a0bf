package dummydb

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/classfence/core/tracking"
)

// rosterClass is one entry of a roster file:
//   [{"id": "class-101", "name": "Room 101", "lat": 12.9716, "lng": 77.5946, "radius": 50, "students": ["s1"]}]
type rosterClass struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Radius   float64  `json:"radius"`
	Students []string `json:"students"`
}

// LoadRoster enrolls the students of every class read from r.
func (db *DB) LoadRoster(r io.Reader) error {
	var classes []rosterClass
	if err := json.NewDecoder(r).Decode(&classes); err != nil {
		return errors.Wrap(err, "decoding roster")
	}
	for _, c := range classes {
		if c.ID == "" {
			return errors.New("roster: class without id")
		}
		b := tracking.Boundary{ID: c.ID, Name: c.Name, Center: tracking.Coordinate{Lat: c.Lat, Lng: c.Lng}, Radius: c.Radius}
		if !b.Center.Valid() {
			return errors.Wrapf(tracking.ErrInvalidCoordinate, "roster: class %q", c.ID)
		}
		for _, s := range c.Students {
			db.AssignBoundary(s, b)
		}
	}
	return nil
}

// LoadRosterFile is LoadRoster on the file at path.
func (db *DB) LoadRosterFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer f.Close()
	return db.LoadRoster(f)
}
