package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classfence/core/tracking"
)

const boundaryQuery = `
SELECT c.id, c.name, c.center_lat, c.center_lng, c.radius
FROM class_students cs
JOIN classes c ON c.id = cs.class_id
WHERE cs.student_id = $1 AND cs.active
ORDER BY cs.enrolled_at DESC
LIMIT 1`

type classRow struct {
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	CenterLat float64      `db:"center_lat"`
	CenterLng float64      `db:"center_lng"`
	Radius    null.Float64 `db:"radius"` // NULL: use the default radius
}

type boundaryRegistry struct {
	db *sqlx.DB
}

var _ tracking.BoundaryRegistry = (*boundaryRegistry)(nil) // interface compliance check

func NewBoundaryRegistry(db *sql.DB) tracking.BoundaryRegistry {
	return &boundaryRegistry{db: sqlx.NewDb(db, driverName)}
}

// BoundaryFor returns the class the subject was most recently enrolled in.
func (reg *boundaryRegistry) BoundaryFor(ctx context.Context, subjectID string) (tracking.Boundary, error) {
	var row classRow
	if err := reg.db.GetContext(ctx, &row, boundaryQuery, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return tracking.Boundary{}, errors.Wrapf(tracking.ErrNoBoundaryAssigned, "subject %q", subjectID)
		}
		return tracking.Boundary{}, wrapErr(err, "selecting class")
	}
	return tracking.Boundary{
		ID:     row.ID,
		Name:   row.Name,
		Center: tracking.Coordinate{Lat: row.CenterLat, Lng: row.CenterLng},
		Radius: row.Radius.Float64,
	}, nil
}
