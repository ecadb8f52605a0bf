package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/core/tracking"
)

const driverName = "postgres"

const (
	recordColumns = `subject_id, class_id, class_name, center_lat, center_lng, radius, lat, lng, accuracy,
	distance, boundary_status, attendance, session, last_session, history, last_update, version`

	alertColumns = `id, subject_id, class_id, type, created_at, lat, lng, distance, message, staff_notified, resolved`

	upsertRecordQuery = `
INSERT INTO tracking_records (` + recordColumns + `)
VALUES (:subject_id, :class_id, :class_name, :center_lat, :center_lng, :radius, :lat, :lng, :accuracy,
	:distance, :boundary_status, :attendance, :session, :last_session, :history, :last_update, :version)
ON CONFLICT (subject_id, class_id) DO UPDATE SET
	class_name = EXCLUDED.class_name,
	center_lat = EXCLUDED.center_lat,
	center_lng = EXCLUDED.center_lng,
	radius = EXCLUDED.radius,
	lat = EXCLUDED.lat,
	lng = EXCLUDED.lng,
	accuracy = EXCLUDED.accuracy,
	distance = EXCLUDED.distance,
	boundary_status = EXCLUDED.boundary_status,
	attendance = EXCLUDED.attendance,
	session = EXCLUDED.session,
	last_session = EXCLUDED.last_session,
	history = EXCLUDED.history,
	last_update = EXCLUDED.last_update,
	version = EXCLUDED.version
WHERE tracking_records.version < EXCLUDED.version`

	upsertAlertQuery = `
INSERT INTO tracking_alerts (` + alertColumns + `)
VALUES (:id, :subject_id, :class_id, :type, :created_at, :lat, :lng, :distance, :message, :staff_notified, :resolved)
ON CONFLICT (id) DO UPDATE SET
	staff_notified = tracking_alerts.staff_notified OR EXCLUDED.staff_notified,
	resolved = tracking_alerts.resolved OR EXCLUDED.resolved`

	storedAlertsQuery = `SELECT id, staff_notified, resolved FROM tracking_alerts WHERE subject_id = $1 AND class_id = $2`

	// empty filters match everything
	recordFilterClause = `($1 = '' OR subject_id = $1) AND ($2 = '' OR class_id = $2)`
)

type (
	recordRow struct {
		SubjectID      string         `db:"subject_id"`
		ClassID        string         `db:"class_id"`
		ClassName      string         `db:"class_name"`
		CenterLat      float64        `db:"center_lat"`
		CenterLng      float64        `db:"center_lng"`
		Radius         float64        `db:"radius"`
		Lat            float64        `db:"lat"`
		Lng            float64        `db:"lng"`
		Accuracy       null.Float64   `db:"accuracy"`
		Distance       float64        `db:"distance"`
		BoundaryStatus string         `db:"boundary_status"`
		Attendance     string         `db:"attendance"`
		Session        null.JSON      `db:"session"`
		LastSession    null.JSON      `db:"last_session"`
		History        types.JSONText `db:"history"`
		LastUpdate     time.Time      `db:"last_update"`
		Version        int64          `db:"version"`
	}

	alertRow struct {
		ID            string    `db:"id" boil:"id"`
		SubjectID     string    `db:"subject_id" boil:"subject_id"`
		ClassID       string    `db:"class_id" boil:"class_id"`
		Type          string    `db:"type" boil:"type"`
		CreatedAt     time.Time `db:"created_at" boil:"created_at"`
		Lat           float64   `db:"lat" boil:"lat"`
		Lng           float64   `db:"lng" boil:"lng"`
		Distance      float64   `db:"distance" boil:"distance"`
		Message       string    `db:"message" boil:"message"`
		StaffNotified bool      `db:"staff_notified" boil:"staff_notified"`
		Resolved      bool      `db:"resolved" boil:"resolved"`
	}

	// alertFlags are the only mutable columns of an alert.
	alertFlags struct {
		ID            string `db:"id"`
		StaffNotified bool   `db:"staff_notified"`
		Resolved      bool   `db:"resolved"`
	}

	recordKey struct {
		subjectID string
		classID   string
	}
)

type recordRepository struct {
	db *sqlx.DB
}

var _ tracking.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *sql.DB) tracking.Repository {
	return &recordRepository{db: sqlx.NewDb(db, driverName)}
}

func (repo *recordRepository) GetRecord(ctx context.Context, subjectID, boundaryID string) (tracking.Record, error) {
	if subjectID == "" || boundaryID == "" {
		return tracking.Record{}, tracking.ErrNotFound
	}
	recs, err := repo.QueryRecords(ctx, tracking.RecordFilter{SubjectID: subjectID, BoundaryID: boundaryID})
	if err != nil {
		return tracking.Record{}, err
	}
	if len(recs) == 0 {
		return tracking.Record{}, tracking.ErrNotFound
	}
	return recs[0], nil
}

func (repo *recordRepository) QueryRecords(ctx context.Context, filter tracking.RecordFilter) ([]tracking.Record, error) {
	var rows []recordRow
	q := "SELECT " + recordColumns + " FROM tracking_records WHERE " + recordFilterClause
	if err := repo.db.SelectContext(ctx, &rows, q, filter.SubjectID, filter.BoundaryID); err != nil {
		return nil, wrapErr(err, "selecting records")
	}
	if len(rows) == 0 {
		return []tracking.Record{}, nil
	}

	var alerts []alertRow
	q = "SELECT " + alertColumns + " FROM tracking_alerts WHERE " + recordFilterClause +
		" ORDER BY " + core.DBOrdering{Field: "created_at", Ascending: true}.String() + ", id"
	if err := repo.db.SelectContext(ctx, &alerts, q, filter.SubjectID, filter.BoundaryID); err != nil {
		return nil, wrapErr(err, "selecting alerts")
	}
	alertsByRecord := make(map[recordKey][]tracking.Alert, len(rows))
	for _, a := range alerts {
		key := recordKey{a.SubjectID, a.ClassID}
		alertsByRecord[key] = append(alertsByRecord[key], a.toAlert())
	}

	recs := make([]tracking.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		rec.Alerts = alertsByRecord[recordKey{row.SubjectID, row.ClassID}]
		recs = append(recs, rec)
	}
	return recs, nil
}

// SaveRecord upserts the record and its new or changed alerts in one transaction,
// unless the stored version is not older.
func (repo *recordRepository) SaveRecord(ctx context.Context, rec tracking.Record) error {
	row, err := newRecordRow(rec)
	if err != nil {
		return err
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.NamedExecContext(ctx, upsertRecordQuery, row)
	if err != nil {
		return wrapErr(err, "upserting record")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err, "upserting record")
	}
	if affected == 0 {
		return errors.Wrapf(tracking.ErrVersionConflict, "record %s/%s at version %d", rec.SubjectID, rec.BoundaryID, rec.Version)
	}

	var stored []alertFlags
	if err = tx.SelectContext(ctx, &stored, storedAlertsQuery, rec.SubjectID, rec.BoundaryID); err != nil {
		return wrapErr(err, "selecting alerts")
	}
	for _, a := range changedAlerts(rec.Alerts, stored) {
		if _, err = tx.NamedExecContext(ctx, upsertAlertQuery, newAlertRow(rec, a)); err != nil {
			return wrapErr(err, "upserting alert")
		}
	}
	return wrapErr(tx.Commit(), "committing transaction")
}

// changedAlerts returns the alerts that are not stored yet or whose flags were raised since.
func changedAlerts(alerts []tracking.Alert, stored []alertFlags) []tracking.Alert {
	flags := make(map[string]alertFlags, len(stored))
	for _, f := range stored {
		flags[f.ID] = f
	}
	var changed []tracking.Alert
	for _, a := range alerts {
		f, ok := flags[a.ID]
		if !ok || (a.Resolved && !f.Resolved) || (a.StaffNotified && !f.StaffNotified) {
			changed = append(changed, a)
		}
	}
	return changed
}

func (repo *recordRepository) QueryUnresolvedAlerts(ctx context.Context) ([]tracking.AlertEntry, error) {
	var rows []alertRow
	q := "SELECT " + alertColumns + " FROM tracking_alerts WHERE NOT resolved ORDER BY " +
		core.DBOrdering{Field: "created_at"}.String()
	if err := queries.Raw(q).Bind(ctx, repo.db.DB, &rows); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return []tracking.AlertEntry{}, nil
		}
		return nil, wrapErr(err, "selecting alerts")
	}

	entries := make([]tracking.AlertEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, tracking.AlertEntry{
			SubjectID:  row.SubjectID,
			BoundaryID: row.ClassID,
			Alert:      row.toAlert(),
		})
	}
	return entries, nil
}

func newRecordRow(rec tracking.Record) (recordRow, error) {
	row := recordRow{
		SubjectID:      rec.SubjectID,
		ClassID:        rec.BoundaryID,
		ClassName:      rec.Boundary.Name,
		CenterLat:      rec.Boundary.Center.Lat,
		CenterLng:      rec.Boundary.Center.Lng,
		Radius:         rec.Boundary.Radius,
		Lat:            rec.Position.Lat,
		Lng:            rec.Position.Lng,
		Accuracy:       null.Float64FromPtr(rec.Accuracy),
		Distance:       rec.Distance,
		BoundaryStatus: string(rec.Status),
		Attendance:     string(rec.Attendance),
		LastUpdate:     rec.LastUpdate,
		Version:        rec.Version,
	}

	var err error
	if row.Session, err = marshalSession(rec.Session); err != nil {
		return recordRow{}, err
	}
	if row.LastSession, err = marshalSession(rec.LastSession); err != nil {
		return recordRow{}, err
	}
	if row.History, err = json.Marshal(rec.History); err != nil {
		return recordRow{}, errors.Wrap(err, "marshalling history")
	}
	return row, nil
}

func (row recordRow) toRecord() (tracking.Record, error) {
	rec := tracking.Record{
		SubjectID:  row.SubjectID,
		BoundaryID: row.ClassID,
		Boundary: tracking.Boundary{
			ID:     row.ClassID,
			Name:   row.ClassName,
			Center: tracking.Coordinate{Lat: row.CenterLat, Lng: row.CenterLng},
			Radius: row.Radius,
		},
		Position:   tracking.Coordinate{Lat: row.Lat, Lng: row.Lng},
		Accuracy:   row.Accuracy.Ptr(),
		Distance:   row.Distance,
		Status:     tracking.Status(row.BoundaryStatus),
		Attendance: tracking.Attendance(row.Attendance),
		LastUpdate: row.LastUpdate.UTC(),
		Version:    row.Version,
	}

	var err error
	if rec.Session, err = unmarshalSession(row.Session); err != nil {
		return tracking.Record{}, err
	}
	if rec.LastSession, err = unmarshalSession(row.LastSession); err != nil {
		return tracking.Record{}, err
	}
	if err = row.History.Unmarshal(&rec.History); err != nil {
		return tracking.Record{}, errors.Wrap(err, "unmarshalling history")
	}
	return rec, nil
}

func newAlertRow(rec tracking.Record, a tracking.Alert) alertRow {
	return alertRow{
		ID:            a.ID,
		SubjectID:     rec.SubjectID,
		ClassID:       rec.BoundaryID,
		Type:          string(a.Type),
		CreatedAt:     a.Timestamp,
		Lat:           a.Location.Lat,
		Lng:           a.Location.Lng,
		Distance:      a.Distance,
		Message:       a.Message,
		StaffNotified: a.StaffNotified,
		Resolved:      a.Resolved,
	}
}

func (row alertRow) toAlert() tracking.Alert {
	return tracking.Alert{
		ID:            row.ID,
		Type:          tracking.AlertType(row.Type),
		Timestamp:     row.CreatedAt.UTC(),
		Location:      tracking.Coordinate{Lat: row.Lat, Lng: row.Lng},
		Distance:      row.Distance,
		Message:       row.Message,
		StaffNotified: row.StaffNotified,
		Resolved:      row.Resolved,
	}
}

func marshalSession(s *tracking.Session) (null.JSON, error) {
	if s == nil {
		return null.JSON{}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return null.JSON{}, errors.Wrap(err, "marshalling session")
	}
	return null.JSONFrom(data), nil
}

func unmarshalSession(data null.JSON) (*tracking.Session, error) {
	if !data.Valid {
		return nil, nil
	}
	var s tracking.Session
	if err := json.Unmarshal(data.JSON, &s); err != nil {
		return nil, errors.Wrap(err, "unmarshalling session")
	}
	return &s, nil
}
