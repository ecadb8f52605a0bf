package tracking

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/classfence/core"
)

// Ingestion outcomes, as reported to the MetricsRecorder.
const (
	OutcomeAccepted          = "accepted"
	OutcomeInvalidCoordinate = "invalid_coordinate"
	OutcomeStaleSample       = "stale_sample"
	OutcomeNoBoundary        = "no_boundary"
	OutcomeConflict          = "conflict"
	OutcomeError             = "error"
)

type (
	Repository interface {
		// GetRecord returns ErrNotFound if the subject was never tracked within the boundary.
		GetRecord(ctx context.Context, subjectID, boundaryID string) (Record, error)
		// QueryRecords applies AND operation on the non-empty RecordFilter fields.
		QueryRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
		// SaveRecord creates or replaces a record; it returns ErrVersionConflict if the stored Version is not older.
		// An alert resolved in storage stays resolved.
		SaveRecord(ctx context.Context, rec Record) error
		QueryUnresolvedAlerts(ctx context.Context) ([]AlertEntry, error)
	}

	// BoundaryRegistry resolves the boundary a subject is currently assigned to.
	BoundaryRegistry interface {
		// BoundaryFor returns ErrNoBoundaryAssigned if the subject has none.
		BoundaryFor(ctx context.Context, subjectID string) (Boundary, error)
	}

	MetricsRecorder interface {
		ObserveIngest(outcome string, status Status, took time.Duration)
		IncAlert(typ AlertType)
	}

	ServiceInterface interface {
		Ingest(ctx context.Context, s Sample) (IngestResult, error)
		GetStatus(ctx context.Context, subjectID string) (Snapshot, error)
		ClassOverview(ctx context.Context, boundaryID string) (ClassOverview, error)
		ActiveAlerts(ctx context.Context) ([]AlertEntry, error)
		ResolveAlert(ctx context.Context, subjectID, alertID string) (AlertEntry, error)
	}

	Deps struct {
		Repo     Repository
		Registry BoundaryRegistry
		Logger   core.Logger
		Conf     *core.Config
		Mailer   core.EmailService // optional
		Metrics  MetricsRecorder   // optional
		Clock    func() time.Time  // optional
		NewID    func() string     // optional
	}

	Service struct {
		repo     Repository
		registry BoundaryRegistry
		log      core.Logger
		conf     *core.Config
		notifier *staffNotifier
		metrics  MetricsRecorder
		now      func() time.Time
		newID    func() string

		mu       sync.Mutex
		subjects map[string]*subjectEntry
	}

	// subjectEntry serializes the ingestions and alert resolutions of one subject.
	subjectEntry struct {
		mu sync.Mutex
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(deps Deps) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Repo, "Repo"),
		vala.IsNotNil(deps.Registry, "Registry"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Conf, "Conf"),
	).CheckAndPanic()

	svc := &Service{
		repo:     deps.Repo,
		registry: deps.Registry,
		log:      deps.Logger,
		conf:     deps.Conf,
		notifier: newStaffNotifier(deps.Mailer, deps.Conf),
		metrics:  deps.Metrics,
		now:      deps.Clock,
		newID:    deps.NewID,
		subjects: make(map[string]*subjectEntry),
	}
	if svc.metrics == nil {
		svc.metrics = nopMetrics{}
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newID == nil {
		svc.newID = func() string { return uuid.New().String() }
	}
	return svc
}

func (svc *Service) entry(subjectID string) *subjectEntry {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	e, ok := svc.subjects[subjectID]
	if !ok {
		e = new(subjectEntry)
		svc.subjects[subjectID] = e
	}
	return e
}

// Ingest validates s and applies it to the subject's record within its current boundary.
// A zero s.Timestamp defaults to the time of receipt. A rejected sample leaves the record untouched.
func (svc *Service) Ingest(ctx context.Context, s Sample) (res IngestResult, err error) {
	began := svc.now()
	defer func() {
		svc.metrics.ObserveIngest(ingestOutcome(err), res.BoundaryStatus, svc.now().Sub(began))
	}()

	if s.Timestamp.IsZero() {
		s.Timestamp = began
	}
	s.Timestamp = s.Timestamp.UTC()
	if err = validateSample(s, time.Time{}); err != nil {
		svc.log.Debug("sample rejected", err, map[string]interface{}{"subject_id": s.SubjectID})
		return IngestResult{}, err
	}

	b, err := svc.registry.BoundaryFor(ctx, s.SubjectID)
	if err != nil {
		if errors.Cause(err) == ErrNoBoundaryAssigned {
			svc.log.Debug("sample rejected", err, map[string]interface{}{"subject_id": s.SubjectID})
			return IngestResult{}, err
		}
		return IngestResult{}, errors.Wrap(err, "looking up boundary")
	}
	if b.Radius <= 0 {
		b.Radius = svc.conf.Tracking.DefaultRadius
	}

	rec, emitted, err := svc.apply(ctx, b, s)
	if err != nil {
		return IngestResult{}, err
	}

	svc.dispatch(rec, emitted)
	return newIngestResult(rec, emitted), nil
}

// apply runs the state machine on the stored record and saves the outcome, under the subject's lock.
// Nothing is kept in memory: on any error the stored record is left as it was.
func (svc *Service) apply(ctx context.Context, b Boundary, s Sample) (Record, []Alert, error) {
	e := svc.entry(s.SubjectID)
	e.mu.Lock()
	defer e.mu.Unlock()

	current, latest, err := svc.storedRecord(ctx, s.SubjectID, b.ID)
	if err != nil {
		return Record{}, nil, err
	}
	if err = validateSample(s, latest); err != nil {
		svc.log.Debug("sample rejected", err, map[string]interface{}{"subject_id": s.SubjectID})
		return Record{}, nil, err
	}

	working := current.Clone()
	emitted, err := advance(&working, b, s, svc.newID)
	if err != nil {
		svc.log.Error("tracking invariant violated", err, map[string]interface{}{
			"subject_id": s.SubjectID, "class_id": b.ID, "status": current.Status,
		})
		return Record{}, nil, err
	}
	svc.notifier.mark(&working, emitted)

	if err = svc.repo.SaveRecord(ctx, working); err != nil {
		svc.log.Error("saving tracking record", err, map[string]interface{}{
			"subject_id": working.SubjectID, "class_id": working.BoundaryID, "version": working.Version,
		})
		return Record{}, nil, errors.Wrap(err, "saving record")
	}
	return working, emitted, nil
}

// storedRecord loads the subject's record within the boundary (a blank one if never tracked there)
// and the time of the subject's latest accepted sample, whatever the boundary.
func (svc *Service) storedRecord(ctx context.Context, subjectID, boundaryID string) (Record, time.Time, error) {
	recs, err := svc.repo.QueryRecords(ctx, RecordFilter{SubjectID: subjectID})
	if err != nil {
		return Record{}, time.Time{}, errors.Wrap(err, "loading records")
	}

	rec := Record{SubjectID: subjectID, BoundaryID: boundaryID}
	var latest time.Time
	for _, r := range recs {
		if r.BoundaryID == boundaryID {
			rec = r
		}
		if r.LastUpdate.After(latest) {
			latest = r.LastUpdate
		}
	}
	return rec, latest, nil
}

func (svc *Service) dispatch(rec Record, emitted []Alert) {
	for _, a := range emitted {
		svc.metrics.IncAlert(a.Type)
		svc.log.Info(a.Message, map[string]interface{}{
			"subject_id": rec.SubjectID, "class_id": rec.BoundaryID, "alert_id": a.ID, "type": a.Type,
		})
		if a.Type == AlertLongAbsence {
			svc.notifier.notify(rec, a)
		}
	}
}

// GetStatus returns the snapshot of the subject's most recently updated record.
func (svc *Service) GetStatus(ctx context.Context, subjectID string) (Snapshot, error) {
	recs, err := svc.repo.QueryRecords(ctx, RecordFilter{SubjectID: subjectID})
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "querying records")
	}
	if len(recs) == 0 {
		return Snapshot{}, errors.Wrapf(ErrNotFound, "subject %q", subjectID)
	}

	latest := recs[0]
	for _, rec := range recs[1:] {
		if rec.LastUpdate.After(latest.LastUpdate) {
			latest = rec
		}
	}
	return newSnapshot(latest, svc.now()), nil
}

// ClassOverview returns the snapshots of every subject tracked within the boundary.
func (svc *Service) ClassOverview(ctx context.Context, boundaryID string) (ClassOverview, error) {
	recs, err := svc.repo.QueryRecords(ctx, RecordFilter{BoundaryID: boundaryID})
	if err != nil {
		return ClassOverview{}, errors.Wrap(err, "querying records")
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].SubjectID < recs[j].SubjectID })

	now := svc.now()
	ov := ClassOverview{ClassID: boundaryID, Students: make([]Snapshot, 0, len(recs)), Total: len(recs)}
	for _, rec := range recs {
		if rec.Status == StatusInside {
			ov.Present++
		} else {
			ov.Outside++
		}
		if rec.HasActiveAlert() {
			ov.ActiveAlerts++
		}
		ov.Students = append(ov.Students, newSnapshot(rec, now))
	}
	return ov, nil
}

// ActiveAlerts lists the unresolved alerts of all subjects, newest first.
func (svc *Service) ActiveAlerts(ctx context.Context) ([]AlertEntry, error) {
	alerts, err := svc.repo.QueryUnresolvedAlerts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying alerts")
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Timestamp.After(alerts[j].Timestamp) })
	return alerts, nil
}

// ResolveAlert marks the subject's alert as resolved. Resolving a resolved alert is a no-op.
func (svc *Service) ResolveAlert(ctx context.Context, subjectID, alertID string) (AlertEntry, error) {
	e := svc.entry(subjectID)
	e.mu.Lock()
	defer e.mu.Unlock()

	recs, err := svc.repo.QueryRecords(ctx, RecordFilter{SubjectID: subjectID})
	if err != nil {
		return AlertEntry{}, errors.Wrap(err, "querying records")
	}
	for _, rec := range recs {
		i, ok := rec.FindAlert(alertID)
		if !ok {
			continue
		}
		if rec.Alerts[i].Resolved {
			return newAlertEntry(rec, rec.Alerts[i]), nil
		}

		working := rec.Clone()
		working.Alerts[i].Resolved = true
		working.Version++
		if err = svc.repo.SaveRecord(ctx, working); err != nil {
			svc.log.Error("saving tracking record", err, map[string]interface{}{
				"subject_id": rec.SubjectID, "class_id": rec.BoundaryID, "alert_id": alertID,
			})
			return AlertEntry{}, errors.Wrap(err, "saving record")
		}
		return newAlertEntry(working, working.Alerts[i]), nil
	}
	return AlertEntry{}, errors.Wrapf(ErrNotFound, "alert %q of subject %q", alertID, subjectID)
}

func ingestOutcome(err error) string {
	switch errors.Cause(err) {
	case nil:
		return OutcomeAccepted
	case ErrInvalidCoordinate:
		return OutcomeInvalidCoordinate
	case ErrStaleSample:
		return OutcomeStaleSample
	case ErrNoBoundaryAssigned:
		return OutcomeNoBoundary
	case ErrVersionConflict:
		return OutcomeConflict
	default:
		return OutcomeError
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveIngest(string, Status, time.Duration) {}
func (nopMetrics) IncAlert(AlertType)                          {}

func roundMinutes(d time.Duration) float64 {
	return core.Round(d.Minutes(), 2)
}

func roundMeters(d float64) float64 {
	return math.Round(d)
}
