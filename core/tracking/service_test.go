package tracking_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/trezcool/classfence/assets"
	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/core/tracking"
	emailsvc "github.com/trezcool/classfence/services/email"
	metricsvc "github.com/trezcool/classfence/services/metrics"
	dummydb "github.com/trezcool/classfence/storage/database/dummy"
	ctest "github.com/trezcool/classfence/tests"
)

var (
	t0      = time.Date(2021, 3, 1, 8, 0, 0, 0, time.UTC)
	center  = ctest.Classroom.Center
	outside = tracking.Coordinate{Lat: 12.9720, Lng: 77.5950}
	far     = tracking.Coordinate{Lat: 12.9740, Lng: 77.5970}
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	db     *dummydb.DB
	repo   tracking.Repository
	clock  *ctest.Clock
	logger *ctest.Logger
	svc    *tracking.Service
}

type option func(*tracking.Deps)

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	db.AssignBoundary("s1", ctest.Classroom)

	f := &fixture{
		db:     db,
		repo:   dummydb.NewRecordRepository(db),
		clock:  ctest.NewClock(t0),
		logger: ctest.NewLogger(),
	}
	deps := tracking.Deps{
		Repo:     f.repo,
		Registry: dummydb.NewBoundaryRegistry(db),
		Logger:   f.logger,
		Conf:     ctest.NewConfig(),
		Clock:    f.clock.Now,
		NewID:    ctest.SequentialIDs(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc = tracking.NewService(deps)
	return f
}

func (f *fixture) ingest(t *testing.T, subjectID string, c tracking.Coordinate, at time.Time) tracking.IngestResult {
	t.Helper()
	f.clock.Set(at)
	res, err := f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: subjectID, Coordinate: c, Timestamp: at})
	require.NoError(t, err)
	return res
}

func (f *fixture) record(t *testing.T, subjectID string) tracking.Record {
	t.Helper()
	rec, err := f.repo.GetRecord(context.Background(), subjectID, ctest.Classroom.ID)
	require.NoError(t, err)
	return rec
}

func TestNewService_missingDeps(t *testing.T) {
	assert.Panics(t, func() { tracking.NewService(tracking.Deps{}) })
}

func TestService_Ingest_scenarios(t *testing.T) {
	f := newFixture(t)

	// A: at the center
	res := f.ingest(t, "s1", center, t0)
	assert.Equal(t, tracking.StatusInside, res.BoundaryStatus)
	assert.Equal(t, tracking.AttendancePresent, res.Status)
	assert.Equal(t, 0.0, res.Distance)
	assert.True(t, res.WithinBoundary)
	assert.Equal(t, ctest.Classroom.ID, res.ClassID)

	// B: just outside
	start := t0.Add(time.Minute)
	res = f.ingest(t, "s1", outside, start)
	assert.Equal(t, tracking.StatusJustLeft, res.BoundaryStatus)
	assert.Equal(t, tracking.AttendanceLeft, res.Status)
	assert.Greater(t, res.Distance, ctest.Classroom.Radius)
	assert.False(t, res.WithinBoundary)
	assert.Equal(t, 0.0, res.OutsideDuration)
	rec := f.record(t, "s1")
	require.NotNil(t, rec.Session)
	assert.Equal(t, start, rec.Session.Start)

	// C: outside for 6 minutes
	res = f.ingest(t, "s1", outside, start.Add(time.Minute))
	assert.Equal(t, tracking.StatusOutside, res.BoundaryStatus)
	res = f.ingest(t, "s1", far, start.Add(3*time.Minute))
	assert.Equal(t, tracking.StatusOutside, res.BoundaryStatus)
	assert.Equal(t, 3.0, res.OutsideDuration)
	assert.False(t, res.AlertTriggered)
	res = f.ingest(t, "s1", far, start.Add(6*time.Minute))
	assert.Equal(t, tracking.StatusLongAbsence, res.BoundaryStatus)
	assert.Equal(t, tracking.AttendanceLongAbsence, res.Status)
	assert.Equal(t, 6.0, res.OutsideDuration)
	assert.True(t, res.AlertTriggered)

	rec = f.record(t, "s1")
	require.Len(t, rec.Alerts, 1)
	assert.Equal(t, tracking.AlertLongAbsence, rec.Alerts[0].Type)
	assert.Equal(t, "Student outside classroom for 6.0 minutes", rec.Alerts[0].Message)
	assert.False(t, rec.Alerts[0].Resolved)

	res = f.ingest(t, "s1", far, start.Add(8*time.Minute))
	assert.False(t, res.AlertTriggered)
	assert.Len(t, f.record(t, "s1").Alerts, 1)

	// D: back at the center
	back := start.Add(8*time.Minute + 10*time.Second)
	res = f.ingest(t, "s1", center, back)
	assert.Equal(t, tracking.StatusInside, res.BoundaryStatus)
	assert.Equal(t, tracking.AttendanceReturned, res.Status)
	assert.Equal(t, 0.0, res.OutsideDuration)
	assert.False(t, res.AlertTriggered)

	rec = f.record(t, "s1")
	assert.Nil(t, rec.Session)
	require.NotNil(t, rec.LastSession)
	assert.Equal(t, back, *rec.LastSession.End)
	assert.InDelta(t, 8.17, rec.LastSession.Duration.Minutes(), 0.01)
	require.Len(t, rec.Alerts, 2)
	assert.Equal(t, tracking.AlertReturned, rec.Alerts[1].Type)
	assert.True(t, rec.Alerts[1].Resolved)
	assert.Equal(t, int64(7), rec.Version)

	// E: invalid latitude
	f.clock.Set(back.Add(time.Minute))
	_, err := f.svc.Ingest(context.Background(), tracking.Sample{
		SubjectID:  "s1",
		Coordinate: tracking.Coordinate{Lat: 200, Lng: 77.5946},
		Timestamp:  back.Add(time.Minute),
	})
	assert.Equal(t, tracking.ErrInvalidCoordinate, errors.Cause(err))
	assert.Equal(t, rec, f.record(t, "s1"))
}

func TestService_Ingest_rejections(t *testing.T) {
	t.Run("no boundary assigned", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "ghost", Coordinate: center, Timestamp: t0})
		assert.Equal(t, tracking.ErrNoBoundaryAssigned, errors.Cause(err))

		_, err = f.repo.GetRecord(context.Background(), "ghost", ctest.Classroom.ID)
		assert.Equal(t, tracking.ErrNotFound, errors.Cause(err))
	})

	t.Run("stale sample", func(t *testing.T) {
		f := newFixture(t)
		f.ingest(t, "s1", outside, t0)
		before := f.record(t, "s1")

		_, err := f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: center, Timestamp: t0.Add(-time.Second)})
		assert.Equal(t, tracking.ErrStaleSample, errors.Cause(err))
		assert.Equal(t, before, f.record(t, "s1"))

		// same timestamp is accepted
		res := f.ingest(t, "s1", center, t0)
		assert.Equal(t, tracking.StatusInside, res.BoundaryStatus)
	})
}

func TestService_Ingest_defaults(t *testing.T) {
	t.Run("timestamp of receipt", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: center})
		require.NoError(t, err)
		assert.Equal(t, t0, res.Timestamp)
	})

	t.Run("timestamp is stored in UTC", func(t *testing.T) {
		f := newFixture(t)
		local := t0.In(time.FixedZone("IST", 5*3600+1800))
		res, err := f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: center, Timestamp: local})
		require.NoError(t, err)
		assert.Equal(t, time.UTC, res.Timestamp.Location())
		assert.True(t, t0.Equal(res.Timestamp))
	})

	t.Run("default radius", func(t *testing.T) {
		f := newFixture(t)
		noRadius := ctest.Classroom
		noRadius.ID, noRadius.Radius = "class-102", 0
		f.db.AssignBoundary("s2", noRadius)

		res := f.ingest(t, "s2", outside, t0)
		assert.Equal(t, tracking.StatusJustLeft, res.BoundaryStatus)
		rec, err := f.repo.GetRecord(context.Background(), "s2", "class-102")
		require.NoError(t, err)
		assert.Equal(t, 50.0, rec.Boundary.Radius)
	})

	t.Run("accuracy", func(t *testing.T) {
		f := newFixture(t)
		acc := 12.5
		res, err := f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: center, Accuracy: &acc, Timestamp: t0})
		require.NoError(t, err)
		require.NotNil(t, res.Accuracy)
		assert.Equal(t, acc, *res.Accuracy)
	})
}

func TestService_Ingest_boundaryChange(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, "s1", center, t0)

	other := tracking.Boundary{ID: "class-202", Name: "Lab", Center: far, Radius: 30}
	f.db.AssignBoundary("s1", other)
	res := f.ingest(t, "s1", far, t0.Add(time.Minute))
	assert.Equal(t, "class-202", res.ClassID)
	assert.Equal(t, tracking.StatusInside, res.BoundaryStatus)

	snap, err := f.svc.GetStatus(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "class-202", snap.ClassID, "the most recently updated record wins")

	// the previous class keeps its record
	rec := f.record(t, "s1")
	assert.Equal(t, t0, rec.LastUpdate)

	// staleness is judged against the subject's latest sample, whatever the class
	f.db.AssignBoundary("s1", ctest.Classroom)
	_, err = f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: center, Timestamp: t0.Add(30 * time.Second)})
	assert.Equal(t, tracking.ErrStaleSample, errors.Cause(err))
	assert.Equal(t, rec, f.record(t, "s1"))
}

func TestService_Ingest_concurrent(t *testing.T) {
	f := newFixture(t)
	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := center
			if i%2 == 0 {
				c = outside
			}
			_, err := f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: c, Timestamp: t0})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	rec := f.record(t, "s1")
	assert.Equal(t, int64(n), rec.Version, "no update is lost")
	assert.Equal(t, n, rec.History.Len())
}

func TestService_GetStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetStatus(context.Background(), "s1")
	assert.Equal(t, tracking.ErrNotFound, errors.Cause(err))

	f.ingest(t, "s1", center, t0)
	for i := 1; i <= 12; i++ {
		f.ingest(t, "s1", outside, t0.Add(time.Duration(i)*time.Minute))
	}
	f.clock.Advance(30 * time.Second)

	snap, err := f.svc.GetStatus(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.SubjectID)
	assert.Equal(t, tracking.StatusLongAbsence, snap.BoundaryStatus)
	assert.Equal(t, outside, snap.Location)
	assert.Equal(t, 11.5, snap.OutsideDuration, "measured up to now")
	assert.Len(t, snap.History, 10)
	assert.Equal(t, t0.Add(12*time.Minute), snap.History[9].Timestamp)
	assert.Len(t, snap.Alerts, 1)
	require.NotNil(t, snap.Session)
	assert.True(t, snap.Session.AlertSent)
}

func TestService_ClassOverview(t *testing.T) {
	f := newFixture(t)
	for _, s := range []string{"s3", "s2"} {
		f.db.AssignBoundary(s, ctest.Classroom)
	}

	f.ingest(t, "s1", center, t0)
	f.ingest(t, "s2", outside, t0)
	f.ingest(t, "s3", outside, t0)
	f.ingest(t, "s3", outside, t0.Add(5*time.Minute))

	ov, err := f.svc.ClassOverview(context.Background(), ctest.Classroom.ID)
	require.NoError(t, err)
	assert.Equal(t, ctest.Classroom.ID, ov.ClassID)
	assert.Equal(t, 3, ov.Total)
	assert.Equal(t, 1, ov.Present)
	assert.Equal(t, 2, ov.Outside)
	assert.Equal(t, 1, ov.ActiveAlerts)
	require.Len(t, ov.Students, 3)
	assert.Equal(t, "s1", ov.Students[0].SubjectID)
	assert.Equal(t, "s2", ov.Students[1].SubjectID)
	assert.Equal(t, "s3", ov.Students[2].SubjectID)

	ov, err = f.svc.ClassOverview(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Equal(t, 0, ov.Total)
	assert.Empty(t, ov.Students)
}

func TestService_alerts(t *testing.T) {
	f := newFixture(t)
	f.db.AssignBoundary("s2", ctest.Classroom)

	f.ingest(t, "s1", outside, t0)
	f.ingest(t, "s2", outside, t0)
	f.ingest(t, "s1", outside, t0.Add(5*time.Minute)) // alert-1
	f.ingest(t, "s2", outside, t0.Add(7*time.Minute)) // alert-2

	alerts, err := f.svc.ActiveAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "alert-2", alerts[0].ID, "newest first")
	assert.Equal(t, "s2", alerts[0].SubjectID)
	assert.Equal(t, "alert-1", alerts[1].ID)

	t.Run("resolve", func(t *testing.T) {
		entry, err := f.svc.ResolveAlert(context.Background(), "s1", "alert-1")
		require.NoError(t, err)
		assert.True(t, entry.Resolved)
		assert.Equal(t, "s1", entry.SubjectID)
		assert.Equal(t, ctest.Classroom.ID, entry.BoundaryID)

		version := f.record(t, "s1").Version
		entry, err = f.svc.ResolveAlert(context.Background(), "s1", "alert-1")
		require.NoError(t, err, "resolving twice is a no-op")
		assert.True(t, entry.Resolved)
		assert.Equal(t, version, f.record(t, "s1").Version)

		alerts, err := f.svc.ActiveAlerts(context.Background())
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, "alert-2", alerts[0].ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := f.svc.ResolveAlert(context.Background(), "s1", "alert-2")
		assert.Equal(t, tracking.ErrNotFound, errors.Cause(err), "alert-2 belongs to s2")
		_, err = f.svc.ResolveAlert(context.Background(), "nobody", "alert-1")
		assert.Equal(t, tracking.ErrNotFound, errors.Cause(err))
	})

	t.Run("resolution survives the next sample", func(t *testing.T) {
		f.ingest(t, "s1", far, t0.Add(9*time.Minute))
		rec := f.record(t, "s1")
		require.Len(t, rec.Alerts, 1)
		assert.True(t, rec.Alerts[0].Resolved)
	})
}

func TestService_staffNotification(t *testing.T) {
	conf := ctest.NewConfig("dean@school.test")
	tmpls, err := core.ParseEmailTemplates(assets.EmailTemplates(), true)
	require.NoError(t, err)
	mailer := emailsvc.NewConsoleServiceMock(tmpls, conf)

	f := newFixture(t, func(deps *tracking.Deps) {
		deps.Conf = conf
		deps.Mailer = mailer
	})
	f.ingest(t, "s1", outside, t0)
	f.ingest(t, "s1", far, t0.Add(4*time.Minute))
	assert.Empty(t, mailer.SentMessages())

	f.ingest(t, "s1", far, t0.Add(5*time.Minute))
	f.ingest(t, "s1", far, t0.Add(6*time.Minute))

	sent := mailer.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "dean@school.test", msg.To[0].Address)
	assert.Equal(t, "Student outside classroom", msg.Subject)
	assert.Contains(t, msg.TextContent, "Student s1 has been outside Room 101 for 5.0 minutes.")
	assert.Contains(t, msg.HTMLContent, "<strong>s1</strong>")

	rec := f.record(t, "s1")
	assert.True(t, rec.Alerts[0].StaffNotified)
	assert.True(t, rec.Session.StaffNotified)
}

func TestService_noStaffRecipients(t *testing.T) {
	tmpls, err := core.ParseEmailTemplates(assets.EmailTemplates(), true)
	require.NoError(t, err)
	mailer := emailsvc.NewConsoleServiceMock(tmpls, ctest.NewConfig())

	f := newFixture(t, func(deps *tracking.Deps) { deps.Mailer = mailer })
	f.ingest(t, "s1", outside, t0)
	f.ingest(t, "s1", outside, t0.Add(5*time.Minute))

	assert.Empty(t, mailer.SentMessages())
	assert.False(t, f.record(t, "s1").Alerts[0].StaffNotified)
}

// flakyRepo fails every save while failing is set.
type flakyRepo struct {
	tracking.Repository
	failing bool
}

func (r *flakyRepo) SaveRecord(ctx context.Context, rec tracking.Record) error {
	if r.failing {
		return errors.New("connection refused")
	}
	return r.Repository.SaveRecord(ctx, rec)
}

func newFlakyFixture(t *testing.T) (*fixture, *flakyRepo) {
	repo := new(flakyRepo)
	f := newFixture(t, func(deps *tracking.Deps) {
		repo.Repository = deps.Repo
		deps.Repo = repo
	})
	return f, repo
}

func TestService_saveFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("exit sample", func(t *testing.T) {
		f, repo := newFlakyFixture(t)
		f.ingest(t, "s1", center, t0)
		before := f.record(t, "s1")

		exit := tracking.Sample{SubjectID: "s1", Coordinate: outside, Timestamp: t0.Add(time.Minute)}
		repo.failing = true
		_, err := f.svc.Ingest(ctx, exit)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "saving record")
		assert.Equal(t, before, f.record(t, "s1"), "a failed ingestion changes nothing")

		logged := f.logger.Entries("ERROR")
		require.Len(t, logged, 1)
		assert.True(t, strings.HasPrefix(logged[0], "ERROR: saving tracking record"))

		repo.failing = false
		res, err := f.svc.Ingest(ctx, exit)
		require.NoError(t, err)
		assert.Equal(t, tracking.StatusJustLeft, res.BoundaryStatus)
	})

	t.Run("threshold crossing sample", func(t *testing.T) {
		f, repo := newFlakyFixture(t)
		f.ingest(t, "s1", outside, t0)
		f.ingest(t, "s1", outside, t0.Add(time.Minute))
		before := f.record(t, "s1")

		crossing := tracking.Sample{SubjectID: "s1", Coordinate: far, Timestamp: t0.Add(6 * time.Minute)}
		repo.failing = true
		_, err := f.svc.Ingest(ctx, crossing)
		require.Error(t, err)
		assert.Equal(t, before, f.record(t, "s1"))

		repo.failing = false
		res, err := f.svc.Ingest(ctx, crossing)
		require.NoError(t, err)
		assert.True(t, res.AlertTriggered, "the alert is raised by the retry")
		assert.Equal(t, tracking.StatusLongAbsence, res.BoundaryStatus)

		rec := f.record(t, "s1")
		assert.Equal(t, before.Version+1, rec.Version)
		require.Len(t, rec.Alerts, 1)
		assert.Equal(t, tracking.AlertLongAbsence, rec.Alerts[0].Type)
	})
}

func TestService_sharedStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := tracking.NewService(tracking.Deps{
		Repo:     f.repo,
		Registry: dummydb.NewBoundaryRegistry(f.db),
		Logger:   f.logger,
		Conf:     ctest.NewConfig(),
	})

	f.ingest(t, "s1", outside, t0)
	f.ingest(t, "s1", outside, t0.Add(5*time.Minute)) // alert-1
	_, err := admin.ResolveAlert(ctx, "s1", "alert-1")
	require.NoError(t, err)

	res := f.ingest(t, "s1", far, t0.Add(6*time.Minute))
	assert.Equal(t, tracking.StatusLongAbsence, res.BoundaryStatus)
	rec := f.record(t, "s1")
	assert.Equal(t, int64(4), rec.Version, "the sample is stored on top of the resolution")
	assert.Equal(t, t0.Add(6*time.Minute), rec.LastUpdate)

	f.ingest(t, "s1", far, t0.Add(7*time.Minute))
	alerts, err := f.svc.ActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts, "the resolution is never undone")
}

// conflictingRepo loses every save to a concurrent writer.
type conflictingRepo struct {
	tracking.Repository
}

func (conflictingRepo) SaveRecord(context.Context, tracking.Record) error {
	return errors.Wrap(tracking.ErrVersionConflict, "record s1/class-101")
}

func TestService_versionConflict(t *testing.T) {
	f := newFixture(t, func(deps *tracking.Deps) { deps.Repo = conflictingRepo{deps.Repo} })

	_, err := f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: center, Timestamp: t0})
	assert.Equal(t, tracking.ErrVersionConflict, errors.Cause(err))
	_, err = f.repo.GetRecord(context.Background(), "s1", ctest.Classroom.ID)
	assert.Equal(t, tracking.ErrNotFound, errors.Cause(err))
}

func TestService_metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metricsvc.NewTrackingMetrics(reg)
	require.NoError(t, err)

	f := newFixture(t, func(deps *tracking.Deps) { deps.Metrics = m })
	f.ingest(t, "s1", outside, t0)
	f.ingest(t, "s1", outside, t0.Add(5*time.Minute))
	f.ingest(t, "s1", center, t0.Add(6*time.Minute))
	_, _ = f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: center, Timestamp: t0})
	_, _ = f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "s1", Coordinate: tracking.Coordinate{Lat: -91}})
	_, _ = f.svc.Ingest(context.Background(), tracking.Sample{SubjectID: "ghost", Coordinate: center})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues(tracking.OutcomeAccepted, "just_left")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues(tracking.OutcomeAccepted, "long_absence")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues(tracking.OutcomeAccepted, "inside")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues(tracking.OutcomeStaleSample, "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues(tracking.OutcomeInvalidCoordinate, "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestTotal.WithLabelValues(tracking.OutcomeNoBoundary, "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertTotal.WithLabelValues(string(tracking.AlertLongAbsence))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertTotal.WithLabelValues(string(tracking.AlertReturned))))
}
