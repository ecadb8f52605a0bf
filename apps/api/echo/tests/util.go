package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/classfence/apps/api/echo"
	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/core/tracking"
	"github.com/trezcool/classfence/services/metrics"
	"github.com/trezcool/classfence/storage/database/dummy"
	"github.com/trezcool/classfence/tests"
)

var (
	t0 = time.Date(2021, 3, 1, 8, 0, 0, 0, time.UTC)

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type env struct {
	app   *Server
	conf  *core.Config
	clock *testutil.Clock
}

func setup(t *testing.T) *env {
	conf := testutil.NewConfig()

	// set up DB & repos
	db, err := dummydb.Open()
	require.NoError(t, err)
	db.AssignBoundary("student-1", testutil.Classroom)
	db.AssignBoundary("student-2", testutil.Classroom)

	// set up services
	clock := testutil.NewClock(t0)
	logger := testutil.NewLogger()
	registry := prometheus.NewRegistry()
	metrics, err := metricsvc.NewTrackingMetrics(registry)
	require.NoError(t, err)

	trackingSvc := tracking.NewService(tracking.Deps{
		Repo:     dummydb.NewRecordRepository(db),
		Registry: dummydb.NewBoundaryRegistry(db),
		Logger:   logger,
		Conf:     conf,
		Metrics:  metrics,
		Clock:    clock.Now,
		NewID:    testutil.SequentialIDs(),
	})

	app := newServer(t, conf, logger, trackingSvc, registry)
	return &env{app: app, conf: conf, clock: clock}
}

func newServer(t *testing.T, conf *core.Config, logger core.Logger, svc tracking.ServiceInterface, registry *prometheus.Registry) *Server {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		TrackingSvc:    svc,
		Validate:       validate,
		Translator:     translator,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = app.Close() })
	return app
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (e *env) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	e.app.ServeHTTP(rec, req)
	if tt.wantData != nil {
		checkCodeAndData(t, tt, rec)
	} else if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, tt.wantCode, rec.Body.String())
	}
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, subject string, roles ...string) string {
	token, err := GenerateToken(NewClaims(conf, subject, subject, roles...), conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
