package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/classfence/apps/api/echo"
	"github.com/trezcool/classfence/assets"
	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/core/tracking"
	"github.com/trezcool/classfence/services/email"
	"github.com/trezcool/classfence/services/logger"
	"github.com/trezcool/classfence/services/metrics"
	"github.com/trezcool/classfence/storage/database"
	"github.com/trezcool/classfence/storage/database/dummy"
	"github.com/trezcool/classfence/storage/database/sqlx"
	"github.com/trezcool/classfence/storage/regcache"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB & repos
	repo, registry, closeDB, err := setUpStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	tmpls, err := core.ParseEmailTemplates(assets.EmailTemplates(), conf.Debug || conf.TestMode)
	if err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(log.New(os.Stdout, "EMAIL : ", log.LstdFlags), tmpls, conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, tmpls, conf)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := metricsvc.NewTrackingMetrics(promRegistry)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up metrics: %v", err), err)
	}

	trackingSvc := tracking.NewService(tracking.Deps{
		Repo:     repo,
		Registry: regcache.New(registry, conf.Tracking.RegistryCacheTTL),
		Logger:   logger,
		Conf:     conf,
		Mailer:   mailSvc,
		Metrics:  metrics,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			TrackingSvc:    trackingSvc,
			Validate:       validate,
			Translator:     translator,
			MetricsHandler: promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStore returns the tracking repository and boundary registry of the configured database engine.
func setUpStore(conf *core.Config) (tracking.Repository, tracking.BoundaryRegistry, func() error, error) {
	if conf.Database.InMemory() {
		db, err := dummydb.Open()
		if err != nil {
			return nil, nil, nil, err
		}
		if conf.Database.RosterFile != "" {
			if err = db.LoadRosterFile(conf.Database.RosterFile); err != nil {
				return nil, nil, nil, err
			}
		}
		return dummydb.NewRecordRepository(db), dummydb.NewBoundaryRegistry(db), func() error { return nil }, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return nil, nil, nil, err
	}
	return sqlxrepos.NewRecordRepository(db), sqlxrepos.NewBoundaryRegistry(db), db.Close, nil
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
