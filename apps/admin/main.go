package main

import (
	"log"
	"os"

	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/core/tracking"
	"github.com/trezcool/classfence/services/logger"
	"github.com/trezcool/classfence/storage/database"
	"github.com/trezcool/classfence/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!(conf.Debug || conf.TestMode))
	defer appLogger.Close()

	// start CLI
	cli := commandLine{out: os.Stdout, conf: conf}

	// an in-memory store would start empty: only commands that need no store can run
	if !conf.Database.InMemory() {
		db, err := database.Open(conf)
		errAndDie(err)
		defer db.Close()

		cli.db = db
		cli.trackingSvc = tracking.NewService(tracking.Deps{
			Repo:     sqlxrepos.NewRecordRepository(db),
			Registry: sqlxrepos.NewBoundaryRegistry(db),
			Logger:   appLogger,
			Conf:     conf,
		})
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		appLogger.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatalf("%+v", err)
	}
}
