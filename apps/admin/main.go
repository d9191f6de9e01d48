package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/gongbuapp/gongbu/core"
	"github.com/gongbuapp/gongbu/core/leaderboard"
	"github.com/gongbuapp/gongbu/core/scoring"
	emailsvc "github.com/gongbuapp/gongbu/services/email"
	logsvc "github.com/gongbuapp/gongbu/services/logger"
	"github.com/gongbuapp/gongbu/storage/database"
	sqlxrepos "github.com/gongbuapp/gongbu/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	workDir, err := os.Getwd()
	errAndDie(err)
	conf, err := core.NewConfig(workDir)
	errAndDie(err)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	dbx := sqlx.NewDb(db, conf.Database.Engine)

	usrRepo := sqlxrepos.NewUserRepository(dbx)
	sessRepo := sqlxrepos.NewSessionRepository(dbx)

	var mailSvc core.EmailService
	appLogger := logsvc.NewStdLogger(logger)
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	}

	// start CLI
	cli := commandLine{
		usrRepo:  usrRepo,
		boardSvc: leaderboard.NewService(usrRepo, sessRepo, scoring.NewScorer(conf.Scoring), conf, mailSvc, appLogger),
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
