package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
	emailsvc "github.com/kaithabhanuteja/StudentManagement/services/email"
	logsvc "github.com/kaithabhanuteja/StudentManagement/services/logger"
	"github.com/kaithabhanuteja/StudentManagement/storage/database"
	pgrepos "github.com/kaithabhanuteja/StudentManagement/storage/database/postgres"
)

func main() {
	conf := core.NewConfig()
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	errAndDie(logger, database.CreateIfNotExist(ctx, conf))
	db, err := database.Open(conf)
	errAndDie(logger, err)
	errAndDie(logger, database.Ping(ctx, db))
	cancel()

	// set up services
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	tx := pgrepos.NewTransactor(db)
	usrSvc := user.NewService(pgrepos.NewUserRepository(db))
	mailSvc := emailsvc.NewConsoleService(conf)
	schoolSvc := school.NewService(conf, pgrepos.NewSchoolRepository(db), usrSvc, tx, mailSvc, logger)

	// start CLI
	cli := commandLine{
		db:         db.DB,
		tx:         tx,
		usrSvc:     usrSvc,
		schoolSvc:  schoolSvc,
		validate:   validate,
		translator: translator,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
