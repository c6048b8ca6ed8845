package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/kaithabhanuteja/StudentManagement/apps/api/echo"
	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/school"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
	emailsvc "github.com/kaithabhanuteja/StudentManagement/services/email"
	logsvc "github.com/kaithabhanuteja/StudentManagement/services/logger"
	"github.com/kaithabhanuteja/StudentManagement/storage/database"
	inmemdb "github.com/kaithabhanuteja/StudentManagement/storage/database/inmem"
	pgrepos "github.com/kaithabhanuteja/StudentManagement/storage/database/postgres"
)

// EngineInMemory keeps every record in process memory. Data is lost on exit.
const EngineInMemory = "inmem"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage is the set of persistence dependencies of the selected engine.
type Storage struct {
	dig.Out
	UserRepo   user.Repository
	SchoolRepo school.Repository
	Tx         core.Transactor
	Pinger     echoapi.Pinger
	Closer     Closer
}

// Closer releases the storage resources.
type Closer func() error

type ServerParam struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	UserSvc    *user.Service
	SchoolSvc  *school.Service
	Validate   *validator.Validate
	Translator ut.Translator
	Pinger     echoapi.Pinger
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!(conf.Debug || conf.TestMode))
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Database.Engine == EngineInMemory {
		db := inmemdb.Open()
		return Storage{
			UserRepo:   inmemdb.NewUserRepository(db),
			SchoolRepo: inmemdb.NewSchoolRepository(db),
			Tx:         db,
			Pinger:     db,
			Closer:     func() error { return nil },
		}
	}

	setUp := func() (*sqlx.DB, error) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Ping(ctx, db); err != nil {
			return nil, err
		}
		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Storage{
		UserRepo:   pgrepos.NewUserRepository(db),
		SchoolRepo: pgrepos.NewSchoolRepository(db),
		Tx:         pgrepos.NewTransactor(db),
		Pinger:     db,
		Closer:     db.Close,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)
	return validate
}

func newServer(p ServerParam) (*echoapi.Server, error) {
	return echoapi.NewServer(echoapi.Deps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		UserSvc:    p.UserSvc,
		SchoolSvc:  p.SchoolSvc,
		Validate:   p.Validate,
		Translator: p.Translator,
		Pinger:     p.Pinger,
	})
}

// New returns a new dependency injection dig.Container.
// newConf lets callers adjust the configuration, e.g. to pick the storage engine.
func New(newConf func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConf))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(school.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
