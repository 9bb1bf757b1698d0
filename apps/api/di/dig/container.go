package dig_container

import (
	"context"
	"log"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/potluck/apps/api/echo"
	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/about"
	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/core/settings"
	"github.com/trezcool/potluck/core/user"
	"github.com/trezcool/potluck/services/archiver"
	emailsvc "github.com/trezcool/potluck/services/email"
	logsvc "github.com/trezcool/potluck/services/logger"
	"github.com/trezcool/potluck/services/metrics"
	telegramsvc "github.com/trezcool/potluck/services/telegram"
	"github.com/trezcool/potluck/storage"
	"github.com/trezcool/potluck/storage/docrepos"
	"github.com/trezcool/potluck/storage/docstore"
)

// Shutdown receives the signal that stops the API.
type Shutdown chan os.Signal

type ServerParams struct {
	dig.In
	Conf        *core.Config
	Logger      core.Logger
	Shutdown    Shutdown
	Validate    *validator.Validate
	Translator  ut.Translator
	UserSvc     *user.Service
	DinnerSvc   *dinner.Service
	SettingsSvc *settings.Service
	AboutSvc    *about.Service
	Metrics     *metrics.Recorder
}

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(os.Stdout, conf, "api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(os.Stdout, conf, "store"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newStore(conf *core.Config, loggerParam StoreLoggerParam) *docstore.Store {
	store, err := storage.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal("setting up storage", err)
	}
	store.SetLogger(loggerParam.Logger)
	loggerParam.Logger.Info("storage ready", map[string]interface{}{"backend": conf.Storage.Backend})
	return store
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.Mail.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	dinner.InitValidators(validate, translator)
	return validate
}

// newDinnerService registers every listener interested in dinner changes.
func newDinnerService(
	repo dinner.Repository,
	settingsSvc *settings.Service,
	conf *core.Config,
	logger core.Logger,
	mailSvc core.EmailService,
	recorder *metrics.Recorder,
) *dinner.Service {
	svc := dinner.NewService(repo, settingsSvc, conf)
	svc.AddListener(recorder)
	svc.AddListener(emailsvc.NewArchiveMailer(mailSvc, conf, logger))

	if conf.Telegram.Token != "" {
		announcer, err := telegramsvc.New(conf, logger)
		if err != nil {
			logger.Error("telegram announcements disabled", err)
		} else {
			svc.AddListener(announcer)
		}
	}
	return svc
}

func newShutdown() Shutdown {
	return make(Shutdown, 1)
}

func newServer(p ServerParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:   p.Conf,
		Logger: p.Logger,
		SignalShutdown: func() {
			select {
			case p.Shutdown <- syscall.SIGTERM:
			default:
			}
		},
		Validate:    p.Validate,
		Translator:  p.Translator,
		UserSvc:     p.UserSvc,
		DinnerSvc:   p.DinnerSvc,
		SettingsSvc: p.SettingsSvc,
		AboutSvc:    p.AboutSvc,
		Metrics:     p.Metrics.Handler(),
	})
}

func newArchiver(svc *dinner.Service, conf *core.Config, logger core.Logger) (*archiver.Archiver, error) {
	return archiver.New(svc, conf, logger)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newStore))
	must(c.Provide(docrepos.NewUserRepository))
	must(c.Provide(docrepos.NewDinnerRepository))
	must(c.Provide(docrepos.NewSettingsRepository))
	must(c.Provide(docrepos.NewAboutRepository))
	must(c.Provide(newEmailService))
	must(c.Provide(metrics.NewRecorder))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(settings.NewService))
	must(c.Provide(about.NewService))
	must(c.Provide(newDinnerService))
	must(c.Provide(newShutdown))
	must(c.Provide(newServer))
	must(c.Provide(newArchiver))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
