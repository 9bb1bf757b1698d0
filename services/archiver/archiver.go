// Package archiver archives the current dinner on a schedule.
package archiver

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
)

type dueArchiver interface {
	ArchiveIfDue(ctx context.Context) (dinner.ArchiveEvent, bool, error)
}

type Archiver struct {
	cron    *cron.Cron
	svc     dueArchiver
	logger  core.Logger
	timeout time.Duration
}

// Spec returns the cron schedule running every day at conf.Dinner.ArchiveHour, dinner timezone.
func Spec(conf *core.Config) string {
	return fmt.Sprintf("CRON_TZ=%s 0 %d * * *", conf.Location().String(), conf.Dinner.ArchiveHour)
}

func New(svc dueArchiver, conf *core.Config, logger core.Logger) (*Archiver, error) {
	a := &Archiver{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		svc:     svc,
		logger:  logger,
		timeout: time.Minute,
	}
	if _, err := a.cron.AddFunc(Spec(conf), a.Run); err != nil {
		return nil, errors.Wrap(err, "scheduling archive job")
	}
	return a, nil
}

// Run archives the current dinner when its date has come.
func (a *Archiver) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	e, archived, err := a.svc.ArchiveIfDue(ctx)
	if err != nil {
		a.logger.Error("scheduled archive failed", err)
		return
	}
	if !archived {
		a.logger.Debug("scheduled archive: current dinner not due yet")
		return
	}
	a.logger.Info(fmt.Sprintf("Dinner %s archived by %s", e.Archived.Date, e.Archived.ArchivedBy))
}

func (a *Archiver) Start() {
	a.cron.Start()
}

// Stop waits for a running job to finish or ctx to be done.
func (a *Archiver) Stop(ctx context.Context) {
	select {
	case <-a.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kv(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kv(keysAndValues))
}

func kv(keysAndValues []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		m[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return m
}
