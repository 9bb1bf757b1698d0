package archiver

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/dinner"
)

type fakeService struct {
	event    dinner.ArchiveEvent
	archived bool
	err      error
}

func (f fakeService) ArchiveIfDue(context.Context) (dinner.ArchiveEvent, bool, error) {
	return f.event, f.archived, f.err
}

type memLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *memLogger) log(level, msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, level+": "+msg)
	l.mu.Unlock()
}

func (l *memLogger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *memLogger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *memLogger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *memLogger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *memLogger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }

func TestSpec(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Dinner.Timezone = "America/Chicago"
	conf.Dinner.ArchiveHour = 20
	assert.Equal(t, "CRON_TZ=America/Chicago 0 20 * * *", Spec(conf))
}

func TestArchiver_Run(t *testing.T) {
	archived := dinner.ArchiveEvent{}
	archived.Archived.Date = "2024-06-08"
	archived.Archived.ArchivedBy = dinner.TriggerScheduler

	tests := []struct {
		name string
		svc  fakeService
		want string
	}{
		{name: "not due", svc: fakeService{}, want: "debug: scheduled archive: current dinner not due yet"},
		{name: "archived", svc: fakeService{event: archived, archived: true}, want: "info: Dinner 2024-06-08 archived by scheduler"},
		{name: "failure", svc: fakeService{err: errors.New("disk full")}, want: "error: scheduled archive failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := new(memLogger)
			a, err := New(tt.svc, core.NewTestConfig(), logger)
			require.NoError(t, err)

			a.Run()
			assert.Equal(t, []string{tt.want}, logger.lines)
		})
	}
}

func TestArchiver_StartStop(t *testing.T) {
	a, err := New(fakeService{}, core.NewTestConfig(), new(memLogger))
	require.NoError(t, err)
	require.Len(t, a.cron.Entries(), 1)

	a.Start()
	a.Stop(context.Background())
}

func TestNew_badSpec(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Dinner.ArchiveHour = 25
	_, err := New(fakeService{}, conf, new(memLogger))
	assert.Error(t, err)
}
