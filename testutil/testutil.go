// Package testutil wires services over an in-memory document store for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/about"
	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/core/settings"
	"github.com/trezcool/potluck/core/user"
	"github.com/trezcool/potluck/storage/docrepos"
	"github.com/trezcool/potluck/storage/docstore"
	"github.com/trezcool/potluck/storage/docstore/memstore"
)

// Env holds services sharing one in-memory backend.
type Env struct {
	Conf    *core.Config
	Backend *memstore.DB
	Store   *docstore.Store

	UserRepo    user.Repository
	DinnerRepo  dinner.Repository
	UserSvc     *user.Service
	DinnerSvc   *dinner.Service
	SettingsSvc *settings.Service
	AboutSvc    *about.Service
}

// NewEnv returns a fresh Env. now, when given, becomes the dinner service clock.
func NewEnv(t *testing.T, now ...func() time.Time) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	backend := memstore.Open()
	store := docstore.New(backend, conf.Storage.CacheTTL)

	env := &Env{
		Conf:       conf,
		Backend:    backend,
		Store:      store,
		UserRepo:   docrepos.NewUserRepository(store),
		DinnerRepo: docrepos.NewDinnerRepository(store),
	}
	env.UserSvc = user.NewService(env.UserRepo, conf)
	env.SettingsSvc = settings.NewService(docrepos.NewSettingsRepository(store))
	env.AboutSvc = about.NewService(docrepos.NewAboutRepository(store))
	env.DinnerSvc = dinner.NewService(env.DinnerRepo, env.SettingsSvc, conf)
	if len(now) > 0 {
		env.DinnerSvc.SetClock(now[0])
	}

	t.Cleanup(func() { _ = store.Close() })
	return env
}

// FixedClock returns a clock stopped at the given UTC time.
func FixedClock(year int, month time.Month, day, hour int) func() time.Time {
	at := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func CreateUser(t *testing.T, repo user.Repository, name string, isAdmin bool, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.Create(context.Background(), user.User{
		ID:        uuid.NewString(),
		Name:      name,
		IsAdmin:   isAdmin,
		CreatedAt: tstamp,
		LastLogin: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
