package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
)

var (
	// errors
	ErrNotFound   = errors.New("user not found")
	ErrNameExists = errors.New("a user with this name already exists")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		QueryAll(ctx context.Context) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		// GetByName does a case-insensitive match.
		GetByName(ctx context.Context, name string) (User, error)
		Create(ctx context.Context, usr User) (User, error)
		Update(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		mu              sync.Mutex
		repo            Repository
		adminNames      []string
		everyoneIsAdmin bool
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{
		repo:            repo,
		adminNames:      conf.Auth.AdminNames,
		everyoneIsAdmin: conf.Auth.EveryoneIsAdmin,
	}
}

// resolve sets the effective admin flag: stored flag, configured admin names, or everyone.
func (svc *Service) resolve(usr User) User {
	if svc.everyoneIsAdmin {
		usr.IsAdmin = true
		return usr
	}
	for _, n := range svc.adminNames {
		if usr.SameName(n) {
			usr.IsAdmin = true
			break
		}
	}
	return usr
}

// Login returns the user called name, creating it on first use. l must have been validated.
// Anyone typing an existing name becomes that user.
func (svc *Service) Login(ctx context.Context, l Login) (User, bool, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	now := NowFunc().UTC()
	usr, err := svc.repo.GetByName(ctx, l.Name)
	switch errors.Cause(err) {
	case nil:
		usr.LastLogin = now
		usr, err = svc.repo.Update(ctx, usr)
		if err != nil {
			return User{}, false, errors.Wrap(err, "updating last login")
		}
		return svc.resolve(usr), false, nil
	case ErrNotFound:
		usr, err = svc.repo.Create(ctx, User{
			ID:        uuid.NewString(),
			Name:      l.Name,
			CreatedAt: now,
			LastLogin: now,
		})
		if err != nil {
			return User{}, false, errors.Wrap(err, "creating user")
		}
		return svc.resolve(usr), true, nil
	default:
		return User{}, false, errors.Wrap(err, "finding user by name")
	}
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	users, err := svc.repo.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = svc.resolve(users[i])
	}
	return users, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	usr, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	return svc.resolve(usr), nil
}

func (svc *Service) GetByName(ctx context.Context, name string) (User, error) {
	usr, err := svc.repo.GetByName(ctx, core.CleanString(name))
	if err != nil {
		return User{}, err
	}
	return svc.resolve(usr), nil
}

// SetAdmin grants or revokes the stored admin flag of the user called name.
func (svc *Service) SetAdmin(ctx context.Context, name string, admin bool) (User, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	usr, err := svc.repo.GetByName(ctx, core.CleanString(name))
	if err != nil {
		return User{}, err
	}
	usr.IsAdmin = admin
	usr, err = svc.repo.Update(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	return svc.resolve(usr), nil
}
