package settings

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type (
	Repository interface {
		// Get returns the stored settings, or Default() when none were saved yet.
		Get(ctx context.Context) (Settings, error)
		Save(ctx context.Context, s Settings) error
	}

	Service struct {
		mu   sync.Mutex
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Get(ctx context.Context) (Settings, error) {
	return svc.repo.Get(ctx)
}

// Update replaces the settings. us must have been validated.
func (svc *Service) Update(ctx context.Context, us UpdateSettings) (Settings, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	s := Settings{
		DinnerDay:       *us.DinnerDay,
		DonationAmounts: us.DonationAmounts,
	}
	if err := svc.repo.Save(ctx, s); err != nil {
		return Settings{}, errors.Wrap(err, "saving settings")
	}
	return s, nil
}
