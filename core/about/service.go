package about

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		// Get returns the stored page, or Default() when none was saved yet.
		Get(ctx context.Context) (Page, error)
		Save(ctx context.Context, p Page) error
	}

	Service struct {
		mu   sync.Mutex
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Get(ctx context.Context) (Page, error) {
	return svc.repo.Get(ctx)
}

// Update replaces the page content. up must have been validated.
func (svc *Service) Update(ctx context.Context, by string, up UpdatePage) (Page, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	p := Page{
		Content:       up.Content,
		LastUpdated:   NowFunc().UTC(),
		LastUpdatedBy: by,
	}
	if err := svc.repo.Save(ctx, p); err != nil {
		return Page{}, errors.Wrap(err, "saving about page")
	}
	return p, nil
}
