package docrepos

import (
	"context"
	"time"

	"github.com/trezcool/potluck/core/dinner"
	"github.com/trezcool/potluck/storage/docstore"
)

type (
	dinnerRepository struct {
		store *docstore.Store
	}

	archiveDoc struct {
		Dinners []dinner.ArchivedDinner `json:"dinners"`
	}
)

var _ dinner.Repository = (*dinnerRepository)(nil)

func NewDinnerRepository(store *docstore.Store) dinner.Repository {
	return &dinnerRepository{store: store}
}

func dinnerKey(which dinner.Which) string {
	if which == dinner.Next {
		return KeyNextDinner
	}
	return KeyCurrentDinner
}

func (repo *dinnerRepository) Get(ctx context.Context, which dinner.Which, seed func() dinner.Dinner) (dinner.Dinner, time.Time, error) {
	var d dinner.Dinner
	modTime, err := repo.store.Load(ctx, dinnerKey(which), &d, func() { d = seed() })
	if err != nil {
		return dinner.Dinner{}, time.Time{}, err
	}
	return d, modTime, nil
}

func (repo *dinnerRepository) Save(ctx context.Context, which dinner.Which, d dinner.Dinner) (time.Time, error) {
	return repo.store.Save(ctx, docstore.Entry{Key: dinnerKey(which), Value: d})
}

func (repo *dinnerRepository) Archived(ctx context.Context) ([]dinner.ArchivedDinner, error) {
	var doc archiveDoc
	if _, err := repo.store.Load(ctx, KeyArchive, &doc, func() { doc = archiveDoc{} }); err != nil {
		return nil, err
	}
	if doc.Dinners == nil {
		return []dinner.ArchivedDinner{}, nil
	}
	return doc.Dinners, nil
}

// Commit saves the three documents as one batch, archive first: on backends without
// batch atomicity an interrupted commit may leave a stale current dinner, never a lost archive entry.
func (repo *dinnerRepository) Commit(ctx context.Context, t dinner.Transition) error {
	archive := t.Archive
	if archive == nil {
		archive = []dinner.ArchivedDinner{}
	}
	_, err := repo.store.Save(ctx,
		docstore.Entry{Key: KeyArchive, Value: archiveDoc{Dinners: archive}},
		docstore.Entry{Key: KeyCurrentDinner, Value: t.Current},
		docstore.Entry{Key: KeyNextDinner, Value: t.Next},
	)
	return err
}
