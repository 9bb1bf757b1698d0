package docrepos

import (
	"context"

	"github.com/trezcool/potluck/core/about"
	"github.com/trezcool/potluck/storage/docstore"
)

type aboutRepository struct {
	store *docstore.Store
}

var _ about.Repository = (*aboutRepository)(nil)

func NewAboutRepository(store *docstore.Store) about.Repository {
	return &aboutRepository{store: store}
}

func (repo *aboutRepository) Get(ctx context.Context) (about.Page, error) {
	var p about.Page
	if _, err := repo.store.Load(ctx, KeyAbout, &p, func() { p = about.Default() }); err != nil {
		return about.Page{}, err
	}
	return p, nil
}

func (repo *aboutRepository) Save(ctx context.Context, p about.Page) error {
	_, err := repo.store.Save(ctx, docstore.Entry{Key: KeyAbout, Value: p})
	return err
}
