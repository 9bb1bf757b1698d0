package docrepos

import (
	"context"

	"github.com/trezcool/potluck/core/settings"
	"github.com/trezcool/potluck/storage/docstore"
)

type settingsRepository struct {
	store *docstore.Store
}

var _ settings.Repository = (*settingsRepository)(nil)

func NewSettingsRepository(store *docstore.Store) settings.Repository {
	return &settingsRepository{store: store}
}

func (repo *settingsRepository) Get(ctx context.Context) (settings.Settings, error) {
	var s settings.Settings
	if _, err := repo.store.Load(ctx, KeySettings, &s, func() { s = settings.Default() }); err != nil {
		return settings.Settings{}, err
	}
	return s, nil
}

func (repo *settingsRepository) Save(ctx context.Context, s settings.Settings) error {
	_, err := repo.store.Save(ctx, docstore.Entry{Key: KeySettings, Value: s})
	return err
}
