// Package storage opens the document backend selected by configuration.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/storage/database"
	"github.com/trezcool/potluck/storage/docstore"
	"github.com/trezcool/potluck/storage/docstore/filestore"
	"github.com/trezcool/potluck/storage/docstore/memstore"
	"github.com/trezcool/potluck/storage/docstore/s3store"
	"github.com/trezcool/potluck/storage/docstore/sqlstore"
)

// OpenBackend opens conf.Storage.Backend. SQL databases are migrated up before use.
func OpenBackend(ctx context.Context, conf *core.Config) (docstore.Backend, error) {
	switch conf.Storage.Backend {
	case "", "file":
		return filestore.New(conf.Storage.DataDir)
	case "memory":
		return memstore.Open(), nil
	case "sqlite", "postgres":
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db, conf); err != nil {
			_ = db.Close()
			return nil, err
		}
		return sqlstore.New(db), nil
	case "s3":
		return s3store.New(ctx, conf)
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

// Open returns a cached Store over the configured backend.
func Open(ctx context.Context, conf *core.Config) (*docstore.Store, error) {
	backend, err := OpenBackend(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening storage backend")
	}
	return docstore.New(backend, conf.Storage.CacheTTL), nil
}
