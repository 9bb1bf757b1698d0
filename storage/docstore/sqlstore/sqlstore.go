// Package sqlstore keeps documents in the "documents" table of a postgres or sqlite database.
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/storage/docstore"
)

const (
	selectQuery = `SELECT doc_key, data, updated_at FROM documents WHERE doc_key = ?`
	statQuery   = `SELECT updated_at FROM documents WHERE doc_key = ?`
	upsertQuery = `INSERT INTO documents (doc_key, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT (doc_key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
)

type (
	Backend struct {
		db *sqlx.DB
	}

	row struct {
		Key       string `db:"doc_key"`
		Data      string `db:"data"`
		UpdatedAt int64  `db:"updated_at"` // unix nanoseconds
	}
)

var (
	_ docstore.Backend = (*Backend)(nil)
	_ docstore.Stater  = (*Backend)(nil)
)

// New returns a Backend over db. The documents table must have been migrated.
func New(db *sqlx.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Read(ctx context.Context, key string) (docstore.Document, error) {
	var r row
	if err := b.db.GetContext(ctx, &r, b.db.Rebind(selectQuery), key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, errors.Wrap(docstore.ErrNotExist, key)
		}
		return docstore.Document{}, errors.Wrapf(err, "selecting %s", key)
	}
	return docstore.Document{
		Key:     r.Key,
		Data:    []byte(r.Data),
		ModTime: time.Unix(0, r.UpdatedAt),
	}, nil
}

func (b *Backend) Stat(ctx context.Context, key string) (time.Time, error) {
	var updatedAt int64
	if err := b.db.GetContext(ctx, &updatedAt, b.db.Rebind(statQuery), key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, errors.Wrap(docstore.ErrNotExist, key)
		}
		return time.Time{}, errors.Wrapf(err, "selecting %s", key)
	}
	return time.Unix(0, updatedAt), nil
}

// Write upserts the batch in a single transaction.
func (b *Backend) Write(ctx context.Context, docs ...docstore.Document) (err error) {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := tx.Rebind(upsertQuery)
	for _, doc := range docs {
		modTime := doc.ModTime
		if modTime.IsZero() {
			modTime = time.Now()
		}
		if _, err = tx.ExecContext(ctx, q, doc.Key, string(doc.Data), modTime.UnixNano()); err != nil {
			return errors.Wrapf(err, "upserting %s", doc.Key)
		}
	}
	return errors.Wrap(tx.Commit(), "committing")
}

func (b *Backend) Close() error {
	return b.db.Close()
}
