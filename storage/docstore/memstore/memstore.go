// Package memstore keeps documents in process memory. Used by tests and throwaway runs.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/potluck/storage/docstore"
)

type (
	DB struct {
		mu     sync.RWMutex
		table  map[string]docstore.Document
		failOn map[string]error
	}
)

var (
	_ docstore.Backend = (*DB)(nil)
	_ docstore.Stater  = (*DB)(nil)
)

func Open() *DB {
	return &DB{
		table:  make(map[string]docstore.Document),
		failOn: make(map[string]error),
	}
}

func (db *DB) Read(_ context.Context, key string) (docstore.Document, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	doc, ok := db.table[key]
	if !ok {
		return docstore.Document{}, errors.Wrap(docstore.ErrNotExist, key)
	}
	doc.Data = append([]byte(nil), doc.Data...)
	return doc, nil
}

func (db *DB) Stat(_ context.Context, key string) (time.Time, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	doc, ok := db.table[key]
	if !ok {
		return time.Time{}, errors.Wrap(docstore.ErrNotExist, key)
	}
	return doc.ModTime, nil
}

// Write applies the whole batch, or nothing when a write to one of its keys was made to fail.
func (db *DB) Write(_ context.Context, docs ...docstore.Document) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, doc := range docs {
		if err := db.failOn[doc.Key]; err != nil {
			return errors.Wrap(err, doc.Key)
		}
	}
	for _, doc := range docs {
		doc.Data = append([]byte(nil), doc.Data...)
		if doc.ModTime.IsZero() {
			doc.ModTime = time.Now()
		}
		db.table[doc.Key] = doc
	}
	return nil
}

// Put stores raw data under key, bypassing encoding. Lets tests plant corrupt documents.
func (db *DB) Put(key string, data []byte) {
	db.mu.Lock()
	db.table[key] = docstore.Document{Key: key, Data: data, ModTime: time.Now()}
	db.mu.Unlock()
}

// FailWrites makes every write touching key fail with err; a nil err clears it.
func (db *DB) FailWrites(key string, err error) {
	db.mu.Lock()
	if err == nil {
		delete(db.failOn, key)
	} else {
		db.failOn[key] = err
	}
	db.mu.Unlock()
}

func (db *DB) Close() error { return nil }
