// Package filestore stores each document as a pretty-printed "<key>.json" file under a directory.
package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/potluck/storage/docstore"
)

type Backend struct {
	dir string
	mu  sync.Mutex // serialises batches
}

var (
	_ docstore.Backend = (*Backend)(nil)
	_ docstore.Stater  = (*Backend)(nil)
)

func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) path(key string) string {
	return filepath.Join(b.dir, filepath.FromSlash(key)+".json")
}

func (b *Backend) Read(_ context.Context, key string) (docstore.Document, error) {
	p := b.path(key)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return docstore.Document{}, errors.Wrap(docstore.ErrNotExist, key)
		}
		return docstore.Document{}, errors.Wrapf(err, "reading %s", p)
	}
	fi, err := os.Stat(p)
	if err != nil {
		return docstore.Document{}, errors.Wrapf(err, "stat %s", p)
	}
	return docstore.Document{Key: key, Data: data, ModTime: fi.ModTime()}, nil
}

func (b *Backend) Stat(_ context.Context, key string) (time.Time, error) {
	fi, err := os.Stat(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, errors.Wrap(docstore.ErrNotExist, key)
		}
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// Write stages every document in a temp file next to its target before renaming any of them,
// so a failure while staging leaves all previous files untouched.
func (b *Backend) Write(_ context.Context, docs ...docstore.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	type staged struct{ tmp, dst string }
	stagedFiles := make([]staged, 0, len(docs))
	cleanup := func() {
		for _, s := range stagedFiles {
			_ = os.Remove(s.tmp)
		}
	}

	for _, doc := range docs {
		dst := b.path(doc.Key)
		tmp, err := stage(dst, doc)
		if err != nil {
			cleanup()
			return errors.Wrapf(err, "staging %s", doc.Key)
		}
		stagedFiles = append(stagedFiles, staged{tmp: tmp, dst: dst})
	}

	for i, s := range stagedFiles {
		if err := os.Rename(s.tmp, s.dst); err != nil {
			stagedFiles = stagedFiles[i:]
			cleanup()
			return errors.Wrapf(err, "renaming %s", s.dst)
		}
	}
	return nil
}

func stage(dst string, doc docstore.Document) (string, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err = f.Write(doc.Data); err == nil {
		err = f.Sync()
	}
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err == nil && !doc.ModTime.IsZero() {
		err = os.Chtimes(tmp, doc.ModTime, doc.ModTime)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

func (b *Backend) Close() error { return nil }
