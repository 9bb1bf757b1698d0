package docstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/storage/docstore"
	"github.com/trezcool/potluck/storage/docstore/memstore"
)

var ctx = context.Background()

type page struct {
	Title string `json:"title"`
	Hits  int    `json:"hits"`
}

// countingBackend wraps a memstore without its Stater, counting reads.
type countingBackend struct {
	mu    sync.Mutex
	db    *memstore.DB
	reads int
	err   error
}

func (b *countingBackend) Read(ctx context.Context, key string) (docstore.Document, error) {
	b.mu.Lock()
	b.reads++
	err := b.err
	b.mu.Unlock()
	if err != nil {
		return docstore.Document{}, err
	}
	return b.db.Read(ctx, key)
}

func (b *countingBackend) Write(ctx context.Context, docs ...docstore.Document) error {
	return b.db.Write(ctx, docs...)
}

func (b *countingBackend) Close() error { return b.db.Close() }

func (b *countingBackend) readCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads
}

func TestStore_Load_default(t *testing.T) {
	db := memstore.Open()
	store := docstore.New(db, 0)

	tests := []struct {
		name  string
		plant []byte
	}{
		{name: "missing"},
		{name: "corrupt", plant: []byte("{\"title\": ")},
		{name: "wrong shape", plant: []byte("[1, 2]")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "pages/" + tt.name
			if tt.plant != nil {
				db.Put(key, tt.plant)
			}

			var p page
			modTime, err := store.Load(ctx, key, &p, func() { p = page{Title: "default"} })
			require.NoError(t, err)
			assert.Equal(t, "default", p.Title)
			assert.False(t, modTime.IsZero())

			doc, err := db.Read(ctx, key)
			require.NoError(t, err)
			assert.JSONEq(t, `{"title": "default", "hits": 0}`, string(doc.Data))
		})
	}
}

type errLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *errLogger) Debug(string, ...interface{}) {}

func (l *errLogger) Info(string, ...interface{}) {}

func (l *errLogger) Warn(string, ...interface{}) {}

func (l *errLogger) Fatal(string, ...interface{}) {}

func (l *errLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func TestStore_Load_defaultNotPersisted(t *testing.T) {
	db := memstore.Open()
	db.FailWrites("pages/home", errors.New("read-only file system"))
	logger := new(errLogger)
	store := docstore.New(db, time.Hour)
	store.SetLogger(logger)

	var p page
	modTime, err := store.Load(ctx, "pages/home", &p, func() { p = page{Title: "default"} })
	require.NoError(t, err)
	assert.Equal(t, "default", p.Title)
	assert.False(t, modTime.IsZero())
	assert.Equal(t, []string{"persisting default pages/home"}, logger.msgs)

	_, err = db.Read(ctx, "pages/home")
	assert.True(t, errors.Is(err, docstore.ErrNotExist))
}

func TestStore_Load_readError(t *testing.T) {
	backend := &countingBackend{db: memstore.Open(), err: errors.New("connection refused")}
	store := docstore.New(backend, 0)

	var p page
	_, err := store.Load(ctx, "pages/home", &p, func() { t.Fatal("reset must not run on read errors") })
	require.Error(t, err)

	var storageErr *core.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "reading pages/home", storageErr.Op)
}

func TestStore_cache(t *testing.T) {
	backend := &countingBackend{db: memstore.Open()}
	store := docstore.New(backend, time.Hour)

	_, err := store.Save(ctx, docstore.Entry{Key: "pages/home", Value: page{Title: "Home"}})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		var p page
		_, err = store.Load(ctx, "pages/home", &p, func() {})
		require.NoError(t, err)
		assert.Equal(t, "Home", p.Title)
	}
	assert.Zero(t, backend.readCount(), "served from cache")

	noCache := docstore.New(backend, 0)
	var p page
	_, err = noCache.Load(ctx, "pages/home", &p, func() {})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.readCount())
}

func TestStore_cache_staleStat(t *testing.T) {
	db := memstore.Open()
	store := docstore.New(db, time.Hour)

	_, err := store.Save(ctx, docstore.Entry{Key: "pages/home", Value: page{Title: "Home"}})
	require.NoError(t, err)

	// another process rewrote the document
	db.Put("pages/home", []byte(`{"title": "Changed"}`))

	var p page
	_, err = store.Load(ctx, "pages/home", &p, func() {})
	require.NoError(t, err)
	assert.Equal(t, "Changed", p.Title)
}

func TestStore_Save_failure(t *testing.T) {
	db := memstore.Open()
	store := docstore.New(db, time.Hour)

	_, err := store.Save(ctx, docstore.Entry{Key: "a", Value: page{Title: "A1"}}, docstore.Entry{Key: "b", Value: page{Title: "B1"}})
	require.NoError(t, err)

	db.FailWrites("b", errors.New("disk full"))
	_, err = store.Save(ctx, docstore.Entry{Key: "a", Value: page{Title: "A2"}}, docstore.Entry{Key: "b", Value: page{Title: "B2"}})
	require.Error(t, err)
	var storageErr *core.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "writing", storageErr.Op)

	for key, want := range map[string]string{"a": "A1", "b": "B1"} {
		var p page
		_, err = store.Load(ctx, key, &p, func() {})
		require.NoError(t, err)
		assert.Equal(t, want, p.Title, key)
	}
}

func TestStore_Save_monotonicModTime(t *testing.T) {
	store := docstore.New(memstore.Open(), time.Hour)

	var last time.Time
	for i := 0; i < 20; i++ {
		modTime, err := store.Save(ctx, docstore.Entry{Key: "counter", Value: page{Hits: i}})
		require.NoError(t, err)
		assert.Equal(t, modTime, modTime.Truncate(time.Millisecond))
		assert.True(t, modTime.After(last), "save %d: %s not after %s", i, modTime, last)
		last = modTime
	}

	var p page
	modTime, err := store.Load(ctx, "counter", &p, func() {})
	require.NoError(t, err)
	assert.True(t, modTime.Equal(last))
	assert.Equal(t, 19, p.Hits)
}

func TestStore_Save_monotonicAfterFailure(t *testing.T) {
	db := memstore.Open()
	store := docstore.New(db, time.Hour)

	var last time.Time
	for i := 0; i < 5; i++ {
		modTime, err := store.Save(ctx, docstore.Entry{Key: "counter", Value: page{Hits: i}})
		require.NoError(t, err)
		last = modTime
	}

	db.FailWrites("counter", errors.New("disk full"))
	_, err := store.Save(ctx, docstore.Entry{Key: "counter", Value: page{Hits: 5}})
	require.Error(t, err)
	db.FailWrites("counter", nil)

	modTime, err := store.Save(ctx, docstore.Entry{Key: "counter", Value: page{Hits: 6}})
	require.NoError(t, err)
	assert.True(t, modTime.After(last), "%s not after %s", modTime, last)
}
