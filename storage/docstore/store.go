// Package docstore keeps whole JSON documents under string keys on a pluggable backend.
package docstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
)

// ErrNotExist is returned by backends when no document is stored under a key.
var ErrNotExist = errors.New("document does not exist")

type (
	Document struct {
		Key     string
		Data    []byte
		ModTime time.Time
	}

	Backend interface {
		// Read returns ErrNotExist (possibly wrapped) when key is absent.
		Read(ctx context.Context, key string) (Document, error)
		// Write stores every document or, when the backend supports it, none of them.
		// Backends keep the given ModTime when they can.
		Write(ctx context.Context, docs ...Document) error
		Close() error
	}

	// Stater is implemented by backends that can cheaply report a document's modification time.
	Stater interface {
		Stat(ctx context.Context, key string) (time.Time, error)
	}

	// Entry is a value to be saved under Key.
	Entry struct {
		Key   string
		Value interface{}
	}

	cacheEntry struct {
		data      []byte
		modTime   time.Time
		fetchedAt time.Time
	}

	Store struct {
		backend Backend
		ttl     time.Duration
		mu      sync.Mutex
		cache   map[string]cacheEntry
		lastMod map[string]time.Time // survives cache eviction
		now     func() time.Time
		logger  core.Logger
	}
)

// New returns a Store reading through a cache whose entries live for ttl. A zero ttl disables caching.
func New(backend Backend, ttl time.Duration) *Store {
	return &Store{
		backend: backend,
		ttl:     ttl,
		cache:   make(map[string]cacheEntry),
		lastMod: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetLogger sets the logger reporting defaults that could not be persisted.
func (s *Store) SetLogger(logger core.Logger) { s.logger = logger }

func (s *Store) Backend() Backend { return s.backend }

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) cached(ctx context.Context, key string) (cacheEntry, bool) {
	s.mu.Lock()
	e, ok := s.cache[key]
	s.mu.Unlock()
	if !ok || s.ttl <= 0 || s.now().Sub(e.fetchedAt) >= s.ttl {
		return cacheEntry{}, false
	}
	if st, ok := s.backend.(Stater); ok {
		modTime, err := st.Stat(ctx, key)
		if err != nil || !modTime.Equal(e.modTime) {
			return cacheEntry{}, false
		}
	}
	return e, true
}

func (s *Store) remember(key string, data []byte, modTime time.Time) {
	s.mu.Lock()
	s.cache[key] = cacheEntry{data: data, modTime: modTime, fetchedAt: s.now()}
	if modTime.After(s.lastMod[key]) {
		s.lastMod[key] = modTime
	}
	s.mu.Unlock()
}

func (s *Store) read(ctx context.Context, key string) ([]byte, time.Time, error) {
	if e, ok := s.cached(ctx, key); ok {
		return e.data, e.modTime, nil
	}
	doc, err := s.backend.Read(ctx, key)
	if err != nil {
		return nil, time.Time{}, err
	}
	s.remember(key, doc.Data, doc.ModTime)
	return doc.Data, doc.ModTime, nil
}

// Load decodes the document stored under key into v and returns its modification time.
// A missing or undecodable document is replaced by the value reset() leaves in v.
// That default is persisted when possible; a failed write is logged and the default
// is still returned.
func (s *Store) Load(ctx context.Context, key string, v interface{}, reset func()) (time.Time, error) {
	data, modTime, err := s.read(ctx, key)
	if err == nil {
		if err = json.Unmarshal(data, v); err == nil {
			return modTime, nil
		}
	} else if !errors.Is(err, ErrNotExist) {
		return time.Time{}, core.NewStorageError("reading "+key, err)
	}

	reset()
	modTime, err = s.Save(ctx, Entry{Key: key, Value: v})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("persisting default "+key, err)
		}
		return s.now().Truncate(time.Millisecond), nil
	}
	return modTime, nil
}

// Save encodes the entries and writes them as one batch.
// On failure the previous content of every key is left in place.
func (s *Store) Save(ctx context.Context, entries ...Entry) (time.Time, error) {
	modTime := s.nextModTime(entries)
	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		data, err := json.MarshalIndent(e.Value, "", "  ")
		if err != nil {
			return time.Time{}, core.NewStorageError("encoding "+e.Key, err)
		}
		docs = append(docs, Document{Key: e.Key, Data: data, ModTime: modTime})
	}

	if err := s.backend.Write(ctx, docs...); err != nil {
		s.forget(entries)
		return time.Time{}, core.NewStorageError("writing", err)
	}
	for _, d := range docs {
		s.remember(d.Key, d.Data, d.ModTime)
	}
	return modTime, nil
}

// nextModTime returns now truncated to the millisecond, moved past the last known
// modification time of every key so that each write is visible to millisecond pollers.
func (s *Store) nextModTime(entries []Entry) time.Time {
	modTime := s.now().Truncate(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if last, ok := s.lastMod[e.Key]; ok && !modTime.After(last) {
			modTime = last.Truncate(time.Millisecond).Add(time.Millisecond)
		}
	}
	return modTime
}

func (s *Store) forget(entries []Entry) {
	s.mu.Lock()
	for _, e := range entries {
		delete(s.cache, e.Key)
	}
	s.mu.Unlock()
}
