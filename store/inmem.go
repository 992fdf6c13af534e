package store

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when a key is absent.
var ErrNotFound = errors.New("store: key not found")

// Inmem is a map-backed KV store guarded by a mutex. This is the default
// backend: the engine keeps its authoritative state in the in-process
// event/round stores, so Inmem is sufficient for what is layered on KV
// (the ledger's recent-rounds snapshot).
type Inmem struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewInmem creates an empty in-memory KV store.
func NewInmem() *Inmem {
	return &Inmem{data: make(map[string][]byte)}
}

func (s *Inmem) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(val))
	copy(out, val)

	return out, nil
}

func (s *Inmem) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)

	s.data[string(key)] = cp

	return nil
}

func (s *Inmem) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, string(key))

	return nil
}

func (s *Inmem) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[string(key)]

	return ok, nil
}
