// Package memory provides an in-memory backend.IBackend.
//
// The store is backed by a lock-free xsync map and is safe for concurrent use. It is used
// by the rpc server to hold the data of each shard and by tests as a reference backend.
package memory

import (
	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/puzpuzpuz/xsync/v3"
	"sync/atomic"
)

// Store is a thread-safe in-memory key-value backend
type Store struct {
	data   *xsync.MapOf[string, []byte]
	closed atomic.Bool
}

// NewStore creates a new empty in-memory store
func NewStore() *Store {
	return &Store{
		data: xsync.NewMapOf[string, []byte](),
	}
}

// Len returns the number of keys in the store
func (s *Store) Len() int {
	return s.data.Size()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.IBackend)
// --------------------------------------------------------------------------

func (s *Store) Get(key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, backend.ErrClosed
	}
	value, ok := s.data.Load(key)
	if !ok {
		return nil, false, nil
	}

	// Copy value so callers can not modify the stored data
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	if s.closed.Load() {
		return backend.ErrClosed
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	s.data.Store(key, valueCopy)
	return nil
}

func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
