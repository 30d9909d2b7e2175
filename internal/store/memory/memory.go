package memory

import (
	"context"

	"github.com/patrickmn/go-cache"

	"github.com/hospitalops/ward-api/internal/store"
)

// Store keeps the slot in process memory for the life of the session.
// Used as the session backend and in tests.
type Store struct {
	cache *cache.Cache
	key   string
}

func NewStore(key string) *Store {
	return &Store{
		cache: cache.New(cache.NoExpiration, 0),
		key:   key,
	}
}

func (s *Store) Load(_ context.Context) ([]byte, error) {
	value, ok := s.cache.Get(s.key)
	if !ok {
		return nil, store.ErrNotFound
	}
	data := value.([]byte)
	return append([]byte(nil), data...), nil
}

func (s *Store) Save(_ context.Context, data []byte) error {
	s.cache.Set(s.key, append([]byte(nil), data...), cache.NoExpiration)
	return nil
}
