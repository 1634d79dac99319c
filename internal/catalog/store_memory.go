package catalog

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// MemStore holds the catalog in memory. It seeds itself lazily on first
// access: concurrent first readers are collapsed into one seeding attempt
// and share its outcome. A failed seed leaves the store unseeded so the
// next call retries from scratch.
type MemStore struct {
	mu     sync.RWMutex
	m      map[int]Album
	nextID int

	seed   SeedFunc
	seeded atomic.Bool
	flight singleflight.Group
}

func NewMemStore() *MemStore {
	return NewMemStoreWithSeed(DefaultSeed)
}

func NewMemStoreWithSeed(seed SeedFunc) *MemStore {
	return &MemStore{m: map[int]Album{}, nextID: 1, seed: seed}
}

func (s *MemStore) ensureSeeded(ctx context.Context) error {
	if s.seeded.Load() {
		return nil
	}

	_, err, _ := s.flight.Do("seed", func() (any, error) {
		if s.seeded.Load() {
			return nil, nil
		}

		albums, err := s.seed(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		// Start from a clean collection so a retry after a partial failure
		// can never double-seed or hand out stale ids.
		s.m = make(map[int]Album, len(albums))
		s.nextID = 1
		for _, in := range albums {
			a := newAlbum(s.nextID, in)
			s.m[a.ID] = a
			s.nextID++
		}
		s.mu.Unlock()

		s.seeded.Store(true)
		return nil, nil
	})
	return err
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) ListSortedByID(ctx context.Context) ([]Album, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Album, 0, len(s.m))
	for _, a := range s.m {
		out = append(out, a)
	}

	// Ids are assigned monotonically, so id order is insertion order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int) (Album, bool, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return Album{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.m[id]
	return a, ok, nil
}

func (s *MemStore) Create(ctx context.Context, in InsertAlbum) (Album, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return Album{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := newAlbum(s.nextID, in)
	s.m[a.ID] = a
	s.nextID++
	return a, nil
}
