package lockstore

import (
	"sort"
	"sync"

	"livecap/internal/services"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	markers map[string]Marker
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markers: make(map[string]Marker)}
}

func (s *MemoryStore) Exists(id string) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.markers[id]
	return ok, nil
}

func (s *MemoryStore) Acquire(id string, meta Marker) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markers[id]; ok {
		return services.Wrap(services.ErrLockStore, component, "acquire", id, ErrHeld)
	}
	meta.ID = id
	s.markers[id] = meta
	return nil
}

func (s *MemoryStore) Release(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, id)
	return nil
}

func (s *MemoryStore) ClearAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.markers)
	clear(s.markers)
	return n, nil
}

func (s *MemoryStore) List() ([]Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
