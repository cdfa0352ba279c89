package repository

import (
	"context"
	"sort"
	"sync"

	"scene-service/internal/models"
)

var _ PlacedModelRepository = (*MemoryModelStore)(nil)

// MemoryModelStore keeps placed models in process memory. It backs tests and
// ephemeral deployments without a database.
type MemoryModelStore struct {
	mu      sync.RWMutex
	records map[string]models.PlacedModel
}

func NewMemoryModelStore(initial ...models.PlacedModel) *MemoryModelStore {
	s := &MemoryModelStore{records: make(map[string]models.PlacedModel, len(initial))}
	for _, m := range initial {
		s.records[m.ID] = m
	}
	return s
}

func (s *MemoryModelStore) Get(_ context.Context, id string) (*models.PlacedModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *MemoryModelStore) Set(_ context.Context, m *models.PlacedModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[m.ID] = *m
	return nil
}

func (s *MemoryModelStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

func (s *MemoryModelStore) ListAll(_ context.Context) ([]models.PlacedModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.PlacedModel, 0, len(s.records))
	for _, m := range s.records {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// Len returns the number of stored records.
func (s *MemoryModelStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
