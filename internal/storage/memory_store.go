package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"funnel-tracker/internal/models"
)

type MemoryStore struct {
	mu        sync.RWMutex
	prospects map[string]models.Prospect
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prospects: make(map[string]models.Prospect),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, p models.Prospect) (models.Prospect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.prospects[p.ID] = p
	return p, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prospects[id]
	if !ok {
		return models.Prospect{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Update(_ context.Context, p models.Prospect) (models.Prospect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.prospects[p.ID]
	if !ok {
		return models.Prospect{}, ErrNotFound
	}
	p.UserID = existing.UserID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.prospects[p.ID] = p
	return p, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prospects[id]; !ok {
		return ErrNotFound
	}
	delete(s.prospects, id)
	return nil
}

func (s *MemoryStore) Search(_ context.Context, f SearchFilter) ([]models.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(f.Query))
	status := f.status()

	filtered := make([]models.Prospect, 0)
	for _, p := range s.prospects {
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		if status != "" && string(p.Status) != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.BusinessName), query) {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].ID < filtered[j].ID
	})
	return filtered, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
