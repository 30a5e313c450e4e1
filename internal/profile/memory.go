package profile

import (
	"context"
	"fmt"
	"sync"

	"spelling-hive/internal/words"
)

type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]*Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*Profile)}
}

// Put replaces a profile wholesale.
func (s *MemoryStore) Put(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := p
	if copied.Title == "" {
		copied.Title = words.Title(copied.Corrects, copied.Wins)
	}
	s.profiles[p.ID] = &copied
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	return *p, nil
}

func (s *MemoryStore) Ensure(ctx context.Context, userID, name string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return *p, nil
	}
	p := &Profile{ID: userID, DisplayName: DisplayName(name, ""), Title: words.Title(0, 0)}
	s.profiles[userID] = p
	return *p, nil
}

func (s *MemoryStore) ApplyCorrectAnswer(ctx context.Context, userID string, stars int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	p.Corrects++
	p.Nectar += stars
	p.LifetimeNectar += stars
	p.Title = words.Title(p.Corrects, p.Wins)
	return nil
}

func (s *MemoryStore) ApplyWin(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	p.Wins++
	p.Title = words.Title(p.Corrects, p.Wins)
	return nil
}
