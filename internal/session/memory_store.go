package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	bookingDomain "github.com/washline/service-booking/internal/domain/booking"
	"github.com/washline/service-booking/internal/platform/domain"
)

// MemoryStore is an in-process SessionRepository for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]bookingDomain.WizardSnapshot
	locks    map[uuid.UUID]bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]bookingDomain.WizardSnapshot),
		locks:    make(map[uuid.UUID]bool),
	}
}

// Get loads a wizard session.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*bookingDomain.Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.sessions[id]
	if !ok {
		return nil, domain.NewNotFoundError("BookingSession", id.String())
	}
	return bookingDomain.RestoreWizard(snap), nil
}

// Create stores a new wizard session.
func (s *MemoryStore) Create(_ context.Context, w *bookingDomain.Wizard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[w.ID()]; ok {
		return domain.NewConflictError("booking session already exists")
	}
	s.sessions[w.ID()] = w.Snapshot()
	return nil
}

// Save overwrites an existing wizard session.
func (s *MemoryStore) Save(_ context.Context, w *bookingDomain.Wizard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[w.ID()]; !ok {
		return domain.NewNotFoundError("BookingSession", w.ID().String())
	}
	s.sessions[w.ID()] = w.Snapshot()
	return nil
}

// Delete removes a wizard session.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Lock takes the session's exclusive lock; unlock releases it.
func (s *MemoryStore) Lock(_ context.Context, id uuid.UUID) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[id] {
		return nil, domain.NewConflictError("booking session is being changed by another request")
	}
	s.locks[id] = true
	return func() {
		s.mu.Lock()
		delete(s.locks, id)
		s.mu.Unlock()
	}, nil
}
