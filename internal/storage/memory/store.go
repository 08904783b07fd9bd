package memory

import (
	"context"
	"sync"

	"github.com/parastopwal07/dezerv-backend/internal/records"
)

// Store is an in-memory record store with the same contract as the mongo
// client. Used for tests and standalone runs without a database.
type Store struct {
	mu       sync.RWMutex
	byCat    map[string][]records.StructuredRecord
	messages []records.Message
	emails   []records.Email
	profiles []records.PersonalProfile
}

func NewStore() *Store {
	return &Store{byCat: make(map[string][]records.StructuredRecord)}
}

func (s *Store) DropAll(_ context.Context, categories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, category := range categories {
		delete(s.byCat, category)
		switch category {
		case records.CategoryMessages:
			s.messages = nil
		case records.CategoryEmails:
			s.emails = nil
		case records.CategoryPersonalData:
			s.profiles = nil
		}
	}
	return nil
}

func (s *Store) InsertMany(_ context.Context, category string, recs []records.StructuredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCat[category] = append(s.byCat[category], recs...)
	return nil
}

func (s *Store) FindAll(_ context.Context, category string) ([]records.StructuredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]records.StructuredRecord, len(s.byCat[category]))
	copy(out, s.byCat[category])
	return out, nil
}

// SeedLegacy loads legacy collections directly; ingestion never writes
// them, but the corpus builder reads them.
func (s *Store) SeedLegacy(messages []records.Message, emails []records.Email, profiles []records.PersonalProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messages...)
	s.emails = append(s.emails, emails...)
	s.profiles = append(s.profiles, profiles...)
}

func (s *Store) FindMessages(_ context.Context) ([]records.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]records.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *Store) FindEmails(_ context.Context) ([]records.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]records.Email, len(s.emails))
	copy(out, s.emails)
	return out, nil
}

func (s *Store) FindProfiles(_ context.Context) ([]records.PersonalProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]records.PersonalProfile, len(s.profiles))
	copy(out, s.profiles)
	return out, nil
}
