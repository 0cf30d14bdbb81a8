package refresh

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process Store. It carries the same CAS
// semantics as the durable stores and suits tests and single-process
// deployments. Records accumulate for the life of the process.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	byUser  map[string][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		byUser:  make(map[string][]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.Value]; exists {
		return ErrDuplicateValue
	}

	stored := *rec
	s.records[rec.Value] = &stored
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec.Value)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, value, userID, jti string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[value]
	if !ok || rec.UserID != userID || rec.JTI != jti {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) FindByValue(_ context.Context, value string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[value]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) Revoke(_ context.Context, value string, at time.Time, ip, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[value]
	if !ok {
		return false, ErrNotFound
	}
	if rec.Revoked {
		return false, nil
	}

	rec.Revoked = true
	rec.RevokedAt = at
	rec.RevokedByIP = ip
	rec.RevokedReason = reason
	return true, nil
}

func (s *MemoryStore) SetReplacedBy(_ context.Context, value, replacedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[value]
	if !ok {
		return ErrNotFound
	}
	rec.ReplacedBy = replacedBy
	return nil
}

func (s *MemoryStore) RevokeAllForUser(_ context.Context, userID string, at time.Time, ip, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, value := range s.byUser[userID] {
		rec := s.records[value]
		if rec.Revoked {
			continue
		}
		rec.Revoked = true
		rec.RevokedAt = at
		rec.RevokedByIP = ip
		rec.RevokedReason = reason
		n++
	}
	return n, nil
}

func (s *MemoryStore) Descendants(_ context.Context, value string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var chain []string
	seen := map[string]struct{}{value: {}}
	current := value
	for {
		rec, ok := s.records[current]
		if !ok || rec.ReplacedBy == "" {
			return chain, nil
		}
		next := rec.ReplacedBy
		if _, cycle := seen[next]; cycle {
			return chain, nil
		}
		seen[next] = struct{}{}
		chain = append(chain, next)
		current = next
	}
}
