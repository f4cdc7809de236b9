package auth

import "sync"

// MemoryKeystore is an in-memory SecureStore, useful in tests and as a
// scratch store for flows that must not persist credentials.
type MemoryKeystore struct {
	mu      sync.Mutex
	records map[string]*AccessToken
	slots   map[string]string
}

// NewMemoryKeystore creates an empty in-memory store.
func NewMemoryKeystore() *MemoryKeystore {
	return &MemoryKeystore{
		records: make(map[string]*AccessToken),
		slots:   make(map[string]string),
	}
}

// Set stores the record under key.
func (s *MemoryKeystore) Set(key string, token *AccessToken) bool {
	if key == "" || token == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *token
	s.records[key] = &clone
	return true
}

// Get returns the record under key, nil when absent.
func (s *MemoryKeystore) Get(key string) *AccessToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.records[key]
	if !ok {
		return nil
	}
	clone := *token
	return &clone
}

// GetAll returns a copy of every stored record.
func (s *MemoryKeystore) GetAll() map[string]*AccessToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*AccessToken, len(s.records))
	for key, token := range s.records {
		clone := *token
		out[key] = &clone
	}
	return out
}

// Keys lists the keys of all stored records.
func (s *MemoryKeystore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	return keys
}

// Delete removes the record under key.
func (s *MemoryKeystore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return false
	}
	delete(s.records, key)
	return true
}

// Clear removes all records.
func (s *MemoryKeystore) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*AccessToken)
	return true
}

// SetRaw writes an opaque string slot.
func (s *MemoryKeystore) SetRaw(key, value string) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return true
}

// GetRaw reads an opaque string slot.
func (s *MemoryKeystore) GetRaw(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[key]
}

// DeleteRaw clears an opaque string slot.
func (s *MemoryKeystore) DeleteRaw(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return true
}
