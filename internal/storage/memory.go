package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is the in-memory ObjectStore used by tests. Error fields, when
// set, force the corresponding operation to fail.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]Object

	PutErr     error
	GetErr     error
	DeleteErr  error
	PresignErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string, _ map[string]string) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = Object{Data: stored, ContentType: contentType, Size: int64(len(data))}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Object, error) {
	if s.GetErr != nil {
		return Object{}, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return Object{}, ErrObjectNotFound
	}
	return obj, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) PresignedGetURL(_ context.Context, key string, disposition string, expiry time.Duration) (string, error) {
	if s.PresignErr != nil {
		return "", s.PresignErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return "", ErrObjectNotFound
	}
	return fmt.Sprintf("https://storage.local/%s?disposition=%s&expires=%d", key, disposition, int(expiry.Seconds())), nil
}

// Has reports whether a blob exists under key.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

var _ ObjectStore = (*MemoryStore)(nil)
