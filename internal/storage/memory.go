// Package storage provides blob store implementations for recipe and avatar images.
package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryBlobStore keeps blobs in memory. It backs local development and
// tests; the Fail* fields inject store errors. Safe for concurrent access.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject

	FailPut    error
	FailRemove error
	FailExists error
}

type memoryObject struct {
	contentType string
	data        []byte
}

// NewMemoryBlobStore creates an empty store named bucket.
func NewMemoryBlobStore(bucket string) *MemoryBlobStore {
	return &MemoryBlobStore{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryBlobStore) Bucket() string {
	return s.bucket
}

func (s *MemoryBlobStore) baseURL() string {
	return "memory://" + s.bucket + "/"
}

// Put stores a copy of data under name.
func (s *MemoryBlobStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPut != nil {
		return "", s.FailPut
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[name] = memoryObject{contentType: contentType, data: buf}
	return s.baseURL() + name, nil
}

// Remove deletes the named objects. Missing names are ignored.
func (s *MemoryBlobStore) Remove(ctx context.Context, names ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailRemove != nil {
		return s.FailRemove
	}
	for _, name := range names {
		delete(s.objects, name)
	}
	return nil
}

func (s *MemoryBlobStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailExists != nil {
		return false, s.FailExists
	}
	_, ok := s.objects[name]
	return ok, nil
}

func (s *MemoryBlobStore) NameFromURL(url string) (string, error) {
	name, ok := strings.CutPrefix(url, s.baseURL())
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("url %q does not belong to bucket %s", url, s.bucket)
	}
	return name, nil
}

// Get returns the bytes stored under name.
func (s *MemoryBlobStore) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[name]
	return obj.data, ok
}

// GetURL resolves a retrieval URL to its bytes.
func (s *MemoryBlobStore) GetURL(url string) ([]byte, bool) {
	name, err := s.NameFromURL(url)
	if err != nil {
		return nil, false
	}
	return s.Get(name)
}

// Len returns the number of stored objects.
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
