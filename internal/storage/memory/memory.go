package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"folio/internal/domain/storage"
)

// BlobStore implements storage.BlobStore and storage.BucketProvisioner in
// process memory. It backs STORAGE_BACKEND=memory and the service tests.
//
// The Fail* hooks let tests inject backend failures per operation; they are
// consulted with the object path and return the error to report, or nil.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string]object
	buckets map[string]storage.BucketSpec

	FailUpload func(path string) error
	FailRemove func(path string) error
	FailSign   func(path string) error
}

type object struct {
	data        []byte
	contentType string
}

// NewBlobStore creates an empty store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		objects: make(map[string]object),
		buckets: make(map[string]storage.BucketSpec),
	}
}

// Upload copies r into memory. Fewer than size bytes is an error.
func (s *BlobStore) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	if s.FailUpload != nil {
		if err := s.FailUpload(path); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read body for %s: %w", path, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("body for %s has %d bytes, expected %d", path, len(data), size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = object{data: data, contentType: contentType}
	return nil
}

// Download returns a reader over a copy of the stored bytes.
func (s *BlobStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, storage.ErrBlobNotFound)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Remove deletes paths. Missing paths are ignored.
func (s *BlobStore) Remove(ctx context.Context, paths []string) error {
	if s.FailRemove != nil {
		for _, p := range paths {
			if err := s.FailRemove(p); err != nil {
				return err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.objects, p)
	}
	return nil
}

// CreateSignedURL returns a memory:// URL carrying the expiry.
func (s *BlobStore) CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if s.FailSign != nil {
		if err := s.FailSign(path); err != nil {
			return "", err
		}
	}

	s.mu.RLock()
	_, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", path, storage.ErrBlobNotFound)
	}

	u := url.URL{
		Scheme:   "memory",
		Host:     "blobs",
		Path:     "/" + path,
		RawQuery: url.Values{"expires": {fmt.Sprint(time.Now().Add(ttl).Unix())}}.Encode(),
	}
	return u.String(), nil
}

// EnsureBucket records spec; repeated calls keep the first spec.
func (s *BlobStore) EnsureBucket(ctx context.Context, spec storage.BucketSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[spec.Name]; !ok {
		s.buckets[spec.Name] = spec
	}
	return nil
}

// Has reports whether path is stored.
func (s *BlobStore) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[path]
	return ok
}

// Len returns the number of stored objects.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Bucket returns the spec a bucket was provisioned with.
func (s *BlobStore) Bucket(name string) (storage.BucketSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.buckets[name]
	return spec, ok
}
