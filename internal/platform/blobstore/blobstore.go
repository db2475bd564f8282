// Package blobstore stores the bytes of uploaded case documents. Metadata
// lives in the database; a store only maps keys to content.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingKey         = errors.New("blob key is required")
)

// MaxFileSize is the maximum allowed blob size in bytes (15 MB).
const MaxFileSize = 15 * 1024 * 1024

// AllowedContentTypes lists the file types accepted for case documents.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/heic":      true,
	"application/pdf": true,
	"text/plain":      true,
}

// ValidateContentType checks ct against AllowedContentTypes, ignoring any
// parameters such as charset.
func ValidateContentType(ct string) error {
	base := strings.TrimSpace(strings.ToLower(strings.SplitN(ct, ";", 2)[0]))
	if !AllowedContentTypes[base] {
		return fmt.Errorf("%w: %q", ErrInvalidContentType, ct)
	}
	return nil
}

// Object describes stored content.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
}

// Store is the contract for blob backends.
type Store interface {
	Put(ctx context.Context, key, contentType string, content io.Reader) (*Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)
	Delete(ctx context.Context, key string) error
}

// readAll buffers content up to MaxFileSize and hashes it.
func readAll(content io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, "", ErrFileTooLarge
	}
	h := sha256.Sum256(data)
	return data, fmt.Sprintf("%x", h), nil
}

type storedBlob struct {
	object  Object
	content []byte
}

// MemoryStore is a thread-safe, in-memory Store for tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*storedBlob)}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, content io.Reader) (*Object, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	data, hash, err := readAll(content)
	if err != nil {
		return nil, err
	}

	obj := Object{Key: key, ContentType: contentType, Size: int64(len(data)), Hash: hash}
	s.mu.Lock()
	s.blobs[key] = &storedBlob{object: obj, content: data}
	s.mu.Unlock()

	return &obj, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, *Object, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	obj := blob.object
	return io.NopCloser(bytes.NewReader(blob.content)), &obj, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
