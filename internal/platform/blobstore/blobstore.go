// Package blobstore stores uploaded documents. It defines the Store port,
// an in-memory backend for tests and development, a pebble-backed backend
// for single-node deployments, HMAC presigned download URLs and the HTTP
// handler that serves them.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingKey         = errors.New("blob key is required")
)

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// MaxFileSize is the largest blob a backend accepts (10 MB).
const MaxFileSize = 10 * 1024 * 1024

// AllowedContentTypes are the document formats the extraction model reads.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

// Metadata describes a stored blob.
type Metadata struct {
	Key         string    `json:"key"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store is the blob storage port.
type Store interface {
	Put(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *Metadata, error)
	Stat(ctx context.Context, key string) (*Metadata, error)
	Delete(ctx context.Context, key string) error
}

// prepare validates meta and reads content, filling in size, hash and
// creation time.
func prepare(meta Metadata, content io.Reader) (Metadata, []byte, error) {
	if meta.Key == "" {
		return meta, nil, ErrMissingKey
	}
	if !AllowedContentTypes[meta.ContentType] {
		return meta, nil, fmt.Errorf("%w: %s", ErrInvalidContentType, meta.ContentType)
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return meta, nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return meta, nil, ErrFileTooLarge
	}

	sum := sha256.Sum256(data)
	meta.Size = int64(len(data))
	meta.Hash = hex.EncodeToString(sum[:])
	meta.CreatedAt = time.Now().UTC()
	return meta, data, nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type storedBlob struct {
	metadata Metadata
	content  []byte
}

// InMemoryStore is a thread-safe Store kept in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string]*storedBlob)}
}

// Put stores content under meta.Key, replacing any previous blob.
func (s *InMemoryStore) Put(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[meta.Key] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *InMemoryStore) Get(_ context.Context, key string) (io.ReadCloser, *Metadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *InMemoryStore) Stat(_ context.Context, key string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	meta := blob.metadata
	return &meta, nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}
