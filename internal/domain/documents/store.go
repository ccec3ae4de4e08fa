package documents

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DocumentStore is the storage contract for case scans.
type DocumentStore interface {
	// Upload validates and persists a scan, returning the stored
	// metadata with ID, Size, Hash and CreatedAt filled in.
	Upload(ctx context.Context, doc Document, content io.Reader) (*Document, error)

	// Download returns the scan content and its metadata.
	Download(ctx context.Context, id string) (io.ReadCloser, *Document, error)

	// GetMetadata returns the metadata without the content.
	GetMetadata(ctx context.Context, id string) (*Document, error)

	// Delete removes a scan and its metadata.
	Delete(ctx context.Context, id string) error

	// ListByCase returns scans for a case, newest first, optionally
	// filtered by category. The second return is the total before
	// limit and offset are applied.
	ListByCase(ctx context.Context, caseID, category string, limit, offset int) ([]*Document, int, error)
}

// MemStore keeps scans in process memory. Content and metadata are
// copied on the way in and out so callers can never mutate stored state.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	meta  map[string]*Document
}

func NewMemStore() *MemStore {
	return &MemStore{
		blobs: make(map[string][]byte),
		meta:  make(map[string]*Document),
	}
}

func (s *MemStore) Upload(_ context.Context, doc Document, content io.Reader) (*Document, error) {
	if doc.FileName == "" {
		return nil, ErrMissingFileName
	}
	if doc.CaseID == "" {
		return nil, ErrMissingCaseID
	}
	if !AllowedContentTypes[doc.ContentType] {
		return nil, ErrInvalidContentType
	}
	if doc.Category == "" {
		doc.Category = "other"
	}
	if !AllowedCategories[doc.Category] {
		return nil, ErrInvalidCategory
	}

	// Read one byte past the cap to tell "exactly at the limit"
	// apart from "over it".
	data, err := io.ReadAll(io.LimitReader(content, MaxScanSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > MaxScanSize {
		return nil, ErrFileTooLarge
	}

	doc.ID = uuid.New().String()
	doc.Size = int64(len(data))
	doc.Hash = fmt.Sprintf("%x", sha256.Sum256(data))
	doc.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.blobs[doc.ID] = data
	stored := doc
	s.meta[doc.ID] = &stored
	s.mu.Unlock()

	out := doc
	return &out, nil
}

func (s *MemStore) Download(_ context.Context, id string) (io.ReadCloser, *Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.meta[id]
	if !ok {
		return nil, nil, ErrDocumentNotFound
	}
	data := append([]byte(nil), s.blobs[id]...)
	m := *meta
	return io.NopCloser(bytes.NewReader(data)), &m, nil
}

func (s *MemStore) GetMetadata(_ context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.meta[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	m := *meta
	return &m, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meta[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(s.meta, id)
	delete(s.blobs, id)
	return nil
}

func (s *MemStore) ListByCase(_ context.Context, caseID, category string, limit, offset int) ([]*Document, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	matched := make([]*Document, 0)
	for _, meta := range s.meta {
		if meta.CaseID != caseID {
			continue
		}
		if category != "" && meta.Category != category {
			continue
		}
		m := *meta
		matched = append(matched, &m)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if offset >= total {
		return []*Document{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
