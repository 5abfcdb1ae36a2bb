package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used in tests and local development.
type MemoryRepo struct {
	mu       sync.RWMutex
	docs     map[string]Document
	versions map[string][]DocumentVersion
	metadata map[string]Metadata
}

// NewMemoryRepo creates an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:     make(map[string]Document),
		versions: make(map[string][]DocumentVersion),
		metadata: make(map[string]Metadata),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return ErrConflict
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) Search(ctx context.Context, filter SearchFilter) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Document
	for _, doc := range r.docs {
		if filter.ApplicationID != "" && doc.ApplicationID != filter.ApplicationID {
			continue
		}
		if filter.DocumentType != "" && !strings.EqualFold(doc.DocumentType, filter.DocumentType) {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		if filter.UploadedBy != "" && doc.UploadedBy != filter.UploadedBy {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ListByApplication(ctx context.Context, applicationID string) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Document
	for _, doc := range r.docs {
		if doc.ApplicationID == applicationID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, doc Document, expectedUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.docs[doc.ID]
	if !ok {
		return ErrNotFound
	}
	if !current.UpdatedAt.Equal(expectedUpdatedAt) {
		return ErrStale
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[documentID]; !ok {
		return ErrNotFound
	}
	delete(r.docs, documentID)
	delete(r.versions, documentID)
	delete(r.metadata, documentID)
	return nil
}

func (r *MemoryRepo) CreateVersion(ctx context.Context, v DocumentVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.versions[v.DocumentID] {
		if existing.VersionNumber == v.VersionNumber {
			return ErrConflict
		}
	}
	r.versions[v.DocumentID] = append(r.versions[v.DocumentID], v)
	return nil
}

func (r *MemoryRepo) ListVersions(ctx context.Context, documentID string) ([]DocumentVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]DocumentVersion(nil), r.versions[documentID]...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].VersionNumber > out[j].VersionNumber
	})
	return out, nil
}

func (r *MemoryRepo) GetVersion(ctx context.Context, documentID string, versionNumber int) (DocumentVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions[documentID] {
		if v.VersionNumber == versionNumber {
			return v, nil
		}
	}
	return DocumentVersion{}, ErrVersionNotFound
}

func (r *MemoryRepo) GetMetadata(ctx context.Context, documentID string) (Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.metadata[documentID]
	if !ok {
		return Metadata{}, ErrNotFound
	}
	return meta, nil
}

func (r *MemoryRepo) UpsertMetadata(ctx context.Context, meta Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[meta.DocumentID] = meta
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
