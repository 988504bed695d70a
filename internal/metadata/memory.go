package metadata

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/bharatkse/image-storage-service/internal/models"
)

// MemoryStore is the in-memory Store used by tests. Error fields, when set,
// force the corresponding operation to fail. PageSize caps store-side pages so
// tests can exercise the continuation-token loop.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.ImageRecord

	PageSize int

	PutErr    error
	GetErr    error
	DeleteErr error
	QueryErr  error
	HashErr   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.ImageRecord)}
}

func (s *MemoryStore) Put(_ context.Context, rec models.ImageRecord, ifNotExists bool) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ImageID]; exists && ifNotExists {
		return ErrConditionFailed
	}
	s.records[rec.ImageID] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, imageID string) (models.ImageRecord, bool, error) {
	if s.GetErr != nil {
		return models.ImageRecord{}, false, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[imageID]
	return rec, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, imageID string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, imageID)
	return nil
}

func (s *MemoryStore) QueryByOwner(_ context.Context, q OwnerQuery) (Page, error) {
	if s.QueryErr != nil {
		return Page{}, s.QueryErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.matchOwner(q)

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		less := a.CreatedAt < b.CreatedAt ||
			(a.CreatedAt == b.CreatedAt && a.ImageID < b.ImageID)
		if q.ScanForward {
			return less
		}
		return !less
	})

	start := 0
	if q.StartToken != "" {
		start, _ = strconv.Atoi(q.StartToken)
	}
	if start > len(matched) {
		start = len(matched)
	}

	pageSize := q.Limit
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if s.PageSize > 0 && s.PageSize < pageSize {
		pageSize = s.PageSize
	}

	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := Page{Items: matched[start:end]}
	if end < len(matched) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (s *MemoryStore) QueryByOwnerHash(_ context.Context, ownerID, contentHash string, limit int) ([]models.ImageRecord, error) {
	if s.HashErr != nil {
		return nil, s.HashErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.ImageRecord
	for _, rec := range s.records {
		if rec.OwnerID == ownerID && rec.ContentHash != "" && rec.ContentHash == contentHash {
			items = append(items, rec)
			if limit > 0 && len(items) >= limit {
				break
			}
		}
	}
	return items, nil
}

func (s *MemoryStore) matchOwner(q OwnerQuery) []models.ImageRecord {
	var matched []models.ImageRecord
	for _, rec := range s.records {
		if rec.OwnerID != q.OwnerID {
			continue
		}
		if q.CreatedFrom != "" && rec.CreatedAt < q.CreatedFrom {
			continue
		}
		if q.CreatedTo != "" && rec.CreatedAt > q.CreatedTo {
			continue
		}
		matched = append(matched, rec)
	}
	return matched
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var _ Store = (*MemoryStore)(nil)
