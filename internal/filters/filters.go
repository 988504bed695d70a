// Package filters holds the in-memory half of the listing pipeline: substring
// refinement, stable sorting, and offset pagination. It operates on records
// already fetched from the metadata store and performs no data access itself.
package filters

import (
	"sort"
	"strings"

	"github.com/bharatkse/image-storage-service/internal/models"
)

// NameContains keeps records whose display name contains term,
// case-insensitively. A blank term returns the input unchanged.
func NameContains(records []models.ImageRecord, term string) []models.ImageRecord {
	if strings.TrimSpace(term) == "" {
		return records
	}

	needle := strings.ToLower(term)
	var kept []models.ImageRecord
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.DisplayName), needle) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Sort orders records by the requested field in place. The sort is stable so
// ties keep their original relative order.
func Sort(records []models.ImageRecord, field models.SortField, order models.SortOrder) {
	sort.SliceStable(records, func(i, j int) bool {
		var less bool
		switch field {
		case models.SortByDisplayName:
			less = records[i].DisplayName < records[j].DisplayName
		default:
			less = records[i].CreatedAt < records[j].CreatedAt
		}
		if order == models.SortDesc {
			return !less && !equalField(records[i], records[j], field)
		}
		return less
	})
}

func equalField(a, b models.ImageRecord, field models.SortField) bool {
	if field == models.SortByDisplayName {
		return a.DisplayName == b.DisplayName
	}
	return a.CreatedAt == b.CreatedAt
}

// Paginate slices records to the [offset, offset+limit) window and reports the
// pre-pagination total and whether more items exist beyond the window. An
// offset past the end yields an empty page with the correct total.
func Paginate(records []models.ImageRecord, offset, limit int) (page []models.ImageRecord, total int, hasMore bool) {
	total = len(records)

	if offset >= total {
		return nil, total, false
	}

	end := offset + limit
	if end > total {
		end = total
	}
	return records[offset:end], total, end < total
}
