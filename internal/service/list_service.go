package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bharatkse/image-storage-service/internal/filters"
	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/models"
)

const (
	MinLimit = 1
	MaxLimit = 100
)

// ListInput describes one listing request. CreatedFrom/CreatedTo are already
// normalized day bounds in the stored timestamp form; only the date range is
// pushed down to the store, everything else is refined in memory.
type ListInput struct {
	OwnerID      string
	NameContains string
	CreatedFrom  string
	CreatedTo    string
	Offset       int
	Limit        int
	SortBy       models.SortField
	SortOrder    models.SortOrder
}

// ListResult is one page plus the post-filter totals.
type ListResult struct {
	Items      []models.ImageRecord
	TotalCount int
	HasMore    bool
}

// ListService runs the listing pipeline: range query pushdown, in-memory name
// filter, stable sort, offset pagination.
type ListService struct {
	records metadata.Store
	log     zerolog.Logger
}

func NewListService(records metadata.Store, log zerolog.Logger) *ListService {
	return &ListService{
		records: records,
		log:     log,
	}
}

func (s *ListService) List(ctx context.Context, input ListInput) (ListResult, error) {
	if input.Limit < MinLimit || input.Limit > MaxLimit {
		return ListResult{}, models.NewError(
			models.KindInvalidFilter,
			"limit must be between 1 and 100",
			map[string]any{"limit": input.Limit},
		)
	}
	if input.Offset < 0 {
		return ListResult{}, models.NewError(
			models.KindInvalidFilter,
			"offset must be zero or a positive integer",
			map[string]any{"offset": input.Offset},
		)
	}
	if input.CreatedFrom != "" && input.CreatedTo != "" && input.CreatedFrom > input.CreatedTo {
		return ListResult{}, models.NewError(
			models.KindInvalidFilter,
			"start date must be before end date",
			map[string]any{"start_date": input.CreatedFrom, "end_date": input.CreatedTo},
		)
	}

	items, err := s.fetchAll(ctx, input)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", input.OwnerID).Msg("metadata query failed")
		return ListResult{}, models.WrapError(
			models.KindMetadataReadFailed,
			"unable to retrieve images",
			map[string]any{"user_id": input.OwnerID},
			err,
		)
	}

	items = filters.NameContains(items, input.NameContains)
	filters.Sort(items, input.SortBy, input.SortOrder)
	page, total, hasMore := filters.Paginate(items, input.Offset, input.Limit)

	s.log.Info().
		Str("user_id", input.OwnerID).
		Int("total", total).
		Int("returned", len(page)).
		Msg("images listed")

	return ListResult{
		Items:      page,
		TotalCount: total,
		HasMore:    hasMore,
	}, nil
}

// fetchAll drains the owner+created_at index through store-side continuation
// tokens. The loop terminates on the first empty token.
func (s *ListService) fetchAll(ctx context.Context, input ListInput) ([]models.ImageRecord, error) {
	query := metadata.OwnerQuery{
		OwnerID:     input.OwnerID,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		ScanForward: false,
	}

	var items []models.ImageRecord
	for {
		page, err := s.records.QueryByOwner(ctx, query)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if page.NextToken == "" {
			return items, nil
		}
		query.StartToken = page.NextToken
	}
}
