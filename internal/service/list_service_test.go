package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/models"
	"github.com/bharatkse/image-storage-service/internal/storage"
)

func seedRecords(t *testing.T, records *metadata.MemoryStore, owner string, names ...string) {
	t.Helper()
	for i, name := range names {
		rec := models.ImageRecord{
			ImageID:     fmt.Sprintf("img_%s_%02d", owner, i),
			OwnerID:     owner,
			DisplayName: name,
			CreatedAt:   fmt.Sprintf("2024-01-%02dT12:00:00.000000+00:00", i+1),
			BlobKey:     fmt.Sprintf("images/%s/img_%02d.png", owner, i),
			ByteSize:    100,
			MimeType:    "image/png",
		}
		require.NoError(t, records.Put(context.Background(), rec, true))
	}
}

func listInput(owner string) ListInput {
	return ListInput{
		OwnerID:   owner,
		Limit:     20,
		SortBy:    models.SortByCreatedAt,
		SortOrder: models.SortDesc,
	}
}

func TestListValidation(t *testing.T) {
	svc := NewListService(metadata.NewMemoryStore(), zerolog.Nop())
	ctx := context.Background()

	for _, limit := range []int{0, -1, 101} {
		input := listInput("user1")
		input.Limit = limit
		_, err := svc.List(ctx, input)
		require.Error(t, err, "limit %d", limit)
		assert.Equal(t, models.KindInvalidFilter, models.KindOf(err))
	}

	input := listInput("user1")
	input.Offset = -1
	_, err := svc.List(ctx, input)
	require.Error(t, err)
	assert.Equal(t, models.KindInvalidFilter, models.KindOf(err))

	input = listInput("user1")
	input.CreatedFrom = "2024-02-01T00:00:00.000000+00:00"
	input.CreatedTo = "2024-01-01T23:59:59.999999+00:00"
	_, err = svc.List(ctx, input)
	require.Error(t, err)
	assert.Equal(t, models.KindInvalidFilter, models.KindOf(err))
}

func TestListDefaultOrder(t *testing.T) {
	records := metadata.NewMemoryStore()
	seedRecords(t, records, "user1", "a.png", "b.png", "c.png", "d.png")
	svc := NewListService(records, zerolog.Nop())

	result, err := svc.List(context.Background(), listInput("user1"))
	require.NoError(t, err)

	require.Len(t, result.Items, 4)
	assert.Equal(t, 4, result.TotalCount)
	assert.False(t, result.HasMore)

	// newest first by default
	assert.Equal(t, "d.png", result.Items[0].DisplayName)
	assert.Equal(t, "a.png", result.Items[3].DisplayName)
}

func TestListNameAscending(t *testing.T) {
	records := metadata.NewMemoryStore()
	seedRecords(t, records, "user1", "pear.png", "apple.png", "mango.png")
	svc := NewListService(records, zerolog.Nop())

	input := listInput("user1")
	input.SortBy = models.SortByDisplayName
	input.SortOrder = models.SortAsc

	result, err := svc.List(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "apple.png", result.Items[0].DisplayName)
	assert.Equal(t, "mango.png", result.Items[1].DisplayName)
	assert.Equal(t, "pear.png", result.Items[2].DisplayName)
}

func TestListNameContains(t *testing.T) {
	records := metadata.NewMemoryStore()
	seedRecords(t, records, "user1", "sunset.jpg", "Sunrise.png", "moon.gif")
	svc := NewListService(records, zerolog.Nop())

	input := listInput("user1")
	input.NameContains = "SUN"

	result, err := svc.List(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalCount)
	for _, item := range result.Items {
		assert.Contains(t, []string{"sunset.jpg", "Sunrise.png"}, item.DisplayName)
	}
}

func TestListDateRangePushdown(t *testing.T) {
	records := metadata.NewMemoryStore()
	seedRecords(t, records, "user1", "a.png", "b.png", "c.png", "d.png", "e.png")
	svc := NewListService(records, zerolog.Nop())

	input := listInput("user1")
	input.CreatedFrom = "2024-01-02T00:00:00.000000+00:00"
	input.CreatedTo = "2024-01-04T23:59:59.999999+00:00"

	result, err := svc.List(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, "d.png", result.Items[0].DisplayName)
	assert.Equal(t, "b.png", result.Items[2].DisplayName)
}

func TestListPagination(t *testing.T) {
	records := metadata.NewMemoryStore()
	seedRecords(t, records, "user1", "a.png", "b.png", "c.png", "d.png", "e.png")
	svc := NewListService(records, zerolog.Nop())

	input := listInput("user1")
	input.Limit = 2

	result, err := svc.List(context.Background(), input)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 5, result.TotalCount)
	assert.True(t, result.HasMore)

	input.Offset = 4
	result, err = svc.List(context.Background(), input)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 5, result.TotalCount)
	assert.False(t, result.HasMore)

	input.Offset = 10
	input.Limit = 5
	result, err = svc.List(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 5, result.TotalCount)
	assert.False(t, result.HasMore)
}

func TestListDrainsContinuationTokens(t *testing.T) {
	records := metadata.NewMemoryStore()
	records.PageSize = 2 // force multiple store-side pages
	seedRecords(t, records, "user1", "a.png", "b.png", "c.png", "d.png", "e.png")
	svc := NewListService(records, zerolog.Nop())

	result, err := svc.List(context.Background(), listInput("user1"))
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalCount)
	assert.Len(t, result.Items, 5)
}

func TestListOwnerScoping(t *testing.T) {
	records := metadata.NewMemoryStore()
	seedRecords(t, records, "user1", "a.png", "b.png")
	seedRecords(t, records, "user2", "x.png")
	svc := NewListService(records, zerolog.Nop())

	result, err := svc.List(context.Background(), listInput("user2"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, "x.png", result.Items[0].DisplayName)
}

func TestListQueryFailure(t *testing.T) {
	records := metadata.NewMemoryStore()
	records.QueryErr = errors.New("index offline")
	svc := NewListService(records, zerolog.Nop())

	_, err := svc.List(context.Background(), listInput("user1"))
	require.Error(t, err)
	assert.Equal(t, models.KindMetadataReadFailed, models.KindOf(err))
}

// Full lifecycle: upload, list, delete, list again.
func TestLifecycleScenario(t *testing.T) {
	blobs := storage.NewMemoryStore()
	records := metadata.NewMemoryStore()
	ctx := context.Background()

	uploadSvc := NewUploadService(blobs, records, nil, zerolog.Nop())
	listSvc := NewListService(records, zerolog.Nop())
	deleteSvc := NewDeleteService(blobs, records, zerolog.Nop())

	rec, err := uploadSvc.Upload(ctx, pngUpload("user1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", rec.MimeType)
	assert.Equal(t, int64(len(pngBytes)), rec.ByteSize)

	input := listInput("user1")
	input.Limit = 10
	listed, err := listSvc.List(ctx, input)
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, 1, listed.TotalCount)
	assert.False(t, listed.HasMore)

	_, err = deleteSvc.Delete(ctx, rec.ImageID)
	require.NoError(t, err)

	listed, err = listSvc.List(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 0, listed.TotalCount)
	assert.Empty(t, listed.Items)
}
