package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/models"
	"github.com/bharatkse/image-storage-service/internal/storage"
)

func newGetFixture(t *testing.T) (*GetService, *storage.MemoryStore, *metadata.MemoryStore, models.ImageRecord) {
	t.Helper()

	blobs := storage.NewMemoryStore()
	records := metadata.NewMemoryStore()
	ctx := context.Background()

	upload := NewUploadService(blobs, records, nil, zerolog.Nop())
	rec, err := upload.Upload(ctx, pngUpload("user1", "a.png"))
	require.NoError(t, err)

	return NewGetService(blobs, records, 300*time.Second, zerolog.Nop()), blobs, records, rec
}

func TestGenerateAccessURLView(t *testing.T) {
	svc, _, _, rec := newGetFixture(t)

	result, err := svc.GenerateAccessURL(context.Background(), AccessInput{
		ImageID: rec.ImageID,
		Mode:    models.AccessModeView,
	})
	require.NoError(t, err)

	assert.Contains(t, result.URL, rec.BlobKey)
	assert.Contains(t, result.URL, "inline")
	assert.Equal(t, 300*time.Second, result.ExpiresIn)
	assert.Nil(t, result.Record)
}

func TestGenerateAccessURLDownloadWithRecord(t *testing.T) {
	svc, _, _, rec := newGetFixture(t)

	result, err := svc.GenerateAccessURL(context.Background(), AccessInput{
		ImageID:       rec.ImageID,
		Mode:          models.AccessModeDownload,
		ExpiresIn:     60 * time.Second,
		IncludeRecord: true,
	})
	require.NoError(t, err)

	assert.Contains(t, result.URL, "attachment")
	assert.Equal(t, 60*time.Second, result.ExpiresIn)
	require.NotNil(t, result.Record)
	assert.Equal(t, rec.ImageID, result.Record.ImageID)
}

func TestGenerateAccessURLNotFound(t *testing.T) {
	svc, _, _, _ := newGetFixture(t)

	_, err := svc.GenerateAccessURL(context.Background(), AccessInput{ImageID: "img_missing"})
	require.Error(t, err)
	assert.Equal(t, models.KindImageNotFound, models.KindOf(err))
}

func TestGenerateAccessURLInvalidRecordState(t *testing.T) {
	svc, _, records, _ := newGetFixture(t)

	broken := models.ImageRecord{ImageID: "img_broken", OwnerID: "user1", DisplayName: "b.png"}
	require.NoError(t, records.Put(context.Background(), broken, false))

	_, err := svc.GenerateAccessURL(context.Background(), AccessInput{ImageID: "img_broken"})
	require.Error(t, err)
	assert.Equal(t, models.KindInvalidRecordState, models.KindOf(err))
}

func TestGenerateAccessURLPresignFailure(t *testing.T) {
	svc, blobs, _, rec := newGetFixture(t)
	blobs.PresignErr = errors.New("signer offline")

	_, err := svc.GenerateAccessURL(context.Background(), AccessInput{ImageID: rec.ImageID})
	require.Error(t, err)
	assert.Equal(t, models.KindAccessURLFailed, models.KindOf(err))
}

func TestGetRecord(t *testing.T) {
	svc, _, _, rec := newGetFixture(t)

	got, err := svc.GetRecord(context.Background(), rec.ImageID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
