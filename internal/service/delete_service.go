package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/models"
	"github.com/bharatkse/image-storage-service/internal/storage"
	"github.com/bharatkse/image-storage-service/internal/timeutil"
)

// DeleteService removes an image: blob first, record second. The order is
// deliberate — a record must never outlive its blob silently, so when the blob
// delete fails the record stays put and the caller sees the failure.
type DeleteService struct {
	store   storage.ObjectStore
	records metadata.Store
	log     zerolog.Logger
}

func NewDeleteService(store storage.ObjectStore, records metadata.Store, log zerolog.Logger) *DeleteService {
	return &DeleteService{
		store:   store,
		records: records,
		log:     log,
	}
}

func (s *DeleteService) Delete(ctx context.Context, imageID string) (models.DeleteResult, error) {
	s.log.Debug().Str("image_id", imageID).Msg("starting image deletion")

	rec, found, err := s.records.Get(ctx, imageID)
	if err != nil {
		s.log.Error().Err(err).Str("image_id", imageID).Msg("record fetch failed")
		return models.DeleteResult{}, models.WrapError(
			models.KindMetadataReadFailed,
			"unable to retrieve image metadata",
			map[string]any{"image_id": imageID},
			err,
		)
	}
	if !found {
		s.log.Warn().Str("image_id", imageID).Msg("image not found")
		return models.DeleteResult{}, models.NewError(
			models.KindImageNotFound,
			"image not found",
			map[string]any{"image_id": imageID},
		)
	}
	if rec.BlobKey == "" {
		s.log.Error().Str("image_id", imageID).Msg("record missing blob key")
		return models.DeleteResult{}, models.NewError(
			models.KindInvalidRecordState,
			"image metadata is incomplete",
			map[string]any{"image_id": imageID},
		)
	}

	if err := s.store.Delete(ctx, rec.BlobKey); err != nil {
		s.log.Error().Err(err).Str("image_id", imageID).Str("blob_key", rec.BlobKey).Msg("blob delete failed")
		return models.DeleteResult{}, models.WrapError(
			models.KindStorageDeleteFailed,
			"unable to delete image from storage",
			map[string]any{"image_id": imageID},
			err,
		)
	}

	if err := s.records.Delete(ctx, imageID); err != nil {
		// The blob is already gone; the dangling record is a tolerated
		// inconsistency window that surfaces on the next retrieval.
		s.log.Error().Err(err).Str("image_id", imageID).Msg("record delete failed after blob delete")
		return models.DeleteResult{}, models.WrapError(
			models.KindMetadataDeleteFail,
			"unable to delete image metadata",
			map[string]any{"image_id": imageID},
			err,
		)
	}

	s.log.Info().Str("image_id", imageID).Msg("image deleted")
	return models.DeleteResult{
		ImageID:   imageID,
		BlobKey:   rec.BlobKey,
		DeletedAt: timeutil.NowISO(),
	}, nil
}
