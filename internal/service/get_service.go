package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/models"
	"github.com/bharatkse/image-storage-service/internal/storage"
)

// AccessInput selects how an image is served. ExpiresIn of zero means the
// service default; IncludeRecord attaches the metadata record to the result.
type AccessInput struct {
	ImageID       string
	Mode          models.AccessMode
	ExpiresIn     time.Duration
	IncludeRecord bool
}

// AccessResult is a time-limited URL plus, optionally, the record behind it.
type AccessResult struct {
	URL       string
	ExpiresIn time.Duration
	Record    *models.ImageRecord
}

// GetService resolves an image id to a time-limited access URL.
type GetService struct {
	store      storage.ObjectStore
	records    metadata.Store
	defaultTTL time.Duration
	log        zerolog.Logger
}

func NewGetService(store storage.ObjectStore, records metadata.Store, defaultTTL time.Duration, log zerolog.Logger) *GetService {
	if defaultTTL <= 0 {
		defaultTTL = 300 * time.Second
	}
	return &GetService{
		store:      store,
		records:    records,
		defaultTTL: defaultTTL,
		log:        log,
	}
}

func (s *GetService) GenerateAccessURL(ctx context.Context, input AccessInput) (AccessResult, error) {
	s.log.Debug().Str("image_id", input.ImageID).Str("mode", string(input.Mode)).Msg("generating access url")

	rec, err := s.fetchRecord(ctx, input.ImageID)
	if err != nil {
		return AccessResult{}, err
	}

	disposition := "inline"
	if input.Mode == models.AccessModeDownload {
		disposition = "attachment"
	}

	expiresIn := input.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = s.defaultTTL
	}

	url, err := s.store.PresignedGetURL(
		ctx,
		rec.BlobKey,
		fmt.Sprintf("%s; filename=%q", disposition, rec.DisplayName),
		expiresIn,
	)
	if err != nil {
		s.log.Error().Err(err).Str("image_id", input.ImageID).Str("blob_key", rec.BlobKey).Msg("presigned url generation failed")
		return AccessResult{}, models.WrapError(
			models.KindAccessURLFailed,
			"unable to generate image access URL",
			map[string]any{"image_id": input.ImageID},
			err,
		)
	}

	result := AccessResult{URL: url, ExpiresIn: expiresIn}
	if input.IncludeRecord {
		result.Record = &rec
	}

	s.log.Info().Str("image_id", input.ImageID).Str("mode", string(input.Mode)).Msg("access url generated")
	return result, nil
}

// GetRecord returns the metadata record only.
func (s *GetService) GetRecord(ctx context.Context, imageID string) (models.ImageRecord, error) {
	return s.fetchRecord(ctx, imageID)
}

func (s *GetService) fetchRecord(ctx context.Context, imageID string) (models.ImageRecord, error) {
	rec, found, err := s.records.Get(ctx, imageID)
	if err != nil {
		s.log.Error().Err(err).Str("image_id", imageID).Msg("record fetch failed")
		return models.ImageRecord{}, models.WrapError(
			models.KindMetadataReadFailed,
			"unable to retrieve image metadata",
			map[string]any{"image_id": imageID},
			err,
		)
	}
	if !found {
		s.log.Warn().Str("image_id", imageID).Msg("image not found")
		return models.ImageRecord{}, models.NewError(
			models.KindImageNotFound,
			"image not found",
			map[string]any{"image_id": imageID},
		)
	}
	if rec.BlobKey == "" {
		// should not occur: the upload invariant writes the record only
		// after the blob exists.
		s.log.Error().Str("image_id", imageID).Msg("record missing blob key")
		return models.ImageRecord{}, models.NewError(
			models.KindInvalidRecordState,
			"image metadata is incomplete",
			map[string]any{"image_id": imageID},
		)
	}
	return rec, nil
}
