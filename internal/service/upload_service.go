package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bharatkse/image-storage-service/internal/ids"
	"github.com/bharatkse/image-storage-service/internal/media/sniffer"
	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/models"
	"github.com/bharatkse/image-storage-service/internal/storage"
	"github.com/bharatkse/image-storage-service/internal/timeutil"
)

// allowedMIMETypes is the upload allow-list. Content that sniffs to anything
// else is rejected before any store call.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// UploadInput carries already-validated request fields. The caller's
// validation layer owns owner-id shape, name extension, size cap, and tag
// normalization; the coordinator trusts them.
type UploadInput struct {
	OwnerID     string
	DisplayName string
	Data        []byte
	Description string
	Tags        []string
}

// UploadService coordinates the two-phase image write: blob first, record
// second, with a best-effort compensating delete when the record write fails.
type UploadService struct {
	store   storage.ObjectStore
	records metadata.Store
	orphans OrphanReporter
	log     zerolog.Logger
}

func NewUploadService(store storage.ObjectStore, records metadata.Store, orphans OrphanReporter, log zerolog.Logger) *UploadService {
	return &UploadService{
		store:   store,
		records: records,
		orphans: orphans,
		log:     log,
	}
}

func (s *UploadService) Upload(ctx context.Context, input UploadInput) (models.ImageRecord, error) {
	s.log.Debug().Str("user_id", input.OwnerID).Msg("starting image upload")

	// Classify by content, never by the declared name.
	detected, err := sniffer.DetectHead(input.Data)
	if err != nil || !allowedMIMETypes[detected.MIME] {
		s.log.Warn().Str("user_id", input.OwnerID).Str("mime_type", detected.MIME).Msg("unsupported media type")
		return models.ImageRecord{}, models.NewError(
			models.KindUnsupportedMedia,
			"unsupported image type",
			map[string]any{"mime_type": detected.MIME},
		)
	}

	sum := sha256.Sum256(input.Data)
	contentHash := hex.EncodeToString(sum[:])

	// Best-effort duplicate guard. The check-then-write pair is not atomic;
	// concurrent identical uploads can both pass. If the index query itself
	// fails the guard is skipped rather than blocking the upload.
	dupes, err := s.records.QueryByOwnerHash(ctx, input.OwnerID, contentHash, 1)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", input.OwnerID).Msg("duplicate check unavailable, skipping")
	} else if len(dupes) > 0 {
		s.log.Info().Str("user_id", input.OwnerID).Msg("duplicate image detected")
		return models.ImageRecord{}, models.NewError(
			models.KindDuplicateContent,
			"this image already exists",
			map[string]any{"user_id": input.OwnerID, "existing_image_id": dupes[0].ImageID},
		)
	}

	imageID := ids.New()
	blobKey := buildBlobKey(input.OwnerID, imageID, detected.Type.Extension())

	if err := s.store.Put(ctx, blobKey, input.Data, detected.MIME, map[string]string{
		"image_id": imageID,
		"user_id":  input.OwnerID,
	}); err != nil {
		s.log.Error().Err(err).Str("blob_key", blobKey).Msg("blob write failed")
		return models.ImageRecord{}, models.WrapError(
			models.KindStorageWriteFailed,
			"unable to upload image",
			map[string]any{"image_id": imageID},
			err,
		)
	}

	rec := models.ImageRecord{
		ImageID:     imageID,
		OwnerID:     input.OwnerID,
		DisplayName: input.DisplayName,
		Description: input.Description,
		Tags:        input.Tags,
		CreatedAt:   timeutil.NowISO(),
		BlobKey:     blobKey,
		ByteSize:    int64(len(input.Data)),
		MimeType:    detected.MIME,
		ContentHash: contentHash,
	}

	if err := s.records.Put(ctx, rec, true); err != nil {
		if errors.Is(err, metadata.ErrConditionFailed) {
			// id collision; statistically unreachable, guarded anyway.
			// The blob is left alone: its key may belong to the record
			// that won the race.
			s.log.Error().Str("image_id", imageID).Msg("image id collision on record write")
			return models.ImageRecord{}, models.WrapError(
				models.KindDuplicateImage,
				"image id already exists",
				map[string]any{"image_id": imageID},
				err,
			)
		}

		s.rollbackBlob(ctx, blobKey, imageID)
		return models.ImageRecord{}, models.WrapError(
			models.KindMetadataWriteFailed,
			"unable to save image metadata",
			map[string]any{"image_id": imageID},
			err,
		)
	}

	s.log.Info().
		Str("image_id", imageID).
		Str("user_id", input.OwnerID).
		Int64("size", rec.ByteSize).
		Msg("image uploaded")
	return rec, nil
}

// rollbackBlob compensates a failed record write. Its own failure is logged
// and reported for the sweeper but never surfaced to the caller; the original
// metadata error stands regardless of the rollback outcome.
func (s *UploadService) rollbackBlob(ctx context.Context, blobKey, imageID string) {
	if err := s.store.Delete(ctx, blobKey); err != nil {
		s.log.Warn().Err(err).Str("blob_key", blobKey).Msg("rollback blob delete failed")
		if s.orphans != nil {
			if rerr := s.orphans.Report(ctx, blobKey); rerr != nil {
				s.log.Warn().Err(rerr).Str("blob_key", blobKey).Msg("orphan report failed")
			}
		}
		return
	}
	s.log.Info().Str("blob_key", blobKey).Str("image_id", imageID).Msg("rolled back blob after metadata failure")
}

func buildBlobKey(ownerID, imageID, ext string) string {
	return fmt.Sprintf("images/%s/%s.%s", ownerID, imageID, ext)
}
