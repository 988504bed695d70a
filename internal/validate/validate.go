// Package validate enforces the request-level rules the coordinators rely on:
// owner id shape, display-name extensions, payload decoding and size caps, tag
// normalization, and list-parameter bounds. Everything here fails with a typed
// VALIDATION_ERROR before any store call is made.
package validate

import (
	"encoding/base64"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bharatkse/image-storage-service/internal/models"
	"github.com/bharatkse/image-storage-service/internal/timeutil"
)

const (
	MinOwnerIDLen  = 3
	MaxOwnerIDLen  = 50
	MaxNameLen     = 255
	MaxDescLen     = 1000
	MaxTags        = 10
	MaxTagLen      = 50
)

var ownerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// allowedExtensions mirrors the MIME allow-list; the declared name and the
// sniffed content are validated independently.
var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tiff": true,
	"tif":  true,
}

func validationError(message string, details map[string]any) error {
	return models.NewError(models.KindValidation, message, details)
}

// OwnerID checks the owner identifier: alphanumeric/underscore/hyphen, 3-50.
func OwnerID(ownerID string) error {
	if len(ownerID) < MinOwnerIDLen || len(ownerID) > MaxOwnerIDLen {
		return validationError(
			fmt.Sprintf("user_id must be between %d and %d characters", MinOwnerIDLen, MaxOwnerIDLen),
			map[string]any{"user_id": ownerID},
		)
	}
	if !ownerIDPattern.MatchString(ownerID) {
		return validationError(
			"user_id may contain only letters, digits, underscores and hyphens",
			map[string]any{"user_id": ownerID},
		)
	}
	return nil
}

// ImageName checks the display name and returns it trimmed. The name must end
// with a recognized image extension.
func ImageName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLen {
		return "", validationError(
			fmt.Sprintf("image_name must be between 1 and %d characters", MaxNameLen),
			nil,
		)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return "", validationError("image_name must have an extension", map[string]any{"image_name": name})
	}
	if !allowedExtensions[ext] {
		return "", validationError(
			fmt.Sprintf("invalid image extension %q", ext),
			map[string]any{"image_name": name},
		)
	}
	return name, nil
}

// Description checks the optional description length.
func Description(desc string) error {
	if len(desc) > MaxDescLen {
		return validationError(
			fmt.Sprintf("description must not exceed %d characters", MaxDescLen),
			nil,
		)
	}
	return nil
}

// NormalizeTags trims, drops empties, deduplicates preserving insertion order
// (case-sensitive), and enforces the tag count and length caps.
func NormalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(tags))
	var normalized []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		if len(t) > MaxTagLen {
			return nil, validationError(
				fmt.Sprintf("tags must not exceed %d characters", MaxTagLen),
				map[string]any{"tag": t},
			)
		}
		seen[t] = true
		normalized = append(normalized, t)
	}

	if len(normalized) > MaxTags {
		return nil, validationError(
			fmt.Sprintf("maximum %d tags allowed", MaxTags),
			map[string]any{"count": len(normalized)},
		)
	}
	return normalized, nil
}

// DecodeFile decodes a whole-body base64 payload and enforces the size cap.
func DecodeFile(encoded string, maxBytes int64) ([]byte, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, validationError("file must not be empty", nil)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, validationError("file must be a valid base64-encoded string", nil)
	}
	if len(data) == 0 {
		return nil, validationError("decoded file is empty", nil)
	}
	if int64(len(data)) > maxBytes {
		return nil, validationError(
			fmt.Sprintf("file size exceeds %dMB limit", maxBytes/(1024*1024)),
			map[string]any{"size": len(data)},
		)
	}
	return data, nil
}

// DateRange parses optional YYYY-MM-DD bounds and normalizes them to the
// start and end of day in UTC. Ordering of the bounds is checked downstream
// by the listing pipeline, which owns filter validation.
func DateRange(startDate, endDate string) (from, to string, err error) {
	if startDate != "" {
		d, perr := timeutil.ParseDate(startDate)
		if perr != nil {
			return "", "", validationError("start_date must be in YYYY-MM-DD format", map[string]any{"start_date": startDate})
		}
		from = timeutil.StartOfDay(d)
	}
	if endDate != "" {
		d, perr := timeutil.ParseDate(endDate)
		if perr != nil {
			return "", "", validationError("end_date must be in YYYY-MM-DD format", map[string]any{"end_date": endDate})
		}
		to = timeutil.EndOfDay(d)
	}
	return from, to, nil
}

// SortParams checks the sort field and order, applying the defaults.
func SortParams(sortBy, sortOrder string) (models.SortField, models.SortOrder, error) {
	field := models.SortByCreatedAt
	switch sortBy {
	case "", string(models.SortByCreatedAt):
	case string(models.SortByDisplayName):
		field = models.SortByDisplayName
	default:
		return "", "", validationError("sort_by must be created_at or image_name", map[string]any{"sort_by": sortBy})
	}

	order := models.SortDesc
	switch sortOrder {
	case "", string(models.SortDesc):
	case string(models.SortAsc):
		order = models.SortAsc
	default:
		return "", "", validationError("sort_order must be asc or desc", map[string]any{"sort_order": sortOrder})
	}

	return field, order, nil
}
