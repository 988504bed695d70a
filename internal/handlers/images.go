package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bharatkse/image-storage-service/internal/models"
	"github.com/bharatkse/image-storage-service/internal/service"
	"github.com/bharatkse/image-storage-service/internal/validate"
)

const defaultListLimit = 20

type uploadRequest struct {
	File        string   `json:"file"`
	UserID      string   `json:"user_id"`
	ImageName   string   `json:"image_name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.NewError(models.KindValidation, "invalid JSON body", nil))
		return
	}

	if err := validate.OwnerID(req.UserID); err != nil {
		respondError(c, err)
		return
	}
	name, err := validate.ImageName(req.ImageName)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := validate.Description(req.Description); err != nil {
		respondError(c, err)
		return
	}
	tags, err := validate.NormalizeTags(req.Tags)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := validate.DecodeFile(req.File, h.cfg.Upload.MaxFileSize)
	if err != nil {
		respondError(c, err)
		return
	}

	rec, err := h.upload.Upload(c.Request.Context(), service.UploadInput{
		OwnerID:     req.UserID,
		DisplayName: name,
		Data:        data,
		Description: req.Description,
		Tags:        tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"image":   rec,
		"message": "Image uploaded successfully",
	})
}

func (h HandlerSet) GetImage(c *gin.Context) {
	imageID := c.Param("imageId")

	mode := models.AccessModeView
	switch c.DefaultQuery("mode", "view") {
	case "view":
	case "download":
		mode = models.AccessModeDownload
	default:
		respondError(c, models.NewError(models.KindValidation, "mode must be view or download", nil))
		return
	}

	var expiresIn time.Duration
	if raw := c.Query("expires_in"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 1 || seconds > 86400 {
			respondError(c, models.NewError(models.KindValidation, "expires_in must be between 1 and 86400 seconds", nil))
			return
		}
		expiresIn = time.Duration(seconds) * time.Second
	}

	includeRecord := c.Query("include_metadata") == "true"

	result, err := h.get.GenerateAccessURL(c.Request.Context(), service.AccessInput{
		ImageID:       imageID,
		Mode:          mode,
		ExpiresIn:     expiresIn,
		IncludeRecord: includeRecord,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"image_id":   imageID,
		"url":        result.URL,
		"expires_in": int(result.ExpiresIn.Seconds()),
	}
	if result.Record != nil {
		resp["image"] = result.Record
	}
	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) DeleteImage(c *gin.Context) {
	result, err := h.del.Delete(c.Request.Context(), c.Param("imageId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"image_id":   result.ImageID,
		"s3_key":     result.BlobKey,
		"deleted_at": result.DeletedAt,
		"message":    "Image deleted successfully",
	})
}

func (h HandlerSet) ListImages(c *gin.Context) {
	userID := c.Query("user_id")
	if err := validate.OwnerID(userID); err != nil {
		respondError(c, err)
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, models.NewError(models.KindValidation, "limit must be an integer", nil))
			return
		}
		limit = n
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, models.NewError(models.KindValidation, "offset must be an integer", nil))
			return
		}
		offset = n
	}

	sortBy, sortOrder, err := validate.SortParams(c.Query("sort_by"), c.Query("sort_order"))
	if err != nil {
		respondError(c, err)
		return
	}

	from, to, err := validate.DateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.list.List(c.Request.Context(), service.ListInput{
		OwnerID:      userID,
		NameContains: c.Query("name_contains"),
		CreatedFrom:  from,
		CreatedTo:    to,
		Offset:       offset,
		Limit:        limit,
		SortBy:       sortBy,
		SortOrder:    sortOrder,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	images := result.Items
	if images == nil {
		images = []models.ImageRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"images":         images,
		"total_count":    result.TotalCount,
		"returned_count": len(images),
		"pagination": gin.H{
			"limit":    limit,
			"offset":   offset,
			"has_more": result.HasMore,
		},
	})
}
