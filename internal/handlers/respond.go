package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bharatkse/image-storage-service/internal/models"
)

// statusForKind maps the domain error taxonomy onto HTTP statuses.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation, models.KindInvalidFilter:
		return http.StatusBadRequest
	case models.KindImageNotFound:
		return http.StatusNotFound
	case models.KindDuplicateContent, models.KindDuplicateImage:
		return http.StatusConflict
	case models.KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	var de *models.DomainError
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"code": "INTERNAL_SERVER_ERROR", "message": "internal server error"},
		})
		return
	}

	body := gin.H{"code": string(de.Kind), "message": de.Message}
	if len(de.Details) > 0 {
		body["details"] = de.Details
	}
	c.JSON(statusForKind(de.Kind), gin.H{"error": body})
}
