package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bharatkse/image-storage-service/internal/config"
	"github.com/bharatkse/image-storage-service/internal/metadata"
	"github.com/bharatkse/image-storage-service/internal/middleware"
	"github.com/bharatkse/image-storage-service/internal/service"
	"github.com/bharatkse/image-storage-service/internal/storage"
)

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	upload *service.UploadService
	get    *service.GetService
	del    *service.DeleteService
	list   *service.ListService
	checks []HealthCheck
}

func NewHandlerSet(log zerolog.Logger, store storage.ObjectStore, records metadata.Store, orphans service.OrphanReporter, cfg *config.AppConfig, checks ...HealthCheck) HandlerSet {
	return HandlerSet{
		log:    log,
		cfg:    cfg,
		upload: service.NewUploadService(store, records, orphans, log),
		get:    service.NewGetService(store, records, cfg.Upload.PresignTTL, log),
		del:    service.NewDeleteService(store, records, log),
		list:   service.NewListService(records, log),
		checks: checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.Use(middleware.APIKey(h.cfg.Security.APIKeys))

	images := v1.Group("/images")
	{
		images.POST("", h.UploadImage)
		images.GET("", h.ListImages)
		images.GET("/:imageId", h.GetImage)
		images.DELETE("/:imageId", h.DeleteImage)
	}
}
