package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/repository"
	"github.com/mamadbah2/rigcost/internal/service/publishing"
	"github.com/mamadbah2/rigcost/internal/service/reporting"
)

// respondError maps service errors onto status codes. None of them is fatal to the process.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *reporting.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
	case errors.Is(err, repository.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case errors.Is(err, repository.ErrAttachmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview available"})
	case errors.Is(err, publishing.ErrSnapshotsDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshots are not enabled"})
	case errors.Is(err, repository.ErrStoreUnavailable):
		logger.Error("store unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report log unavailable"})
	case errors.Is(err, repository.ErrStorageIO):
		logger.Error("storage write failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write to storage"})
	default:
		logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
