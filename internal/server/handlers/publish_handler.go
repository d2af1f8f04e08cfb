package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/service/publishing"
)

// Publisher is the publication service as seen by HTTP.
type Publisher interface {
	Enabled() bool
	RunAll(ctx context.Context) (publishing.Result, error)
	RecentSnapshots(ctx context.Context, limit int64) ([]models.CostSnapshot, error)
}

// PublishHandler triggers publication on demand and exposes snapshot history.
type PublishHandler struct {
	pub    Publisher
	logger *zap.Logger
}

func NewPublishHandler(pub Publisher, logger *zap.Logger) *PublishHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishHandler{pub: pub, logger: logger}
}

// Publish runs the nightly publication now.
func (h *PublishHandler) Publish(c *gin.Context) {
	if !h.pub.Enabled() {
		c.JSON(http.StatusConflict, gin.H{"error": "no publication target configured"})
		return
	}

	result, err := h.pub.RunAll(c.Request.Context())
	if err != nil {
		h.logger.Warn("manual publication incomplete", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Snapshots lists recent cost snapshots, newest first. ?limit= defaults to 30 and is capped at
// publishing.MaxSnapshotLimit.
func (h *PublishHandler) Snapshots(c *gin.Context) {
	limit := publishing.DefaultSnapshotLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			n, err = publishing.MaxSnapshotLimit, nil
		}
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, publishing.MaxSnapshotLimit)
	}

	snapshots, err := h.pub.RecentSnapshots(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}
