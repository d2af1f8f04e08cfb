package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/service/reporting"
)

// ReportService is the part of the report service the read views use.
type ReportService interface {
	Estimate(ctx context.Context) (models.Estimate, error)
	SaveEstimate(ctx context.Context, doc models.Estimate) error
	Summary(ctx context.Context) (models.CostSummary, error)
	Series(ctx context.Context) ([]models.SeriesPoint, error)
	Dashboard(ctx context.Context) (reporting.Dashboard, error)
	Attachment(ctx context.Context, name string) ([]byte, error)
	ExportWorkbook(ctx context.Context) (*excelize.File, error)
	ExportFilename() string
}

// ReportHandler serves the estimate and the cost tracking views.
type ReportHandler struct {
	svc    ReportService
	logger *zap.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

func (h *ReportHandler) Estimate(c *gin.Context) {
	doc, err := h.svc.Estimate(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *ReportHandler) SaveEstimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid estimate payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	doc := req.ToEstimate()
	if err := h.svc.SaveEstimate(c.Request.Context(), doc); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Summary returns budget against actual per phase, with the formatted lines the page shows.
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"text": gin.H{
			"drilling":   reporting.FormatPhase(summary.Drilling),
			"completion": reporting.FormatPhase(summary.Completion),
		},
	})
}

func (h *ReportHandler) Series(c *gin.Context) {
	points, err := h.svc.Series(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": points})
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Attachment streams a stored PDF for inline display.
func (h *ReportHandler) Attachment(c *gin.Context) {
	name := c.Param("name")
	data, err := h.svc.Attachment(c.Request.Context(), name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(name))
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// Export downloads the log and summary as an XLSX workbook.
func (h *ReportHandler) Export(c *gin.Context) {
	f, err := h.svc.ExportWorkbook(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+h.svc.ExportFilename()+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write workbook", zap.Error(err))
	}
}
