package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/service/reporting"
)

// EntryService is the part of the report service the entry endpoints use.
type EntryService interface {
	ListEntries(ctx context.Context) ([]reporting.Row, error)
	CreateEntry(ctx context.Context, e models.Entry, upload *reporting.Upload) (models.Entry, error)
	UpdateEntry(ctx context.Context, id string, e models.Entry, upload *reporting.Upload) (models.Entry, error)
	UpdateEntryByKey(ctx context.Context, key models.EntryKey, e models.Entry, upload *reporting.Upload) (models.Entry, error)
	DeleteEntry(ctx context.Context, id string) (string, error)
	DeleteEntryByKey(ctx context.Context, key models.EntryKey) (string, error)
}

// EntryHandler serves the report log endpoints.
type EntryHandler struct {
	svc       EntryService
	maxUpload int64
	logger    *zap.Logger
}

// NewEntryHandler constructs the handler. maxUpload bounds the request body in bytes.
func NewEntryHandler(svc EntryService, maxUpload int64, logger *zap.Logger) *EntryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryHandler{svc: svc, maxUpload: maxUpload, logger: logger}
}

// List returns every row, flagged valid or not.
func (h *EntryHandler) List(c *gin.Context) {
	rows, err := h.svc.ListEntries(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": rows})
}

// Create records a new drilling day with an optional PDF in the "file" field.
func (h *EntryHandler) Create(c *gin.Context) {
	entry, upload, ok := h.bindEntry(c)
	if !ok {
		return
	}

	created, err := h.svc.CreateEntry(c.Request.Context(), entry, upload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created.Record())
}

// Update replaces the entry with the given id.
func (h *EntryHandler) Update(c *gin.Context) {
	entry, upload, ok := h.bindEntry(c)
	if !ok {
		return
	}

	updated, err := h.svc.UpdateEntry(c.Request.Context(), c.Param("id"), entry, upload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated.Record())
}

// Delete removes the entry with the given id and its attachment.
func (h *EntryHandler) Delete(c *gin.Context) {
	removed, err := h.svc.DeleteEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id"), "removed_file": removed})
}

// UpdateByKey replaces the first row matching ?day=&date=&filename=.
func (h *EntryHandler) UpdateByKey(c *gin.Context) {
	key, ok := h.bindKey(c)
	if !ok {
		return
	}
	entry, upload, ok := h.bindEntry(c)
	if !ok {
		return
	}

	updated, err := h.svc.UpdateEntryByKey(c.Request.Context(), key, entry, upload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated.Record())
}

// DeleteByKey deletes the first row matching ?day=&date=&filename=.
func (h *EntryHandler) DeleteByKey(c *gin.Context) {
	key, ok := h.bindKey(c)
	if !ok {
		return
	}

	removed, err := h.svc.DeleteEntryByKey(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": key.String(), "removed_file": removed})
}

func (h *EntryHandler) bindEntry(c *gin.Context) (models.Entry, *reporting.Upload, bool) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	var req EntryRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, h.logger, err)
			return models.Entry{}, nil, false
		}
		h.logger.Warn("invalid entry payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return models.Entry{}, nil, false
	}

	entry, err := req.ToEntry()
	if err != nil {
		respondError(c, h.logger, err)
		return models.Entry{}, nil, false
	}

	upload, err := readUpload(c)
	if err != nil {
		respondError(c, h.logger, err)
		return models.Entry{}, nil, false
	}
	return entry, upload, true
}

func (h *EntryHandler) bindKey(c *gin.Context) (models.EntryKey, bool) {
	var q EntryKeyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return models.EntryKey{}, false
	}
	key, err := q.ToKey()
	if err != nil {
		respondError(c, h.logger, err)
		return models.EntryKey{}, false
	}
	return key, true
}

// readUpload returns nil when the request carries no file.
func readUpload(c *gin.Context) (*reporting.Upload, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &reporting.Upload{Name: header.Filename, Data: data}, nil
}
