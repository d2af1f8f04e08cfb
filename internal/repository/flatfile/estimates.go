package flatfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/repository"
)

// estimateFile is the on-disk JSON shape. Keys keep the names the dashboard has always used.
type estimateFile struct {
	DrillingAFE   json.Number `json:"Drilling AFE"`
	CompletionAFE json.Number `json:"Completion AFE"`
	EstimatedDays json.Number `json:"Estimated Days"`
}

// EstimateStore keeps the AFE document in a single JSON file.
type EstimateStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

var _ repository.EstimateStore = (*EstimateStore)(nil)

// NewEstimateStore prepares the estimate file location.
func NewEstimateStore(path string, logger *zap.Logger) (*EstimateStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, repository.IOFailure("create estimate directory", err)
	}
	return &EstimateStore{path: path, logger: logger}, nil
}

// Load returns the saved estimate. A missing or unreadable file yields the zero estimate.
func (s *EstimateStore) Load(_ context.Context) (models.Estimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Estimate{}, nil
	}
	if err != nil {
		s.logger.Warn("estimate file unreadable, using zero estimate", zap.String("path", s.path), zap.Error(err))
		return models.Estimate{}, nil
	}

	var doc estimateFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("estimate file malformed, using zero estimate", zap.String("path", s.path), zap.Error(err))
		return models.Estimate{}, nil
	}

	return models.Estimate{
		DrillingAFE:   s.decimalField("Drilling AFE", doc.DrillingAFE),
		CompletionAFE: s.decimalField("Completion AFE", doc.CompletionAFE),
		EstimatedDays: s.intField("Estimated Days", doc.EstimatedDays),
	}, nil
}

// Save overwrites the estimate file.
func (s *EstimateStore) Save(_ context.Context, doc models.Estimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(estimateFile{
		DrillingAFE:   json.Number(doc.DrillingAFE.String()),
		CompletionAFE: json.Number(doc.CompletionAFE.String()),
		EstimatedDays: json.Number(strconv.Itoa(doc.EstimatedDays)),
	})
	if err != nil {
		return repository.IOFailure("encode estimate", err)
	}

	return writeFileAtomic(s.path, func(f *os.File) error {
		_, err := f.Write(payload)
		return err
	}, "write estimate")
}

func (s *EstimateStore) decimalField(name string, n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		s.logger.Debug("skip estimate field with invalid value", zap.String("field", name), zap.String("value", n.String()))
		return decimal.Zero
	}
	return d
}

func (s *EstimateStore) intField(name string, n json.Number) int {
	if n == "" {
		return 0
	}
	v, err := models.ParseInt(n.String())
	if err != nil {
		s.logger.Debug("skip estimate field with invalid value", zap.String("field", name), zap.String("value", n.String()))
		return 0
	}
	return v
}
