// Package repository defines the storage contracts of the cost tracker. Concrete
// backends live in the sub-packages.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/rigcost/internal/domain/models"
)

var (
	// ErrStoreUnavailable means the backing data exists but cannot be read.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEntryNotFound means no row carries the requested identifier or key.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrAttachmentNotFound means the attachment area has no file under that name.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrStorageIO means a write to the backing storage failed.
	ErrStorageIO = errors.New("storage io error")
)

// RecordStore persists drilling-day rows in log order.
type RecordStore interface {
	List(ctx context.Context) ([]models.EntryRecord, error)
	Append(ctx context.Context, rec models.EntryRecord) error
	Replace(ctx context.Context, id string, rec models.EntryRecord) error
	Delete(ctx context.Context, id string) (models.EntryRecord, error)
}

// EstimateStore persists the single AFE document.
type EstimateStore interface {
	Load(ctx context.Context) (models.Estimate, error)
	Save(ctx context.Context, doc models.Estimate) error
}

// AttachmentStore keeps uploaded report binaries by name.
type AttachmentStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// StoreError tags a low-level failure with one of the sentinel kinds above.
type StoreError struct {
	Kind error
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unavailable wraps a read failure.
func Unavailable(op string, err error) error {
	return &StoreError{Kind: ErrStoreUnavailable, Op: op, Err: err}
}

// IOFailure wraps a write failure.
func IOFailure(op string, err error) error {
	return &StoreError{Kind: ErrStorageIO, Op: op, Err: err}
}
