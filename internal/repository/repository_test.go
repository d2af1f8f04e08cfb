package repository

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreErrorKinds(t *testing.T) {
	err := IOFailure("write report log", fs.ErrPermission)
	assert.True(t, errors.Is(err, ErrStorageIO))
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.False(t, errors.Is(err, ErrStoreUnavailable))
	assert.Equal(t, "write report log: storage io error: permission denied", err.Error())

	err = Unavailable("read estimate", nil)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Equal(t, "read estimate: store unavailable", err.Error())
}
