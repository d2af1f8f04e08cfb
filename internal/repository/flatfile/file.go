package flatfile

import (
	"os"
	"path/filepath"

	"github.com/mamadbah2/rigcost/internal/repository"
)

// writeFileAtomic writes through a temp file in the target directory and renames it over
// path, so readers see either the old or the new content.
func writeFileAtomic(path string, write func(f *os.File) error, op string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return repository.IOFailure(op, err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return repository.IOFailure(op, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return repository.IOFailure(op, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return repository.IOFailure(op, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return repository.IOFailure(op, err)
	}
	return nil
}
