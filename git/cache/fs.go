package cache

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// removeAll removes path and everything below it. A missing path is not an
// error. billy has no RemoveAll on its base interface, so walk it.
func removeAll(fs billy.Filesystem, path string) error {
	info, err := fs.Lstat(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if info.IsDir() {
		entries, err := fs.ReadDir(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := removeAll(fs, filepath.Join(path, e.Name())); err != nil {
				return err
			}
		}
	}
	return fs.Remove(path)
}

// dirSize sums the sizes of regular files below path.
func dirSize(fs billy.Filesystem, path string) (int64, error) {
	info, err := fs.Lstat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	entries, err := fs.ReadDir(path)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		n, err := dirSize(fs, filepath.Join(path, e.Name()))
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func exists(fs billy.Filesystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}
