// Package storage provides core.Storage implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

// Local reads and writes images on the local filesystem.  Relative paths are
// resolved against rootDir; an empty rootDir means the working directory.
type Local struct {
	rootDir     string
	permissions os.FileMode
}

var _ core.Storage = (*Local)(nil)

// NewLocal creates a Local storage adapter rooted at dir.
func NewLocal(dir string, perm os.FileMode) *Local {
	if perm == 0 {
		perm = 0o644
	}
	return &Local{rootDir: dir, permissions: perm}
}

func (l *Local) absPath(path string) string {
	if l.rootDir == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.rootDir, filepath.Clean(path))
}

// Open returns the file at path.  A missing file is KindNotFound; any other
// failure to read it is KindCorruptData.
func (l *Local) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPipeline, "local.open", err)
	}
	p := l.absPath(path)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.New(apperrors.KindNotFound, "local.open", fmt.Errorf("%s: %w", p, err))
		}
		return nil, apperrors.Wrap(apperrors.KindCorruptData, "local.open", err)
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, apperrors.New(apperrors.KindCorruptData, "local.open", fmt.Errorf("%s is a directory", p))
	}
	return f, nil
}

// Put writes r to path atomically: data goes to a temp file in the target
// directory which is renamed into place only after a successful sync.  On
// failure path is left untouched.
func (l *Local) Put(ctx context.Context, path string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.KindPipeline, "local.put", err)
	}
	p := l.absPath(path)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "local.put.mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "local.put.create", err)
	}
	tmpName := tmp.Name()
	// ensure cleanup of tmp on error; after a successful rename this is a no-op
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "local.put.write", err)
	}
	if err := tmp.Chmod(l.permissions); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "local.put.chmod", err)
	}
	if err := tmp.Sync(); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "local.put.sync", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "local.put.close", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "local.put.rename", err)
	}
	return nil
}
