package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/image-transform/adapters/storage"
	apperrors "github.com/Skryldev/image-transform/errors"
)

func TestLocal_PutThenOpen(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewLocal(dir, 0o600)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "nested/out.bin", strings.NewReader("hello")))

	rc, err := s.Open(ctx, "nested/out.bin")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	st, err := os.Stat(filepath.Join(dir, "nested", "out.bin"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestLocal_OpenMissing(t *testing.T) {
	s := storage.NewLocal(t.TempDir(), 0)
	_, err := s.Open(context.Background(), "nope.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestLocal_OpenDirectory(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewLocal("", 0)
	_, err := s.Open(context.Background(), dir)
	assert.ErrorIs(t, err, apperrors.ErrCorruptData)
}

type brokenReader struct{ n int }

func (b *brokenReader) Read(p []byte) (int, error) {
	if b.n > 0 {
		n := copy(p, bytes.Repeat([]byte{'x'}, min(len(p), b.n)))
		b.n -= n
		return n, nil
	}
	return 0, errors.New("stream broke")
}

func TestLocal_PutFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewLocal(dir, 0)

	err := s.Put(context.Background(), "out.jpg", &brokenReader{n: 1024})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEncodeFailure)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "neither the target nor a temp file may remain")
}

func TestLocal_PutFailureKeepsPreviousContent(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewLocal(dir, 0)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "out.jpg", strings.NewReader("old")))

	require.Error(t, s.Put(ctx, "out.jpg", &brokenReader{n: 10}))

	data, err := os.ReadFile(filepath.Join(dir, "out.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}
