package imaging_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/imaging"
)

func TestFilesystemResolver_ResolveReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poster.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake-image-bytes"), 0o644))

	resolver := imaging.NewFilesystemResolver()
	rc, err := resolver.Resolve(path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "fake-image-bytes", string(data))
}

func TestFilesystemResolver_ResolveMissingFileErrors(t *testing.T) {
	resolver := imaging.NewFilesystemResolver()
	_, err := resolver.Resolve(filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
}
