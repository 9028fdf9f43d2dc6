package fs

import (
	"dtr-image/internal/render"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := []render.Artifact{
		{Format: "png", Filename: "DTR_image.png", Data: []byte("png-bytes")},
		{Format: "jpeg", Filename: "DTR_image.jpg", Data: []byte("jpg-bytes")},
	}

	paths, err := SaveArtifacts(dir, "abc", artifacts)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for i, p := range paths {
		assert.Equal(t, filepath.Join(dir, "abc", artifacts[i].Filename), p)
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, artifacts[i].Data, data)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "abc"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestSaveArtifactsUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := SaveArtifacts(file, "abc", []render.Artifact{{Filename: "x.png"}})
	assert.Error(t, err)
}
