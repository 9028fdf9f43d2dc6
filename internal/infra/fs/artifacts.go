package fs

import (
	"dtr-image/internal/render"
	"fmt"
	"os"
	"path/filepath"
)

// SaveArtifacts writes each artifact under dir/id/ and returns the written
// paths. Files are written to a temp name and renamed so a reader never sees a
// half-written image.
func SaveArtifacts(dir, id string, artifacts []render.Artifact) ([]string, error) {
	target := filepath.Join(dir, id)
	if err := os.MkdirAll(target, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path := filepath.Join(target, a.Filename)
		if err := writeFileAtomic(path, a.Data); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", a.Filename, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFileAtomic(path string, data []byte) error {
	tempFilePath := path + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tempFilePath, path); err != nil {
		_ = os.Remove(tempFilePath)
		return err
	}
	return nil
}
