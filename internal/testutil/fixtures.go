package testutil

import (
	"path/filepath"
	"runtime"
)

// ArtifactsDir returns the directory holding the shared artifact fixtures.
func ArtifactsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata", "artifacts")
}

// ArtifactPath returns the path of a shared artifact fixture.
func ArtifactPath(name string) string {
	return filepath.Join(ArtifactsDir(), name)
}
