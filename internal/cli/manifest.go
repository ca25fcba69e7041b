package cli

import (
	"os"
	"path/filepath"

	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

// locateManifest resolves the Pipfile to operate on. An explicit path
// wins; otherwise the search walks up from the working directory, the
// same way pipenv finds its project root.
func locateManifest(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return pipfile.Find(wd)
}

// loadManifest locates and parses the Pipfile, returning the manifest and
// the path it was read from.
func loadManifest(explicit string) (*pipfile.Manifest, string, error) {
	path, err := locateManifest(explicit)
	if err != nil {
		return nil, "", err
	}
	m, err := pipfile.Load(path)
	if err != nil {
		return nil, "", err
	}
	return m, path, nil
}

// lockfilePath returns the Pipfile.lock path next to a Pipfile.
func lockfilePath(manifestPath string) string {
	return filepath.Join(filepath.Dir(manifestPath), pipfile.LockFilename)
}
