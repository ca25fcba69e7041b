package pipfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	pkgerrors "github.com/umarmnaq/pipenv/pkg/errors"
)

// Load reads and parses the Pipfile at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeFileNotFound, err, "no Pipfile at %s", path)
		}
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	return m, nil
}

// Parse parses Pipfile TOML. Manifests without a [[source]] section get the
// implicit pypi.org default, matching pipenv.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}

	m.Undecoded = topLevelUndecoded(md)

	if len(m.Sources) == 0 {
		m.Sources = []Source{DefaultSource()}
	}
	if m.Packages == nil {
		m.Packages = Packages{}
	}
	if m.DevPackages == nil {
		m.DevPackages = Packages{}
	}

	return &m, nil
}

// topLevelUndecoded reduces undecoded keys to their unique top-level
// section names. Keys under package entries are tracked separately by
// Requirement.Unknown.
func topLevelUndecoded(md toml.MetaData) []string {
	seen := map[string]bool{}
	for _, key := range md.Undecoded() {
		seen[key[0]] = true
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Find walks from dir toward the filesystem root looking for a Pipfile,
// the discovery rule pipenv uses when invoked inside a project tree.
// It returns the manifest path, or an error when no Pipfile is found.
func Find(dir string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for dir := start; ; {
		candidate := filepath.Join(dir, Filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", pkgerrors.New(pkgerrors.ErrCodeFileNotFound,
				"no Pipfile found in %s or any parent directory", start)
		}
		dir = parent
	}
}
