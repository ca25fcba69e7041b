// Package lockfile reads and writes Pipfile.lock, the JSON companion of
// the Pipfile manifest. The lock records the manifest hash it was
// generated from plus pinned package entries; this package handles the
// format and the hash freshness check, not dependency resolution.
package lockfile

import (
	"bytes"
	"encoding/json"
	"os"

	pkgerrors "github.com/umarmnaq/pipenv/pkg/errors"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

// SpecVersion is the pipfile-spec revision this implementation writes.
const SpecVersion = 6

// Meta is the _meta block of a lockfile.
type Meta struct {
	Hash        Hash              `json:"hash"`
	PipfileSpec int               `json:"pipfile-spec"`
	Requires    map[string]string `json:"requires"`
	Sources     []pipfile.Source  `json:"sources"`
}

// Hash wraps the manifest digest keyed by algorithm.
type Hash struct {
	SHA256 string `json:"sha256"`
}

// Entry is one pinned package in the default or develop section.
type Entry struct {
	Version string   `json:"version,omitempty"`
	Hashes  []string `json:"hashes,omitempty"`
	Markers string   `json:"markers,omitempty"`
	Index   string   `json:"index,omitempty"`
	Extras  []string `json:"extras,omitempty"`
	Path    string   `json:"path,omitempty"`
	File    string   `json:"file,omitempty"`
	Git     string   `json:"git,omitempty"`
	Ref     string   `json:"ref,omitempty"`
}

// Lockfile is a parsed Pipfile.lock.
type Lockfile struct {
	Meta    Meta             `json:"_meta"`
	Default map[string]Entry `json:"default"`
	Develop map[string]Entry `json:"develop"`
}

// Read loads and parses the lockfile at path.
func Read(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.Wrap(pkgerrors.ErrCodeLockfileNotFound, err, "no lockfile at %s", path)
		}
		return nil, err
	}

	var lock Lockfile
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	if lock.Default == nil {
		lock.Default = map[string]Entry{}
	}
	if lock.Develop == nil {
		lock.Develop = map[string]Entry{}
	}
	return &lock, nil
}

// Write serializes the lockfile to path with the stable formatting pipenv
// uses: four-space indentation, sorted keys, trailing newline.
func (l *Lockfile) Write(path string) error {
	data, err := l.Bytes()
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Bytes returns the canonical serialization of the lockfile.
func (l *Lockfile) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// VerifyHash checks that the lock was generated from the given manifest.
// A mismatch means the Pipfile changed after the lock was written.
func (l *Lockfile) VerifyHash(m *pipfile.Manifest) error {
	want, err := m.Hash()
	if err != nil {
		return err
	}
	if l.Meta.Hash.SHA256 != want {
		return pkgerrors.New(pkgerrors.ErrCodeHashMismatch,
			"lockfile is out of date: Pipfile hash %s, lock recorded %s", shorten(want), shorten(l.Meta.Hash.SHA256))
	}
	return nil
}

func shorten(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// FromManifest builds a lockfile skeleton for a manifest: _meta filled in
// (hash, spec revision, requires, sources) with empty pinned sections.
func FromManifest(m *pipfile.Manifest) (*Lockfile, error) {
	hash, err := m.Hash()
	if err != nil {
		return nil, err
	}

	requires := map[string]string{}
	if m.Requires != nil {
		if m.Requires.PythonVersion != "" {
			requires["python_version"] = m.Requires.PythonVersion
		}
		if m.Requires.PythonFullVersion != "" {
			requires["python_full_version"] = m.Requires.PythonFullVersion
		}
	}

	return &Lockfile{
		Meta: Meta{
			Hash:        Hash{SHA256: hash},
			PipfileSpec: SpecVersion,
			Requires:    requires,
			Sources:     append([]pipfile.Source(nil), m.Sources...),
		},
		Default: map[string]Entry{},
		Develop: map[string]Entry{},
	}, nil
}
