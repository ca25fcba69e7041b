package pipfile

import (
	"bytes"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Encode writes the manifest to w in canonical form: sections in the fixed
// order [[source]], [packages], [dev-packages], [requires], [pipenv],
// [scripts], with package and script names sorted.
func (m *Manifest) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	return enc.Encode(m)
}

// Bytes returns the canonical serialization of the manifest.
func (m *Manifest) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write atomically replaces the Pipfile at path with the canonical
// serialization of the manifest.
func (m *Manifest) Write(path string) error {
	data, err := m.Bytes()
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
