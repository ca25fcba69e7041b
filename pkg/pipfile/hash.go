package pipfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash computes the manifest hash recorded in Pipfile.lock _meta: the
// SHA-256 of a compact, key-sorted JSON projection of the sources, the
// interpreter requirements, and both package sections. The projection
// mirrors the dict pipenv hashes, so unchanged declarations produce the
// same digest across runs.
func (m *Manifest) Hash() (string, error) {
	data := map[string]any{
		"_meta": map[string]any{
			"sources":  sourcesProjection(m.Sources),
			"requires": requiresProjection(m.Requires),
		},
		"default": packagesProjection(m.Packages),
		"develop": packagesProjection(m.DevPackages),
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func sourcesProjection(sources []Source) []map[string]any {
	out := make([]map[string]any, len(sources))
	for i, s := range sources {
		out[i] = map[string]any{
			"url":        s.URL,
			"verify_ssl": s.VerifySSL,
			"name":       s.Name,
		}
	}
	return out
}

func requiresProjection(r *Requires) map[string]any {
	out := map[string]any{}
	if r == nil {
		return out
	}
	if r.PythonVersion != "" {
		out["python_version"] = r.PythonVersion
	}
	if r.PythonFullVersion != "" {
		out["python_full_version"] = r.PythonFullVersion
	}
	return out
}

func packagesProjection(pkgs Packages) map[string]any {
	out := make(map[string]any, len(pkgs))
	for name, req := range pkgs {
		out[name] = req.jsonValue()
	}
	return out
}

// jsonValue projects the requirement the way it appears in parsed TOML:
// the literal constraint string for the shorthand form, an object for the
// table form.
func (r Requirement) jsonValue() any {
	if r.bare() {
		if r.Version == "" {
			return "*"
		}
		return r.Version
	}

	out := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("version", r.Version)
	if len(r.Extras) > 0 {
		out["extras"] = r.Extras
	}
	set("markers", r.Markers)
	set("sys_platform", r.SysPlatform)
	set("os_name", r.OSName)
	set("platform_machine", r.PlatformMachine)
	set("python_version", r.PythonVersion)
	set("index", r.Index)
	set("path", r.Path)
	set("file", r.File)
	if r.Editable {
		out["editable"] = true
	}
	set("git", r.Git)
	set("ref", r.Ref)
	set("subdirectory", r.Subdirectory)
	if len(r.Hashes) > 0 {
		out["hashes"] = r.Hashes
	}
	return out
}
