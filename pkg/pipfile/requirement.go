package pipfile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Requirement is a single package entry in [packages] or [dev-packages].
//
// In TOML it is either a bare constraint string ("*", "==2.28.*") or a
// table with any of the fields below. The zero value means "any version".
type Requirement struct {
	// Version is the PEP 440 specifier set, "*" or "" meaning any.
	Version string

	// Extras are optional sub-feature sets of the package.
	Extras []string

	// Markers is a PEP 508 environment marker expression.
	Markers string

	// Marker shorthand keys. Pipenv folds these into the marker
	// expression; each holds the bare value compared with "==".
	SysPlatform     string
	OSName          string
	PlatformMachine string
	PythonVersion   string

	// Index names the [[source]] entry this package installs from.
	Index string

	// Local requirements.
	Path     string
	File     string
	Editable bool

	// VCS requirements.
	Git          string
	Ref          string
	Subdirectory string

	// Hashes pins artifact digests ("sha256:...").
	Hashes []string

	// Unknown holds table keys this implementation does not model.
	// They are reported by Validate and dropped on canonical encoding.
	Unknown []string
}

// Any reports whether the requirement accepts any version.
func (r Requirement) Any() bool {
	return r.Version == "" || r.Version == "*"
}

// IsLocal reports whether the requirement points at a local path or file.
func (r Requirement) IsLocal() bool { return r.Path != "" || r.File != "" }

// IsVCS reports whether the requirement is fetched from version control.
func (r Requirement) IsVCS() bool { return r.Git != "" }

// bare reports whether the requirement carries nothing but a version
// constraint, so it can round-trip as the string shorthand.
func (r Requirement) bare() bool {
	return len(r.Extras) == 0 && r.Markers == "" &&
		r.SysPlatform == "" && r.OSName == "" && r.PlatformMachine == "" && r.PythonVersion == "" &&
		r.Index == "" && r.Path == "" && r.File == "" && !r.Editable &&
		r.Git == "" && r.Ref == "" && r.Subdirectory == "" &&
		len(r.Hashes) == 0
}

// CombinedMarkers joins the explicit marker expression with the marker
// shorthand keys into a single PEP 508 expression, or "" when unmarked.
func (r Requirement) CombinedMarkers() string {
	var parts []string
	if r.SysPlatform != "" {
		parts = append(parts, fmt.Sprintf("sys_platform == '%s'", r.SysPlatform))
	}
	if r.OSName != "" {
		parts = append(parts, fmt.Sprintf("os_name == '%s'", r.OSName))
	}
	if r.PlatformMachine != "" {
		parts = append(parts, fmt.Sprintf("platform_machine == '%s'", r.PlatformMachine))
	}
	if r.PythonVersion != "" {
		parts = append(parts, pythonVersionMarker(r.PythonVersion))
	}
	if r.Markers != "" {
		parts = append(parts, r.Markers)
	}
	return strings.Join(parts, " and ")
}

// pythonVersionMarker renders the python_version shorthand. A value with a
// leading comparison operator is kept as written; a bare version compares
// with "==".
func pythonVersionMarker(v string) string {
	v = strings.TrimSpace(v)
	if strings.IndexAny(v, "<>=!~") == 0 {
		return fmt.Sprintf("python_version %s", quoteSpecifierOperands(v))
	}
	return fmt.Sprintf("python_version == '%s'", v)
}

// quoteSpecifierOperands turns ">=3.8" into ">= '3.8'" for marker syntax.
func quoteSpecifierOperands(v string) string {
	i := 0
	for i < len(v) && strings.ContainsRune("<>=!~", rune(v[i])) {
		i++
	}
	return v[:i] + " '" + strings.TrimSpace(v[i:]) + "'"
}

func (r Requirement) clone() Requirement {
	out := r
	out.Extras = append([]string(nil), r.Extras...)
	out.Hashes = append([]string(nil), r.Hashes...)
	out.Unknown = append([]string(nil), r.Unknown...)
	return out
}

// UnmarshalTOML decodes either shape of a package entry.
func (r *Requirement) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		r.Version = v
		return nil
	case map[string]any:
		return r.fromTable(v)
	default:
		return fmt.Errorf("package entry must be a string or table, got %T", data)
	}
}

func (r *Requirement) fromTable(table map[string]any) error {
	for key, raw := range table {
		switch key {
		case "version":
			if err := assignString(&r.Version, key, raw); err != nil {
				return err
			}
		case "extras":
			list, ok := raw.([]any)
			if !ok {
				return fmt.Errorf("extras must be an array, got %T", raw)
			}
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("extras entries must be strings, got %T", item)
				}
				r.Extras = append(r.Extras, s)
			}
		case "markers":
			if err := assignString(&r.Markers, key, raw); err != nil {
				return err
			}
		case "sys_platform":
			if err := assignString(&r.SysPlatform, key, raw); err != nil {
				return err
			}
		case "os_name":
			if err := assignString(&r.OSName, key, raw); err != nil {
				return err
			}
		case "platform_machine":
			if err := assignString(&r.PlatformMachine, key, raw); err != nil {
				return err
			}
		case "python_version":
			if err := assignString(&r.PythonVersion, key, raw); err != nil {
				return err
			}
		case "index":
			if err := assignString(&r.Index, key, raw); err != nil {
				return err
			}
		case "path":
			if err := assignString(&r.Path, key, raw); err != nil {
				return err
			}
		case "file":
			if err := assignString(&r.File, key, raw); err != nil {
				return err
			}
		case "editable":
			b, ok := raw.(bool)
			if !ok {
				return fmt.Errorf("editable must be a boolean, got %T", raw)
			}
			r.Editable = b
		case "git":
			if err := assignString(&r.Git, key, raw); err != nil {
				return err
			}
		case "ref":
			if err := assignString(&r.Ref, key, raw); err != nil {
				return err
			}
		case "subdirectory":
			if err := assignString(&r.Subdirectory, key, raw); err != nil {
				return err
			}
		case "hashes":
			list, ok := raw.([]any)
			if !ok {
				return fmt.Errorf("hashes must be an array, got %T", raw)
			}
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("hashes entries must be strings, got %T", item)
				}
				r.Hashes = append(r.Hashes, s)
			}
		default:
			r.Unknown = append(r.Unknown, key)
		}
	}
	sort.Strings(r.Unknown)
	return nil
}

func assignString(dst *string, key string, raw any) error {
	s, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%s must be a string, got %T", key, raw)
	}
	*dst = s
	return nil
}

// MarshalTOML encodes the requirement: the string shorthand when only a
// version constraint is present, an inline table otherwise.
func (r Requirement) MarshalTOML() ([]byte, error) {
	if r.bare() {
		v := r.Version
		if v == "" {
			v = "*"
		}
		return []byte(strconv.Quote(v)), nil
	}

	var fields []string
	add := func(key, value string) {
		if value != "" {
			fields = append(fields, key+" = "+strconv.Quote(value))
		}
	}
	addList := func(key string, values []string) {
		if len(values) == 0 {
			return
		}
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = strconv.Quote(v)
		}
		fields = append(fields, key+" = ["+strings.Join(quoted, ", ")+"]")
	}

	add("version", r.Version)
	addList("extras", r.Extras)
	add("markers", r.Markers)
	add("sys_platform", r.SysPlatform)
	add("os_name", r.OSName)
	add("platform_machine", r.PlatformMachine)
	add("python_version", r.PythonVersion)
	add("index", r.Index)
	add("path", r.Path)
	add("file", r.File)
	if r.Editable {
		fields = append(fields, "editable = true")
	}
	add("git", r.Git)
	add("ref", r.Ref)
	add("subdirectory", r.Subdirectory)
	addList("hashes", r.Hashes)

	return []byte("{" + strings.Join(fields, ", ") + "}"), nil
}
