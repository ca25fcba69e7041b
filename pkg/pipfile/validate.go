package pipfile

import (
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/umarmnaq/pipenv/pkg/errors"
	"github.com/umarmnaq/pipenv/pkg/pep440"
	"github.com/umarmnaq/pipenv/pkg/pep508"
)

// Severity classifies a diagnostic.
type Severity string

// Diagnostic severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single validation finding.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     pkgerrors.Code `json:"code"`
	Section  string         `json:"section,omitempty"` // "source", "packages", "dev-packages", "scripts", "requires"
	Name     string         `json:"name,omitempty"`    // entry within the section
	Message  string         `json:"message"`
}

// String formats the diagnostic as "severity: [section/name] message".
func (d Diagnostic) String() string {
	loc := d.Section
	if d.Name != "" {
		loc += "/" + d.Name
	}
	if loc != "" {
		return fmt.Sprintf("%s: [%s] %s", d.Severity, loc, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Diagnostics is a list of validation findings.
type Diagnostics []Diagnostic

// HasErrors reports whether any finding has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity findings.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Err converts error-severity findings into a single error, or nil.
func (ds Diagnostics) Err() error {
	errs := ds.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, d := range errs {
		msgs[i] = d.String()
	}
	return pkgerrors.New(pkgerrors.ErrCodeInvalidManifest,
		"%d validation error(s):\n%s", len(errs), strings.Join(msgs, "\n"))
}

// validator accumulates diagnostics while walking a manifest.
type validator struct {
	m    *Manifest
	diag Diagnostics
}

func (v *validator) errorf(code pkgerrors.Code, section, name, format string, args ...any) {
	v.diag = append(v.diag, Diagnostic{
		Severity: SeverityError, Code: code, Section: section, Name: name,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) warnf(code pkgerrors.Code, section, name, format string, args ...any) {
	v.diag = append(v.diag, Diagnostic{
		Severity: SeverityWarning, Code: code, Section: section, Name: name,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks the manifest against the structural properties of the
// Pipfile format: unique non-empty names, version constraints that parse
// under the PEP 440 specifier grammar, markers that parse under the PEP 508
// marker grammar, non-empty script commands, and well-formed sources.
//
// Violations of the format are errors; suspicious-but-legal constructs
// (duplicate packages across sections, unknown keys) are warnings.
func (m *Manifest) Validate() Diagnostics {
	v := &validator{m: m}

	v.checkSources()
	v.checkPackages("packages", m.Packages)
	v.checkPackages("dev-packages", m.DevPackages)
	v.checkCrossSection()
	v.checkScripts()
	v.checkRequires()

	for _, section := range m.Undecoded {
		v.warnf(pkgerrors.ErrCodeInvalidManifest, "", "", "unknown section [%s]", section)
	}

	return v.diag
}

func (v *validator) checkSources() {
	seen := map[string]bool{}
	for _, s := range v.m.Sources {
		if err := pkgerrors.ValidateSourceName(s.Name); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidSource, "source", s.Name, "%s", pkgerrors.UserMessage(err))
		} else if seen[s.Name] {
			v.errorf(pkgerrors.ErrCodeInvalidSource, "source", s.Name, "duplicate source name %q", s.Name)
		}
		seen[s.Name] = true

		if err := pkgerrors.ValidateURL(s.URL); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidSource, "source", s.Name, "%s", pkgerrors.UserMessage(err))
		}
		if !s.VerifySSL {
			v.warnf(pkgerrors.ErrCodeInvalidSource, "source", s.Name, "TLS verification is disabled")
		}
	}
}

func (v *validator) checkPackages(section string, pkgs Packages) {
	normalized := map[string]string{}

	for _, name := range pkgs.Names() {
		req := pkgs[name]

		if err := pkgerrors.ValidatePythonPackageName(name); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidPackage, section, name, "%s", pkgerrors.UserMessage(err))
		}

		canon := pep508.NormalizeName(name)
		if prev, ok := normalized[canon]; ok {
			v.errorf(pkgerrors.ErrCodeDuplicatePackage, section, name,
				"%q and %q normalize to the same package %q", prev, name, canon)
		}
		normalized[canon] = name

		v.checkRequirement(section, name, req)
	}
}

func (v *validator) checkRequirement(section, name string, req Requirement) {
	if !req.Any() {
		if _, err := pep440.ParseSpecifierSet(req.Version); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidSpecifier, section, name, "%v", err)
		}
	}

	if markers := req.CombinedMarkers(); markers != "" {
		if _, err := pep508.ParseMarker(markers); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidMarker, section, name, "%v", err)
		}
	}

	for _, extra := range req.Extras {
		if strings.TrimSpace(extra) == "" {
			v.errorf(pkgerrors.ErrCodeInvalidPackage, section, name, "empty extras entry")
		}
	}

	if req.Index != "" {
		if _, ok := v.m.Source(req.Index); !ok {
			v.errorf(pkgerrors.ErrCodeInvalidSource, section, name,
				"index %q does not match any [[source]] entry", req.Index)
		}
	}

	if req.Path != "" {
		if err := pkgerrors.ValidatePath(req.Path); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidPath, section, name, "%s", pkgerrors.UserMessage(err))
		}
	}
	if req.Path != "" && req.File != "" {
		v.errorf(pkgerrors.ErrCodeInvalidPackage, section, name, "path and file are mutually exclusive")
	}
	if req.Editable && !req.IsLocal() && !req.IsVCS() {
		v.warnf(pkgerrors.ErrCodeInvalidPackage, section, name, "editable has no effect without path, file, or git")
	}
	if (req.IsLocal() || req.IsVCS()) && !req.Any() {
		v.warnf(pkgerrors.ErrCodeInvalidSpecifier, section, name,
			"version constraint is ignored for local and VCS requirements")
	}
	if req.Ref != "" && req.Git == "" {
		v.warnf(pkgerrors.ErrCodeInvalidPackage, section, name, "ref has no effect without git")
	}

	for _, h := range req.Hashes {
		if !strings.Contains(h, ":") {
			v.errorf(pkgerrors.ErrCodeInvalidPackage, section, name, "malformed hash %q (want algorithm:digest)", h)
		}
	}

	for _, key := range req.Unknown {
		v.warnf(pkgerrors.ErrCodeInvalidPackage, section, name, "unknown key %q", key)
	}
}

// checkCrossSection warns when a package appears in both [packages] and
// [dev-packages]; pipenv resolves both into one environment, so the two
// declarations can conflict silently.
func (v *validator) checkCrossSection() {
	canon := map[string]bool{}
	for name := range v.m.Packages {
		canon[pep508.NormalizeName(name)] = true
	}

	var dupes []string
	for name := range v.m.DevPackages {
		if canon[pep508.NormalizeName(name)] {
			dupes = append(dupes, name)
		}
	}
	sort.Strings(dupes)

	for _, name := range dupes {
		v.warnf(pkgerrors.ErrCodeDuplicatePackage, "dev-packages", name,
			"%q is also declared in [packages]", name)
	}
}

func (v *validator) checkScripts() {
	for _, name := range v.m.Scripts.Names() {
		if err := pkgerrors.ValidateScriptName(name); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidScript, "scripts", name, "%s", pkgerrors.UserMessage(err))
		}
		if strings.TrimSpace(v.m.Scripts[name]) == "" {
			v.errorf(pkgerrors.ErrCodeInvalidScript, "scripts", name, "command cannot be empty")
		}
	}
}

func (v *validator) checkRequires() {
	if v.m.Requires == nil {
		return
	}
	if pv := v.m.Requires.PythonVersion; pv != "" {
		if _, err := pep440.Parse(pv); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidManifest, "requires", "python_version", "%v", err)
		}
	}
	if pv := v.m.Requires.PythonFullVersion; pv != "" {
		if _, err := pep440.Parse(pv); err != nil {
			v.errorf(pkgerrors.ErrCodeInvalidManifest, "requires", "python_full_version", "%v", err)
		}
	}
}
