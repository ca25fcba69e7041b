package pipfile

import (
	"strings"
	"testing"

	pkgerrors "github.com/umarmnaq/pipenv/pkg/errors"
)

func TestValidateClean(t *testing.T) {
	m := parseSample(t)
	ds := m.Validate()
	if ds.HasErrors() {
		t.Errorf("sample manifest should have no errors: %v", ds.Errors())
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		code     pkgerrors.Code
		severity Severity
	}{
		{
			name: "bad specifier",
			manifest: `[packages]
requests = ">=not-a-version"
`,
			code:     pkgerrors.ErrCodeInvalidSpecifier,
			severity: SeverityError,
		},
		{
			name: "bare version without operator",
			manifest: `[packages]
requests = "2.28.1"
`,
			code:     pkgerrors.ErrCodeInvalidSpecifier,
			severity: SeverityError,
		},
		{
			name: "bad marker",
			manifest: `[packages]
requests = { version = "*", markers = "bogus_var == 'x'" }
`,
			code:     pkgerrors.ErrCodeInvalidMarker,
			severity: SeverityError,
		},
		{
			name: "undeclared index",
			manifest: `[packages]
requests = { version = "*", index = "private" }
`,
			code:     pkgerrors.ErrCodeInvalidSource,
			severity: SeverityError,
		},
		{
			name: "normalized duplicate",
			manifest: `[packages]
typing-extensions = "*"
typing_extensions = "*"
`,
			code:     pkgerrors.ErrCodeDuplicatePackage,
			severity: SeverityError,
		},
		{
			name: "empty script",
			manifest: `[scripts]
noop = "   "
`,
			code:     pkgerrors.ErrCodeInvalidScript,
			severity: SeverityError,
		},
		{
			name: "bad python version",
			manifest: `[requires]
python_version = "three.eleven"
`,
			code:     pkgerrors.ErrCodeInvalidManifest,
			severity: SeverityError,
		},
		{
			name: "insecure source",
			manifest: `[[source]]
url = "https://pypi.org/simple"
verify_ssl = false
name = "pypi"
`,
			code:     pkgerrors.ErrCodeInvalidSource,
			severity: SeverityWarning,
		},
		{
			name: "cross-section duplicate",
			manifest: `[packages]
requests = "*"

[dev-packages]
requests = "*"
`,
			code:     pkgerrors.ErrCodeDuplicatePackage,
			severity: SeverityWarning,
		},
		{
			name: "unknown requirement key",
			manifest: `[packages]
requests = { version = "*", flavor = "spicy" }
`,
			code:     pkgerrors.ErrCodeInvalidPackage,
			severity: SeverityWarning,
		},
		{
			name: "version on local path",
			manifest: `[packages]
local-lib = { path = "./lib", version = "==1.0" }
`,
			code:     pkgerrors.ErrCodeInvalidSpecifier,
			severity: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.manifest))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			ds := m.Validate()

			for _, d := range ds {
				if d.Code == tt.code && d.Severity == tt.severity {
					return
				}
			}
			t.Errorf("no %s diagnostic with code %s in %v", tt.severity, tt.code, ds)
		})
	}
}

func TestDiagnosticsErr(t *testing.T) {
	m, err := Parse([]byte("[scripts]\nbad = \"\"\n"))
	if err != nil {
		t.Fatal(err)
	}

	verr := m.Validate().Err()
	if verr == nil {
		t.Fatal("Err() = nil, want error")
	}
	if !pkgerrors.Is(verr, pkgerrors.ErrCodeInvalidManifest) {
		t.Errorf("Err() code = %v", pkgerrors.GetCode(verr))
	}
	if !strings.Contains(verr.Error(), "scripts/bad") {
		t.Errorf("Err() should name the failing entry: %v", verr)
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Code:     pkgerrors.ErrCodeInvalidScript,
		Section:  "scripts",
		Name:     "tests",
		Message:  "command cannot be empty",
	}
	want := "error: [scripts/tests] command cannot be empty"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
