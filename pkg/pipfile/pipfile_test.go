package pipfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleManifest = `
[[source]]
url = "https://pypi.org/simple"
verify_ssl = true
name = "pypi"

[[source]]
url = "https://internal.example.com/simple"
verify_ssl = true
name = "internal"

[packages]
requests = { version = ">=2.28", extras = ["socks"] }
records = "*"
django = ">=4.2,<5"
pywin32 = { version = "*", sys_platform = "win32" }
internal-tool = { version = "==1.0", index = "internal" }
local-lib = { path = "./libs/local-lib", editable = true }

[dev-packages]
pytest = "*"
black = "==24.*"

[requires]
python_version = "3.11"

[pipenv]
allow_prereleases = true

[scripts]
tests = "pytest -v tests"
server = "python manage.py runserver"
`

func parseSample(t *testing.T) *Manifest {
	t.Helper()
	m, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return m
}

func TestParse(t *testing.T) {
	m := parseSample(t)

	if len(m.Sources) != 2 {
		t.Fatalf("Sources = %d, want 2", len(m.Sources))
	}
	if m.Sources[1].Name != "internal" || !m.Sources[1].VerifySSL {
		t.Errorf("unexpected second source: %+v", m.Sources[1])
	}

	req, ok := m.Packages["requests"]
	if !ok {
		t.Fatal("requests not parsed")
	}
	if req.Version != ">=2.28" {
		t.Errorf("requests version = %q", req.Version)
	}
	if !reflect.DeepEqual(req.Extras, []string{"socks"}) {
		t.Errorf("requests extras = %v", req.Extras)
	}

	if r := m.Packages["records"]; r.Version != "*" || !r.Any() {
		t.Errorf("records = %+v, want wildcard", r)
	}
	if r := m.Packages["pywin32"]; r.SysPlatform != "win32" {
		t.Errorf("pywin32 sys_platform = %q", r.SysPlatform)
	}
	if r := m.Packages["local-lib"]; r.Path != "./libs/local-lib" || !r.Editable {
		t.Errorf("local-lib = %+v", r)
	}

	if m.Scripts["tests"] != "pytest -v tests" {
		t.Errorf("scripts/tests = %q", m.Scripts["tests"])
	}
	if m.PythonVersion() != "3.11" {
		t.Errorf("PythonVersion = %q", m.PythonVersion())
	}
	if !m.AllowsPrereleases() {
		t.Error("AllowsPrereleases = false, want true")
	}
}

func TestParseDefaultSource(t *testing.T) {
	m, err := Parse([]byte(`[packages]
requests = "*"
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Sources) != 1 {
		t.Fatalf("Sources = %d, want implicit default", len(m.Sources))
	}
	if got := m.PrimarySource(); got != DefaultSource() {
		t.Errorf("PrimarySource = %+v, want default", got)
	}
}

func TestParseEmpty(t *testing.T) {
	m, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty manifest should parse: %v", err)
	}
	if ds := m.Validate(); ds.HasErrors() {
		t.Errorf("empty manifest should validate: %v", ds)
	}
}

func TestParseInvalidTOML(t *testing.T) {
	if _, err := Parse([]byte("[packages\nrequests = \"*\"")); err == nil {
		t.Error("malformed TOML should fail")
	}
	// Duplicate keys violate the TOML grammar itself.
	if _, err := Parse([]byte("[packages]\nrequests = \"*\"\nrequests = \"==2.0\"\n")); err == nil {
		t.Error("duplicate package keys should fail")
	}
}

func TestParseUnknownSection(t *testing.T) {
	m, err := Parse([]byte("[nonsense]\nkey = 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Undecoded, []string{"nonsense"}) {
		t.Errorf("Undecoded = %v", m.Undecoded)
	}
}

func TestRoundTrip(t *testing.T) {
	first := parseSample(t)

	encoded, err := first.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	second, err := Parse(encoded)
	if err != nil {
		t.Fatalf("re-parse failed: %v\n%s", err, encoded)
	}

	if !reflect.DeepEqual(first.Sources, second.Sources) {
		t.Errorf("sources changed: %+v vs %+v", first.Sources, second.Sources)
	}
	if !reflect.DeepEqual(first.Packages, second.Packages) {
		t.Errorf("packages changed:\n%+v\nvs\n%+v", first.Packages, second.Packages)
	}
	if !reflect.DeepEqual(first.DevPackages, second.DevPackages) {
		t.Errorf("dev-packages changed")
	}
	if !reflect.DeepEqual(first.Scripts, second.Scripts) {
		t.Errorf("scripts changed")
	}
	if !reflect.DeepEqual(first.Requires, second.Requires) {
		t.Errorf("requires changed")
	}
	if !reflect.DeepEqual(first.Pipenv, second.Pipenv) {
		t.Errorf("pipenv options changed")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	m := parseSample(t)

	a, err := m.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("encoding is not deterministic")
	}
}

func TestWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Filename)

	m := parseSample(t)
	if err := m.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(m.Packages, loaded.Packages) {
		t.Error("packages changed across Write/Load")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), Filename)); err == nil {
		t.Error("Load of missing file should fail")
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, Filename)
	if err := os.WriteFile(path, []byte("[packages]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := Find(nested)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found != path {
		t.Errorf("Find = %q, want %q", found, path)
	}

	if _, err := Find(t.TempDir()); err == nil {
		t.Error("Find without a Pipfile should fail")
	}
}

func TestHashStable(t *testing.T) {
	a := parseSample(t)
	b := parseSample(t)

	ha, err := a.Hash()
	if err != nil {
		t.Fatal(err)
	}
	hb, err := b.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Error("identical manifests should hash identically")
	}
	if len(ha) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(ha))
	}

	b.Packages["flask"] = Requirement{Version: "*"}
	hc, err := b.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if hc == ha {
		t.Error("adding a package should change the hash")
	}
}

func TestHashIgnoresScripts(t *testing.T) {
	a := parseSample(t)
	b := a.Clone()
	b.Scripts["extra"] = "true"

	ha, _ := a.Hash()
	hb, _ := b.Hash()
	if ha != hb {
		t.Error("scripts should not affect the manifest hash")
	}
}
