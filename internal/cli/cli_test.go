package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/umarmnaq/pipenv/pkg/cache"
)

const testPipfile = `[[source]]
url = "https://pypi.org/simple"
verify_ssl = true
name = "pypi"

[packages]
requests = ">=2.31.0"

[dev-packages]
pytest = "*"

[scripts]
hello = "echo hello"
`

// writeProject creates a temp project directory holding a Pipfile.
func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Pipfile"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// execute runs the CLI with args and returns stdout plus the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)

	// Capture stdout; the ui helpers print there directly.
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	execErr := root.ExecuteContext(context.Background())

	w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String(), execErr
}

func TestLintValidManifest(t *testing.T) {
	dir := writeProject(t, testPipfile)
	out, err := execute(t, "lint", "--pipfile", filepath.Join(dir, "Pipfile"))
	if err != nil {
		t.Fatalf("lint error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("lint output:\n%s", out)
	}
}

func TestLintReportsErrors(t *testing.T) {
	manifest := testPipfile + "\n[pipenv]\nallow_prereleases = true\n"
	manifest = strings.Replace(manifest, `requests = ">=2.31.0"`, `requests = "2.31.0"`, 1)
	dir := writeProject(t, manifest)

	out, err := execute(t, "lint", "--pipfile", filepath.Join(dir, "Pipfile"))
	if err == nil {
		t.Fatalf("lint should fail for bare version:\n%s", out)
	}
	if !strings.Contains(out, "requests") {
		t.Errorf("diagnostics missing package name:\n%s", out)
	}
}

func TestFmtCheckAndRewrite(t *testing.T) {
	// Unsorted packages and loose formatting.
	messy := "[packages]\nzlib2 = \"*\"\nrequests   = \">=2.31.0\"\n"
	dir := writeProject(t, messy)
	path := filepath.Join(dir, "Pipfile")

	if _, err := execute(t, "fmt", "--check", "--pipfile", path); err == nil {
		t.Fatal("fmt --check should fail for non-canonical file")
	}

	if out, err := execute(t, "fmt", "--pipfile", path); err != nil {
		t.Fatalf("fmt error: %v\n%s", err, out)
	}

	if _, err := execute(t, "fmt", "--check", "--pipfile", path); err != nil {
		t.Fatalf("fmt --check after fmt: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[[source]]") {
		t.Errorf("formatted file missing default source:\n%s", data)
	}
}

func TestFmtWarnsOnDroppedKeys(t *testing.T) {
	manifest := "[packages]\nrequests = {version = \">=2.31.0\", wheel = false}\n"
	dir := writeProject(t, manifest)
	path := filepath.Join(dir, "Pipfile")

	out, err := execute(t, "fmt", "--pipfile", path)
	if err != nil {
		t.Fatalf("fmt error: %v\n%s", err, out)
	}
	if !strings.Contains(out, `unknown key "wheel"`) {
		t.Errorf("fmt output missing dropped-key warning:\n%s", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "wheel") {
		t.Errorf("unknown key survived canonical rewrite:\n%s", data)
	}
}

func TestCacheClearCommand(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	fc, err := cache.NewFileCache(filepath.Join(xdg, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Cleared 1") {
		t.Errorf("cache clear output:\n%s", out)
	}
	if _, err := fc.Get(ctx, "k"); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("entry survived cache clear: %v", err)
	}
}

func TestScriptsListing(t *testing.T) {
	dir := writeProject(t, testPipfile)
	out, err := execute(t, "scripts", "--pipfile", filepath.Join(dir, "Pipfile"))
	if err != nil {
		t.Fatalf("scripts error: %v", err)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "echo hello") {
		t.Errorf("scripts output:\n%s", out)
	}
}

func TestHashCommand(t *testing.T) {
	dir := writeProject(t, testPipfile)
	out, err := execute(t, "hash", "--pipfile", filepath.Join(dir, "Pipfile"))
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	hash := strings.TrimSpace(out)
	if len(hash) != 64 {
		t.Errorf("hash = %q, want 64 hex chars", hash)
	}

	// Scripts changes must not move the hash.
	dir2 := writeProject(t, strings.Replace(testPipfile, "echo hello", "echo other", 1))
	out2, err := execute(t, "hash", "--pipfile", filepath.Join(dir2, "Pipfile"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out2) != hash {
		t.Error("hash changed when only [scripts] changed")
	}
}

func TestVerifyInitAndCheck(t *testing.T) {
	dir := writeProject(t, testPipfile)
	path := filepath.Join(dir, "Pipfile")

	if _, err := execute(t, "verify", "--pipfile", path); err == nil {
		t.Fatal("verify should fail without a lockfile")
	}

	if out, err := execute(t, "verify", "--init", "--pipfile", path); err != nil {
		t.Fatalf("verify --init error: %v\n%s", err, out)
	}
	if out, err := execute(t, "verify", "--pipfile", path); err != nil {
		t.Fatalf("verify after init error: %v\n%s", err, out)
	}

	// Change a dependency; the lock goes stale.
	stale := strings.Replace(testPipfile, ">=2.31.0", ">=2.32.0", 1)
	if err := os.WriteFile(path, []byte(stale), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "verify", "--pipfile", path); err == nil {
		t.Fatal("verify should fail after the Pipfile changed")
	}
}

func TestExportRequirements(t *testing.T) {
	dir := writeProject(t, testPipfile)
	out := filepath.Join(dir, "requirements.txt")

	if _, err := execute(t, "export", "--pipfile", filepath.Join(dir, "Pipfile"), "-o", out); err != nil {
		t.Fatalf("export error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "requests>=2.31.0") {
		t.Errorf("requirements output:\n%s", data)
	}
	if strings.Contains(string(data), "pytest") {
		t.Errorf("dev package exported without --dev:\n%s", data)
	}
}

func TestImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	reqs := filepath.Join(dir, "requirements.txt")
	if err := os.WriteFile(reqs, []byte("requests>=2.31.0\nflask\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "Pipfile")

	if _, err := execute(t, "import", "-i", reqs, "-o", out); err != nil {
		t.Fatalf("import error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`requests = ">=2.31.0"`, `flask = "*"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("imported Pipfile missing %q:\n%s", want, data)
		}
	}

	if _, err := execute(t, "import", "-i", reqs, "-o", out); err == nil {
		t.Fatal("import should refuse to overwrite an existing Pipfile")
	}
}

func TestCacheDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg-test", appName) {
		t.Errorf("cacheDir() = %q", dir)
	}
}

func TestProjectDir(t *testing.T) {
	if got := projectDir("/work/app/Pipfile"); got != "/work/app" {
		t.Errorf("projectDir = %q", got)
	}
}
