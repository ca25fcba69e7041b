package convert

import (
	"strings"
	"testing"

	"github.com/umarmnaq/pipenv/pkg/lockfile"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

func testManifest() *pipfile.Manifest {
	m := pipfile.New()
	m.Sources = append(m.Sources, pipfile.Source{
		URL:       "https://pypi.internal.example.com/simple",
		VerifySSL: true,
		Name:      "internal",
	})
	m.Packages = pipfile.Packages{
		"requests": {Version: ">=2.31.0", Extras: []string{"socks"}},
		"flask":    {Version: "*"},
		"pywin32":  {Version: "*", SysPlatform: "== 'win32'"},
		"mylib":    {Path: "./mylib", Editable: true},
		"tool":     {Git: "https://github.com/example/tool.git", Ref: "v1.2.0"},
	}
	m.DevPackages = pipfile.Packages{
		"pytest": {Version: ">=8.0"},
	}
	return m
}

func TestRequirements(t *testing.T) {
	var b strings.Builder
	if err := Requirements(&b, testManifest(), RequirementsOptions{}); err != nil {
		t.Fatalf("Requirements() error: %v", err)
	}

	want := []string{
		"-i https://pypi.org/simple",
		"--extra-index-url https://pypi.internal.example.com/simple",
		"flask",
		"-e ./mylib",
		"pywin32 ; sys_platform == 'win32'",
		"requests[socks]>=2.31.0",
		"git+https://github.com/example/tool.git@v1.2.0#egg=tool",
	}
	got := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), b.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRequirementsDev(t *testing.T) {
	var b strings.Builder
	opts := RequirementsOptions{Dev: true, ExcludeIndex: true}
	if err := Requirements(&b, testManifest(), opts); err != nil {
		t.Fatalf("Requirements() error: %v", err)
	}
	if !strings.Contains(b.String(), "pytest>=8.0") {
		t.Errorf("dev output missing pytest:\n%s", b.String())
	}
	if strings.Contains(b.String(), "-i ") {
		t.Errorf("ExcludeIndex output contains index line:\n%s", b.String())
	}
}

func TestRequirementsWithLock(t *testing.T) {
	m := pipfile.New()
	m.Packages = pipfile.Packages{"requests": {Version: ">=2.0"}}
	lock := &lockfile.Lockfile{
		Default: map[string]lockfile.Entry{
			"requests": {
				Version: "==2.31.0",
				Hashes:  []string{"sha256:deadbeef"},
			},
		},
	}

	var b strings.Builder
	opts := RequirementsOptions{ExcludeIndex: true, Lock: lock}
	if err := Requirements(&b, m, opts); err != nil {
		t.Fatalf("Requirements() error: %v", err)
	}
	want := "requests==2.31.0 --hash=sha256:deadbeef\n"
	if b.String() != want {
		t.Errorf("got %q, want %q", b.String(), want)
	}
}

func TestFromRequirements(t *testing.T) {
	input := strings.Join([]string{
		"# pinned by ops",
		"-i https://pypi.internal.example.com/simple",
		"requests[socks]>=2.31.0",
		"flask",
		`pywin32 ; sys_platform == "win32"`,
		"-e ./mylib",
		"git+https://github.com/example/tool.git@v1.2.0#egg=tool",
		"-r extra.txt",
		"",
	}, "\n")

	m, err := FromRequirements(strings.NewReader(input), false)
	if err != nil {
		t.Fatalf("FromRequirements() error: %v", err)
	}

	if got := m.Sources[0].URL; got != "https://pypi.internal.example.com/simple" {
		t.Errorf("primary source = %q", got)
	}
	if got := m.Packages["requests"].Version; got != ">=2.31.0" {
		t.Errorf("requests version = %q", got)
	}
	if got := m.Packages["requests"].Extras; len(got) != 1 || got[0] != "socks" {
		t.Errorf("requests extras = %v", got)
	}
	if got := m.Packages["flask"].Version; got != "*" {
		t.Errorf("flask version = %q", got)
	}
	if got := m.Packages["pywin32"].Markers; !strings.Contains(got, "sys_platform") {
		t.Errorf("pywin32 markers = %q", got)
	}
	mylib := m.Packages["mylib"]
	if mylib.Path != "./mylib" || !mylib.Editable {
		t.Errorf("mylib = %+v", mylib)
	}
	tool := m.Packages["tool"]
	if tool.Git != "https://github.com/example/tool.git" || tool.Ref != "v1.2.0" {
		t.Errorf("tool = %+v", tool)
	}
	if _, ok := m.Packages["extra.txt"]; ok {
		t.Error("-r include leaked into packages")
	}
}

func TestFromRequirementsInvalid(t *testing.T) {
	_, err := FromRequirements(strings.NewReader("not a ==== requirement"), false)
	if err == nil {
		t.Fatal("expected error for malformed requirement line")
	}
}

func TestRoundTrip(t *testing.T) {
	var b strings.Builder
	if err := Requirements(&b, testManifest(), RequirementsOptions{}); err != nil {
		t.Fatalf("Requirements() error: %v", err)
	}
	m, err := FromRequirements(strings.NewReader(b.String()), false)
	if err != nil {
		t.Fatalf("FromRequirements() error: %v", err)
	}
	for _, name := range []string{"requests", "flask", "pywin32", "mylib", "tool"} {
		if _, ok := m.Packages[name]; !ok {
			t.Errorf("package %q lost in round trip", name)
		}
	}
}
