package pep508

import (
	"runtime"
	"sort"
)

// Environment assigns values to marker variables for evaluation.
// The zero value is usable and resolves every variable to the empty string.
type Environment map[string]string

// Lookup returns the value bound to a marker variable, or "" when unbound.
func (e Environment) Lookup(name string) string { return e[name] }

// With returns a copy of the environment with name bound to value.
func (e Environment) With(name, value string) Environment {
	out := make(Environment, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[name] = value
	return out
}

// Variables returns the bound variable names in sorted order.
func (e Environment) Variables() []string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// goosToSysPlatform maps runtime.GOOS to the Python sys.platform value.
var goosToSysPlatform = map[string]string{
	"linux":   "linux",
	"darwin":  "darwin",
	"windows": "win32",
	"freebsd": "freebsd",
	"openbsd": "openbsd",
	"aix":     "aix",
}

// goarchToMachine maps runtime.GOARCH to the platform.machine() value
// reported by CPython on that architecture.
var goarchToMachine = map[string]string{
	"amd64": "x86_64",
	"386":   "i686",
	"arm64": "aarch64",
	"arm":   "armv7l",
	"s390x": "s390x",
}

// goosToSystem maps runtime.GOOS to the platform.system() value.
var goosToSystem = map[string]string{
	"linux":   "Linux",
	"darwin":  "Darwin",
	"windows": "Windows",
	"freebsd": "FreeBSD",
	"openbsd": "OpenBSD",
}

// DefaultPythonVersion is the interpreter series assumed when a manifest
// does not pin one via [requires].
const DefaultPythonVersion = "3.12"

// DefaultEnvironment returns a marker environment describing the current
// platform, assuming a CPython interpreter of the given version series.
// Pass "" to use DefaultPythonVersion.
//
// The platform-dependent variables follow the values CPython reports on
// the host OS and architecture; interpreter-dependent variables assume
// CPython since no interpreter is consulted.
func DefaultEnvironment(pythonVersion string) Environment {
	if pythonVersion == "" {
		pythonVersion = DefaultPythonVersion
	}
	full := pythonVersion
	if countDots(full) < 2 {
		full += ".0"
	}

	osName := "posix"
	if runtime.GOOS == "windows" {
		osName = "nt"
	}

	return Environment{
		"os_name":                        osName,
		"sys_platform":                   lookupOr(goosToSysPlatform, runtime.GOOS, runtime.GOOS),
		"platform_machine":               lookupOr(goarchToMachine, runtime.GOARCH, runtime.GOARCH),
		"platform_system":                lookupOr(goosToSystem, runtime.GOOS, runtime.GOOS),
		"platform_python_implementation": "CPython",
		"implementation_name":            "cpython",
		"implementation_version":         full,
		"python_version":                 pythonVersion,
		"python_full_version":            full,
	}
}

func lookupOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func countDots(s string) int {
	n := 0
	for _, r := range s {
		if r == '.' {
			n++
		}
	}
	return n
}
