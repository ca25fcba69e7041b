package pipfile_test

import (
	"fmt"

	"github.com/umarmnaq/pipenv/pkg/pipfile"
)

// Parse a Pipfile and inspect its requirements and scripts.
func Example() {
	manifest, err := pipfile.Parse([]byte(`
[packages]
requests = { version = ">=2.28", extras = ["socks"] }
flask = "*"

[dev-packages]
pytest = "*"

[scripts]
tests = "pytest -v"
`))
	if err != nil {
		fmt.Println("parse:", err)
		return
	}

	for _, name := range manifest.Packages.Names() {
		req := manifest.Packages[name]
		fmt.Printf("%s %s\n", name, req.Version)
	}
	for _, name := range manifest.Scripts.Names() {
		fmt.Printf("%s -> %s\n", name, manifest.Scripts[name])
	}
	fmt.Println("source:", manifest.PrimarySource().URL)

	// Output:
	// flask *
	// requests >=2.28
	// tests -> pytest -v
	// source: https://pypi.org/simple
}

// Validate reports structural problems as diagnostics.
func ExampleManifest_Validate() {
	manifest, _ := pipfile.Parse([]byte(`
[packages]
requests = ">=not-a-version"

[scripts]
noop = ""
`))

	for _, d := range manifest.Validate() {
		fmt.Println(d)
	}

	// Output:
	// error: [packages/requests] invalid specifier: ">=not-a-version"
	// error: [scripts/noop] command cannot be empty
}
