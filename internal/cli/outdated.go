package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umarmnaq/pipenv/pkg/pep440"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
	"github.com/umarmnaq/pipenv/pkg/registry"
)

// outdatedOpts holds the command-line flags for the outdated command.
type outdatedOpts struct {
	pipfilePath string
	dev         bool
	refresh     bool
	noCache     bool
	prereleases bool
}

// outdatedCommand creates the outdated command.
func (c *CLI) outdatedCommand() *cobra.Command {
	var opts outdatedOpts

	cmd := &cobra.Command{
		Use:   "outdated",
		Short: "Compare declared constraints against the index",
		Long: `Outdated looks up every named package on its declared source's index
and reports the newest release admitted by the package's specifier set,
plus the newest release overall. Local path, file, and VCS requirements
are skipped; they have no index to compare against.

Prereleases are considered when --pre is set or the Pipfile declares
allow_prereleases under [pipenv].`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManifest(opts.pipfilePath)
			if err != nil {
				return err
			}
			return c.runOutdated(cmd.Context(), m, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.pipfilePath, "pipfile", "f", "", "path to the Pipfile (default: search upward)")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "include [dev-packages]")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the response cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache entirely")
	cmd.Flags().BoolVar(&opts.prereleases, "pre", false, "consider prerelease versions")
	return cmd
}

func (c *CLI) runOutdated(ctx context.Context, m *pipfile.Manifest, opts outdatedOpts) error {
	logger := loggerFromContext(ctx)
	prereleases := opts.prereleases || m.AllowsPrereleases()

	backend, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer backend.Close()

	// One client per declared source; packages use their declared index.
	clients := map[string]*registry.Client{}
	for _, src := range m.Sources {
		clients[src.Name] = registry.New(src, backend, registry.DefaultTTL)
	}
	primary := clients[m.PrimarySource().Name]

	sections := m.Packages
	if opts.dev {
		sections = merged(m.Packages, m.DevPackages)
	}

	spin := newSpinner(ctx, "Checking the index...")
	spin.Start()
	prog := newProgress(logger)

	type row struct {
		name, current, latest, newest string
	}
	var rows []row
	checked := 0

	for _, name := range sections.Names() {
		req := sections[name]
		if req.IsLocal() || req.IsVCS() {
			logger.Debug("skipping non-index requirement", "package", name)
			continue
		}

		client := primary
		if req.Index != "" {
			if cl, ok := clients[req.Index]; ok {
				client = cl
			}
		}

		info, err := client.FetchPackage(ctx, name, opts.refresh)
		if err != nil {
			if ctx.Err() != nil {
				spin.Stop()
				return ctx.Err()
			}
			spin.Stop()
			printWarning("%s: %v", name, err)
			spin = newSpinner(ctx, "Checking the index...")
			spin.Start()
			continue
		}
		checked++

		specs, err := pep440.ParseSpecifierSet(specifierOf(req))
		if err != nil {
			continue
		}
		matching := registry.LatestMatching(info, specs, prereleases)
		newest := registry.LatestMatching(info, pep440.SpecifierSet{}, prereleases)

		r := row{name: name, current: specifierOf(req)}
		if matching != nil {
			r.latest = matching.String()
		}
		if newest != nil {
			r.newest = newest.String()
		}
		rows = append(rows, r)
	}

	spin.Stop()
	if spin.Cancelled() {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Checked %d package(s)", checked))

	outdated := 0
	for _, r := range rows {
		if r.latest != "" && r.newest != "" && r.latest != r.newest {
			outdated++
			printInfo("%s %s: newest allowed %s, newest available %s",
				StyleHighlight.Render(r.name), StyleDim.Render(r.current),
				r.latest, StyleValue.Render(r.newest))
			continue
		}
		printDetail("%s %s (up to date, newest %s)", r.name, r.current, r.newest)
	}
	if outdated == 0 {
		printSuccess("All constraints admit the newest available releases")
	}
	return nil
}

func specifierOf(req pipfile.Requirement) string {
	if req.Version == "" || req.Version == "*" {
		return ""
	}
	return req.Version
}

func merged(a, b pipfile.Packages) pipfile.Packages {
	out := make(pipfile.Packages, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
