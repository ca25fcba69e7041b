package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/umarmnaq/pipenv/internal/api"
	"github.com/umarmnaq/pipenv/pkg/cache"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
	"github.com/umarmnaq/pipenv/pkg/registry"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		indexURL  string
		redisAddr string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the manifest tooling HTTP API",
		Long: `Serve exposes lint and convert over HTTP, plus package metadata
lookups against the configured index. With --redis, index responses are
cached in Redis so multiple instances share one cache; otherwise the
file cache is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			backend, err := c.serveCache(ctx, redisAddr, noCache)
			if err != nil {
				return err
			}
			defer backend.Close()

			source := pipfile.DefaultSource()
			if indexURL != "" {
				source = pipfile.Source{URL: indexURL, VerifySSL: true, Name: "configured"}
			}

			// Surface a misconfigured index at startup instead of on the
			// first lookup.
			if err := registry.New(source, backend, registry.DefaultTTL).Ping(ctx); err != nil {
				c.Logger.Warn("index not reachable", "url", source.URL, "error", err)
			}

			server := api.New(api.Config{
				Addr:   addr,
				Source: source,
				Cache:  backend,
				Logger: c.Logger,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return err
				}
				c.Logger.Info("server stopped")
				return ctx.Err()
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&indexURL, "index-url", "", "package index simple URL (default: pypi.org)")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for shared response caching")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")
	return cmd
}

func (c *CLI) serveCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		c.Logger.Info("using Redis cache", "addr", redisAddr)
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: redisAddr})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	return newCache(false)
}
