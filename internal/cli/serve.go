package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paradoxlab/reversal/internal/server"
	"github.com/paradoxlab/reversal/pkg/cache"
	"github.com/paradoxlab/reversal/pkg/pipeline"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redisURL string
		mongoURI string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reversal HTTP API",
		Long: `Run the reversal HTTP API.

The server exposes the pipeline over HTTP:

  GET  /healthz          liveness probe
  POST /api/v1/trees     build a tree and return the requested artifacts
  POST /api/v1/figures   build a tree and return one layer figure as SVG

By default results are cached on local disk. Pass --redis or --mongo to
share the cache across instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisURL, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis cache URL (e.g. redis://localhost:6379/0)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB cache URI (e.g. mongodb://localhost:27017)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, redisURL, mongoURI string, noCache bool) error {
	backend, err := c.newServeCache(ctx, redisURL, mongoURI, noCache)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(backend, nil, c.Logger)
	defer runner.Close()

	srv := server.New(runner, c.Logger, addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// newServeCache picks the cache backend for the server: redis or mongo
// when configured, the local file cache otherwise.
func (c *CLI) newServeCache(ctx context.Context, redisURL, mongoURI string, noCache bool) (cache.Cache, error) {
	switch {
	case noCache:
		return cache.NewNullCache(), nil
	case redisURL != "" && mongoURI != "":
		return nil, fmt.Errorf("--redis and --mongo are mutually exclusive")
	case redisURL != "":
		backend, err := cache.NewRedisCache(ctx, redisURL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		c.Logger.Info("using redis cache")
		return backend, nil
	case mongoURI != "":
		backend, err := cache.NewMongoCache(ctx, mongoURI, appName, "cache")
		if err != nil {
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		c.Logger.Info("using mongodb cache")
		return backend, nil
	default:
		return newCache(false)
	}
}
