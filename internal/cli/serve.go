package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridroute/pkg/api"
	"github.com/matzehuels/gridroute/pkg/cache"
)

// apiKeyPrefix separates server cache entries from CLI entries in a
// shared cache.
const apiKeyPrefix = "api:"

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		maxBody int64
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routing API over HTTP",
		Long: `Serve the routing API over HTTP.

Endpoints:
  POST /v1/route   route an inline board (JSON body with board, board_format, strategy, formats, ...)
  GET  /healthz    liveness probe

The server shares the configured cache with the CLI. Stop it with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, noCache, cache.NewScopedKeyer(nil, apiKeyPrefix))
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := api.NewServer(runner, c.Logger,
				api.WithRequestTimeout(timeout),
				api.WithMaxBodyBytes(maxBody),
				api.WithConfig(cfg))
			printInfo("Serving on %s", StyleHighlight.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", api.DefaultRequestTimeout, "per-request routing timeout")
	cmd.Flags().Int64Var(&maxBody, "max-body", api.DefaultMaxBodyBytes, "maximum request body in bytes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
