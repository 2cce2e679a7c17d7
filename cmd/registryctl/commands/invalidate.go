package commands

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"intake/internal/platform/config"
	platformredis "intake/internal/platform/redis"
	"intake/internal/registry/invalidation"
	"intake/pkg/platform/middleware/admin"
)

// SourceCLI is the invalidation source recorded for broadcasts sent by
// registryctl.
const SourceCLI = "cli"

func (c *CLI) newInvalidateCmd() *cobra.Command {
	var (
		addr     string
		token    string
		redisURL string
		channel  string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop the registry index of a running server",
		Long: "Drop the registry index so the next search reloads the file.\n" +
			"With --redis-url the request is broadcast to every instance on the\n" +
			"invalidation channel; otherwise it is sent to the admin endpoint at --addr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if redisURL != "" {
				client, err := platformredis.New(cmd.Context(), config.RedisConfig{
					URL:         redisURL,
					DialTimeout: timeout,
				})
				if err != nil {
					return err
				}
				defer client.Close()

				publisher := invalidation.NewPublisher(client.Client, channel, invalidation.NewOrigin())
				receivers, err := publisher.Publish(cmd.Context(), SourceCLI)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "invalidation broadcast to %d subscriber(s)\n", receivers)
				return nil
			}

			if token == "" {
				return errors.New("admin token required: set --token or ADMIN_API_TOKEN")
			}
			url := strings.TrimRight(addr, "/") + "/admin/registry/invalidate"
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, nil)
			if err != nil {
				return err
			}
			req.Header.Set(admin.TokenHeader, token)

			resp, err := (&http.Client{Timeout: timeout}).Do(req)
			if err != nil {
				return fmt.Errorf("invalidate: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("invalidate: server returned %s", resp.Status)
			}
			fmt.Fprintln(out, "registry index invalidated")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "Base URL of the intake server")
	cmd.Flags().StringVar(&token, "token", os.Getenv("ADMIN_API_TOKEN"), "Admin API token")
	cmd.Flags().StringVar(&redisURL, "redis-url", "", "Broadcast over Redis instead of calling the server")
	cmd.Flags().StringVar(&channel, "channel", config.DefaultInvalidationChannel, "Redis invalidation channel")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}
