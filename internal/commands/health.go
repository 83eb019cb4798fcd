package cirag

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/cirag/internal/apiclient"
)

func (a *app) healthCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that a running API server is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = a.cfg.Server.URL
			}
			client, err := apiclient.New(url, a.cfg.RequestTimeout())
			if err != nil {
				return err
			}
			res, err := client.Health(cmd.Context())
			if err != nil {
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "unhealthy: %v\n", err)
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Status, res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "API base URL (default server.url)")
	return cmd
}
