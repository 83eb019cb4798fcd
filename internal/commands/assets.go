package cirag

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mwiater/cirag/internal/assets"
)

func (a *app) assetsCmd() *cobra.Command {
	group := &cobra.Command{
		Use:   "assets",
		Short: "Group commands for the corpus and index artifacts",
	}

	var force bool
	fetch := &cobra.Command{
		Use:   "fetch",
		Short: "Download the corpus and index if they are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := assets.NewFetcher(&http.Client{Timeout: a.cfg.RequestTimeout()}, force)
			results, err := fetcher.Ensure(cmd.Context(), assets.Artifacts(a.cfg))
			for _, r := range results {
				state := "present"
				if r.Downloaded {
					state = fmt.Sprintf("downloaded (%d bytes)", r.Bytes)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s: %s\n", r.Artifact.Name, r.Artifact.Path, state)
			}
			return err
		},
	}
	fetch.Flags().BoolVar(&force, "force", false, "download even when the file exists")

	group.AddCommand(fetch)
	return group
}

// ensureAssets downloads any missing artifact that has a URL configured.
// Artifacts without a URL are left for the runtime loader to report.
func (a *app) ensureAssets(ctx context.Context) error {
	var wanted []assets.Artifact
	for _, art := range assets.Artifacts(a.cfg) {
		if art.URL != "" {
			wanted = append(wanted, art)
		}
	}
	if len(wanted) == 0 {
		return nil
	}
	fetcher := assets.NewFetcher(&http.Client{Timeout: a.cfg.RequestTimeout()}, false)
	if _, err := fetcher.Ensure(ctx, wanted); err != nil {
		return fmt.Errorf("fetch assets: %w", err)
	}
	return nil
}
