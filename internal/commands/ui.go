package cirag

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/cirag/internal/tui"
)

func (a *app) uiCmd() *cobra.Command {
	var (
		remote bool
		url    string
	)
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ask, err := a.answerer(remote, url)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), tui.AnswerFunc(ask), tui.Options{
				Remote:   remote,
				DefaultK: a.cfg.TopK(),
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "send questions to a running API server")
	cmd.Flags().StringVar(&url, "url", "", "API base URL for --remote (default server.url)")
	return cmd
}
