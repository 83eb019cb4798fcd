package cirag

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/cirag/internal/rag"
)

func (a *app) retrieveCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "retrieve <question>",
		Short: "Preview retrieval and the assembled prompt without calling the completion service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k = a.resolveK(k)
			rt, err := a.newRuntime(a.cfg)
			if err != nil {
				return err
			}
			pv, err := rt.Pipeline().Preview(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			if a.cfg.JSONMode {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pv)
			}
			rag.WritePreview(cmd.OutOrStdout(), pv)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "number of passages to retrieve, 1-10 (default retrieval.defaultK)")
	return cmd
}
