package cirag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/cirag/internal/apiclient"
	"github.com/mwiater/cirag/internal/appconfig"
	"github.com/mwiater/cirag/internal/rag"
	"github.com/mwiater/cirag/internal/util"
)

const noSourcesText = "No relevant complaint records found."

// askFunc answers a question either in-process or through the API.
type askFunc func(ctx context.Context, question string, k int) (rag.AnswerResult, error)

// answerer resolves where questions go. remote selects the API at url
// (or server.url when empty); otherwise the runtime is loaded locally.
func (a *app) answerer(remote bool, url string) (askFunc, error) {
	if remote {
		if url == "" {
			url = a.cfg.Server.URL
		}
		client, err := apiclient.New(url, a.cfg.GenerationTimeout()+writeSlack)
		if err != nil {
			return nil, err
		}
		return client.Ask, nil
	}

	rt, err := a.newRuntime(a.cfg)
	if err != nil {
		return nil, err
	}
	p := rt.Pipeline()
	return func(ctx context.Context, question string, k int) (rag.AnswerResult, error) {
		return p.AnswerWithSources(ctx, question, k), nil
	}, nil
}

func (a *app) askCmd() *cobra.Command {
	var (
		k      int
		remote bool
		url    string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the complaint corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}
			k = a.resolveK(k)

			ask, err := a.answerer(remote, url)
			if err != nil {
				return err
			}
			res, err := ask(cmd.Context(), question, k)
			if err != nil {
				return err
			}

			if a.cfg.JSONMode {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printAnswer(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "number of passages to retrieve, 1-10 (default retrieval.defaultK)")
	cmd.Flags().BoolVar(&remote, "remote", false, "ask a running API server instead of loading the corpus")
	cmd.Flags().StringVar(&url, "url", "", "API base URL for --remote (default server.url)")
	return cmd
}

// resolveK applies the configured default and the same bounds the API enforces.
func (a *app) resolveK(k int) int {
	if k == 0 {
		k = a.cfg.TopK()
	}
	return util.Clamp(k, appconfig.MinTopK, appconfig.MaxTopK)
}

func printAnswer(w io.Writer, res rag.AnswerResult) {
	heading := color.New(color.FgCyan, color.Bold)
	statusColor := color.New(color.FgGreen)
	if res.Status != rag.StatusAnswered {
		statusColor = color.New(color.FgYellow)
	}

	heading.Fprintln(w, "Answer:")
	fmt.Fprintln(w, res.Answer)
	fmt.Fprintln(w)
	heading.Fprintln(w, "Sources:")
	if len(res.Sources) == 0 {
		fmt.Fprintln(w, noSourcesText)
	} else {
		for _, s := range res.Sources {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	fmt.Fprintln(w)
	statusColor.Fprintf(w, "status: %s\n", res.Status)
}
