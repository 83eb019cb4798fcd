package cirag

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/server"
)

// writeSlack keeps the HTTP write deadline above the completion deadline.
const writeSlack = 30 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the question-answering HTTP API",
		Long:  "Downloads missing artifacts that have a configured URL, loads the corpus and index once, then serves POST /ask, GET /health and GET /metrics until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureAssets(cmd.Context()); err != nil {
				return err
			}
			rt, err := a.newRuntime(a.cfg)
			if err != nil {
				return err
			}
			emb, llm := rt.Backends()
			logging.LogEvent("Runtime ready: %d chunks, embedder=%s, completion=%s", rt.Chunks(), emb, llm)

			var metricsHandler http.Handler
			if rec := rt.Recorder(); rec != nil {
				metricsHandler = rec.Handler()
			}
			srv := server.New(rt.Pipeline(), metricsHandler, a.cfg.TopK(), a.cfg.GenerationTimeout()+writeSlack)

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "Customer Intelligence API listening on %s\n", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
