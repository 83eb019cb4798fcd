package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		fallback := Defaults()
		cfg = &fallback
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  JSON Mode:       %v\n", cfg.JSONMode)
	fmt.Fprintf(out, "  Metrics:         %v\n", cfg.Metrics)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Request Timeout: %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Corpus Path:     %s\n", cfg.CorpusPath())
	fmt.Fprintf(out, "  Index Path:      %s\n", cfg.IndexPath())
	fmt.Fprintf(out, "  Embedder:        %s %s (%s)\n", cfg.Embedder.Type, cfg.Embedder.Model, cfg.Embedder.URL)
	fmt.Fprintf(out, "  LLM:             %s %s (%s)\n", cfg.LLM.Type, cfg.LLM.Model, cfg.LLM.BaseURL)
	fmt.Fprintf(out, "  LLM API Key Env: %s\n", cfg.LLM.APIKeyEnv)
	fmt.Fprintf(out, "  Max Tokens:      %d\n", cfg.MaxTokens())
	fmt.Fprintf(out, "  Temperature:     %.2f\n", cfg.Temperature())
	fmt.Fprintf(out, "  LLM Timeout:     %s\n", cfg.GenerationTimeout())
	fmt.Fprintf(out, "  Relevance Threshold: %.3f\n", cfg.Threshold())
	fmt.Fprintf(out, "  Context Passages:    %d\n", cfg.ContextCap())
	fmt.Fprintf(out, "  Default K:           %d\n", cfg.TopK())
	fmt.Fprintf(out, "  Server Addr:     %s\n", cfg.Server.Addr)
}
