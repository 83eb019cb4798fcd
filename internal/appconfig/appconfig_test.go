// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	bad := Defaults()
	bad.LLM.Type = "carrier-pigeon"
	err := bad.Validate()
	if err == nil || !strings.Contains(err.Error(), "LLM.Type") {
		t.Fatalf("expected LLM.Type failure, got %v", err)
	}

	bad = Defaults()
	bad.Retrieval.DefaultK = 11
	if err := bad.Validate(); err == nil {
		t.Fatal("expected defaultK above 10 to fail")
	}
}

func TestTimeoutsFallBackToDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.RequestTimeout() != 60*time.Second {
		t.Fatalf("expected default request timeout of 60s, got %v", cfg.RequestTimeout())
	}
	if cfg.GenerationTimeout() != 30*time.Second {
		t.Fatalf("expected default generation timeout of 30s, got %v", cfg.GenerationTimeout())
	}
	cfg.LLM.TimeoutSeconds = 5
	if cfg.GenerationTimeout() != 5*time.Second {
		t.Fatalf("expected configured generation timeout, got %v", cfg.GenerationTimeout())
	}
}

func TestAccessorsFallBackToDefaults(t *testing.T) {
	var cfg Config
	if cfg.Threshold() != DefaultRelevanceThreshold {
		t.Fatalf("threshold default: %v", cfg.Threshold())
	}
	if cfg.ContextCap() != DefaultMaxContextPassages {
		t.Fatalf("context cap default: %d", cfg.ContextCap())
	}
	if cfg.TopK() != DefaultTopK {
		t.Fatalf("top k default: %d", cfg.TopK())
	}
	if cfg.Temperature() != 0.3 {
		t.Fatalf("temperature default: %v", cfg.Temperature())
	}
	if cfg.MaxTokens() != 250 {
		t.Fatalf("max tokens default: %d", cfg.MaxTokens())
	}
	if cfg.LogFilePath() != "cirag.log" {
		t.Fatalf("log file default: %s", cfg.LogFilePath())
	}
	if cfg.IndexPath() != "complaints.civx" {
		t.Fatalf("index path default: %s", cfg.IndexPath())
	}
}

func TestAssetPathKeepsAbsoluteFiles(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "corpus.csv")
	cfg := Config{Assets: AssetsConfig{Dir: "assets", CorpusFile: abs}}
	if cfg.CorpusPath() != abs {
		t.Fatalf("expected absolute path to be kept, got %s", cfg.CorpusPath())
	}
}

func TestSaveRoundTripsJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults()
	cfg.LLM.Model = "custom-model"

	jsonPath := filepath.Join(dir, "nested", "config.json")
	if err := Save(jsonPath, cfg); err != nil {
		t.Fatalf("Save json: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("decode saved json: %v", err)
	}
	if loaded.LLM.Model != "custom-model" {
		t.Fatalf("expected saved model, got %q", loaded.LLM.Model)
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	if err := Save(yamlPath, cfg); err != nil {
		t.Fatalf("Save yaml: %v", err)
	}
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("read yaml: %v", err)
	}
	if !strings.Contains(string(raw), "model: custom-model") {
		t.Fatalf("expected yaml output, got:\n%s", raw)
	}
}

func TestShowConfigWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "", nil)
	out := buf.String()
	if !strings.Contains(out, "No config file loaded") {
		t.Fatalf("expected no-file notice, got: %s", out)
	}
	if !strings.Contains(out, "Relevance Threshold: 1.200") {
		t.Fatalf("expected default threshold, got: %s", out)
	}
}
