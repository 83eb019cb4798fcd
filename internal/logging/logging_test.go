package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "cirag.log")

	var console bytes.Buffer
	if err := Init(logPath, &console); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	LogEvent("hello %s", "world")
	LogQuery("refund complaints", 2, 2, "answered", 1500*time.Microsecond)
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, `[QUERY] k=2 retrieved=2 status=answered elapsed=1ms question="refund complaints"`) {
		t.Fatalf("expected LogQuery content, got: %s", content)
	}
	if !strings.Contains(console.String(), "hello world") {
		t.Fatalf("expected console copy, got: %s", console.String())
	}
}

func TestInitWithoutConsoleWritesFileOnly(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "cirag.log")

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = origStdout })

	if err := Init(logPath, nil); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	LogEvent("file only")
	_ = Close()

	_ = w.Close()
	os.Stdout = origStdout
	leaked, _ := io.ReadAll(r)
	if len(leaked) != 0 {
		t.Fatalf("expected nothing on stdout, got: %s", leaked)
	}

	data, err := os.ReadFile(logPath)
	if err != nil || !strings.Contains(string(data), "file only") {
		t.Fatalf("expected log file content, got %q err=%v", data, err)
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" cirag->llm ", " ", "", map[string]any{"ok": true}, true)
	if !strings.Contains(msg, "[CIRAG->LLM]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "service=unknown") {
		t.Fatalf("expected default service, got: %s", msg)
	}
	if !strings.Contains(msg, "model=unknown") {
		t.Fatalf("expected default model, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestBuildRequestMessageHidesPayloadWithoutDebug(t *testing.T) {
	msg := buildRequestMessage("in", "groq", "m", []byte("secret prompt"), false)
	if strings.Contains(msg, "secret") {
		t.Fatalf("payload leaked without debug: %s", msg)
	}
	if !strings.Contains(msg, "bytes=13") {
		t.Fatalf("expected payload size, got: %s", msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}
