package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwiater/cirag/internal/rag"
)

type recordingAnswerer struct {
	questions []string
	ks        []int
	result    rag.AnswerResult
	err       error
}

func (r *recordingAnswerer) Ask(_ context.Context, question string, k int) (rag.AnswerResult, error) {
	r.questions = append(r.questions, question)
	r.ks = append(r.ks, k)
	return r.result, r.err
}

func update(t *testing.T, m *model, msg tea.Msg) (*model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(*model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func TestKSliderIsBounded(t *testing.T) {
	m := initialModel(context.Background(), &recordingAnswerer{}, Options{})
	if m.k != DefaultK {
		t.Fatalf("initial k=%d want %d", m.k, DefaultK)
	}

	for i := 0; i < 20; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	if m.k != MaxK {
		t.Fatalf("k=%d after raising, want %d", m.k, MaxK)
	}
	for i := 0; i < 20; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.k != MinK {
		t.Fatalf("k=%d after lowering, want %d", m.k, MinK)
	}

	clamped := initialModel(context.Background(), &recordingAnswerer{}, Options{DefaultK: 1})
	if clamped.k != MinK {
		t.Fatalf("DefaultK=1 should clamp to %d, got %d", MinK, clamped.k)
	}
}

func TestEnterAsksWithCurrentK(t *testing.T) {
	ans := &recordingAnswerer{result: rag.AnswerResult{
		Answer:  "- refunds are slow",
		Sources: []string{"Complaint C1 (chunk 1)"},
		Status:  rag.StatusAnswered,
	}}
	m := initialModel(context.Background(), ans, Options{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})

	m.input.SetValue("  refund complaints  ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.isLoading || cmd == nil {
		t.Fatalf("expected loading with a command; loading=%v", m.isLoading)
	}
	if m.asked != "refund complaints" || m.input.Value() != "" {
		t.Fatalf("expected trimmed question and cleared input; asked=%q input=%q", m.asked, m.input.Value())
	}

	// A second enter while loading is ignored.
	if _, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("expected no command while loading")
	}

	msg := askCmd(context.Background(), ans, m.asked, m.k)()
	if len(ans.ks) != 1 || ans.ks[0] != 5 || ans.questions[0] != "refund complaints" {
		t.Fatalf("unexpected answerer calls: %v %v", ans.questions, ans.ks)
	}

	m, _ = update(t, m, msg)
	if m.isLoading || m.result == nil {
		t.Fatalf("expected a result after answerMsg")
	}
	out := m.View()
	for _, want := range []string{"refunds are slow", "Complaint C1 (chunk 1)", "status: answered"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestBlankQuestionIsIgnored(t *testing.T) {
	m := initialModel(context.Background(), &recordingAnswerer{}, Options{})
	m.input.SetValue("   ")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.isLoading || cmd != nil {
		t.Fatalf("blank question should not start a request")
	}
}

func TestAnswerErrorIsShown(t *testing.T) {
	ans := &recordingAnswerer{err: errors.New("connection refused")}
	m := initialModel(context.Background(), ans, Options{Remote: true})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, _ = update(t, m, askCmd(context.Background(), ans, "refunds", 4)())
	out := m.View()
	if !strings.Contains(out, "connection refused") || !strings.Contains(out, "Mode: remote") {
		t.Fatalf("unexpected view:\n%s", out)
	}
}

func TestRenderResultWithoutSources(t *testing.T) {
	out := renderResult(rag.AnswerResult{Answer: rag.NoRelevantDataAnswer, Sources: []string{}, Status: rag.StatusNoData}, 80)
	if !strings.Contains(out, noSourcesText) {
		t.Fatalf("expected fallback sources text:\n%s", out)
	}
	if !strings.Contains(out, "Sources") || !strings.Contains(out, "Answer") {
		t.Fatalf("expected section headings:\n%s", out)
	}
}

func TestAnswerFuncAdapter(t *testing.T) {
	var got int
	f := AnswerFunc(func(_ context.Context, _ string, k int) (rag.AnswerResult, error) {
		got = k
		return rag.AnswerResult{}, nil
	})
	if _, err := f.Ask(context.Background(), "q", 7); err != nil || got != 7 {
		t.Fatalf("adapter did not forward: k=%d err=%v", got, err)
	}
}
