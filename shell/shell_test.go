package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"content_generator/artifact"
	"content_generator/generator"
)

type stubLLM struct {
	raw   string
	err   error
	calls int
	last  generator.Completion
}

func (s *stubLLM) Complete(_ context.Context, c generator.Completion) (string, error) {
	s.calls++
	s.last = c
	return s.raw, s.err
}

func newTestShell(t *testing.T, llm generator.LLMClient, input string) (*Shell, *bytes.Buffer, string) {
	t.Helper()
	agent, err := generator.NewAgent(llm)
	if err != nil {
		t.Fatal(err)
	}
	log := logrus.New()
	log.Out = io.Discard
	dir := t.TempDir()
	var out bytes.Buffer
	sh := New(agent, artifact.NewWriter(dir, false, log), strings.NewReader(input), &out,
		WithStyle("notty"), WithLogger(log))
	return sh, &out, dir
}

func TestShellGeneratesAndSaves(t *testing.T) {
	llm := &stubLLM{raw: "Body text.\n\n1. a, b\n2. kp\n3. md\n"}
	sh, out, dir := newTestShell(t, llm, "AI & the Future!!\nBlog\n\n\n")

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("expected 1 call, got %d", llm.calls)
	}
	text := out.String()
	for _, want := range []string{"Body text.", "a, b", "kp", "md", "ai_the_future__blog.txt"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "ai_the_future__blog.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != llm.raw {
		t.Errorf("saved content = %q", data)
	}
}

func TestShellRejectsInvalidInputWithoutCalling(t *testing.T) {
	llm := &stubLLM{raw: "unused"}
	input := "Topic\nvideo\n" + // bad content type
		"Topic\nblog\n\nWrite about something\n" // human prompt without placeholder
	sh, out, _ := newTestShell(t, llm, input)

	if err := sh.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if llm.calls != 0 {
		t.Errorf("model called %d times", llm.calls)
	}
	text := out.String()
	if !strings.Contains(text, "Error: invalid content type") {
		t.Errorf("missing content type error:\n%s", text)
	}
	if !strings.Contains(text, "Error: human_prompt must contain the {topic} placeholder") {
		t.Errorf("missing placeholder error:\n%s", text)
	}
}

func TestShellTransportErrorContinues(t *testing.T) {
	llm := &stubLLM{err: errors.New("connection refused")}
	sh, out, dir := newTestShell(t, llm, "Topic\nsocial media\n\n\nTopic\nblog\n\n\n")

	if err := sh.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if llm.calls != 2 {
		t.Errorf("expected the loop to continue after a failure, calls = %d", llm.calls)
	}
	if sh.Done() {
		t.Error("Done should be false when every generation failed")
	}
	if !strings.Contains(out.String(), "Error: generation failed: connection refused") {
		t.Errorf("missing transport error:\n%s", out.String())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("nothing should be saved on failure, found %d files", len(entries))
	}
}

func TestShellQuitAndClear(t *testing.T) {
	llm := &stubLLM{raw: "x"}
	sh, out, _ := newTestShell(t, llm, ":clear\nTopic\n:quit\nnever read\n")

	if err := sh.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if llm.calls != 0 {
		t.Errorf("model called %d times", llm.calls)
	}
	if !strings.Contains(out.String(), "Cleared.") {
		t.Errorf("missing clear acknowledgement:\n%s", out.String())
	}
	if sh.session.HasResult() {
		t.Error("session should be empty")
	}
}

func TestShellRunOnce(t *testing.T) {
	llm := &stubLLM{raw: "Body\n1. a\n2. b\n3. c"}
	sh, out, dir := newTestShell(t, llm, "")
	req := generator.Request{
		Topic:        "  Go Tips ",
		ContentType:  generator.Blog,
		SystemPrompt: "You are terse.\nUse short sentences.",
	}

	if err := sh.RunOnce(context.Background(), req); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if llm.calls != 1 {
		t.Fatalf("expected 1 call, got %d", llm.calls)
	}
	if !sh.Done() {
		t.Error("Done should report the successful generation")
	}
	msgs := llm.last.Messages
	if len(msgs) != 2 || msgs[0].Content != req.SystemPrompt {
		t.Errorf("system prompt not passed through intact: %+v", msgs)
	}
	if len(msgs) == 2 && !strings.Contains(msgs[1].Content, "Go Tips") {
		t.Errorf("human message = %q", msgs[1].Content)
	}
	text := out.String()
	for _, unwanted := range []string{"Enter the topic", "Custom system prompt", cmdQuit} {
		if strings.Contains(text, unwanted) {
			t.Errorf("one-shot output should not contain %q:\n%s", unwanted, text)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "go_tips_blog.txt")); err != nil {
		t.Errorf("content not saved: %v", err)
	}
}

func TestShellRunOnceError(t *testing.T) {
	llm := &stubLLM{raw: "unused"}
	sh, out, _ := newTestShell(t, llm, "")
	req := generator.Request{Topic: "Topic", ContentType: generator.Blog, HumanPrompt: "no placeholder"}

	err := sh.RunOnce(context.Background(), req)
	if !generator.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if llm.calls != 0 || sh.Done() {
		t.Errorf("calls = %d, done = %v", llm.calls, sh.Done())
	}
	if !strings.Contains(out.String(), "Error: human_prompt must contain") {
		t.Errorf("error not printed:\n%s", out.String())
	}
}

func TestShellLogsTopicLengthInRunes(t *testing.T) {
	llm := &stubLLM{raw: "Body\n1. a\n2. b\n3. c"}
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	var out bytes.Buffer
	sh := New(mustAgent(t, llm), artifact.NewWriter(t.TempDir(), false, log), strings.NewReader(""), &out,
		WithStyle("notty"), WithLogger(log))

	if err := sh.RunOnce(context.Background(), generator.Request{Topic: "été", ContentType: generator.Blog}); err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "generating" {
			found = true
			if e.Data["topic_len"] != 3 {
				t.Errorf("topic_len = %v, want 3", e.Data["topic_len"])
			}
		}
	}
	if !found {
		t.Error("no generating entry logged")
	}
}

func mustAgent(t *testing.T, llm generator.LLMClient) *generator.Agent {
	t.Helper()
	agent, err := generator.NewAgent(llm)
	if err != nil {
		t.Fatal(err)
	}
	return agent
}

func TestShellStopsOnCancelledContext(t *testing.T) {
	llm := &stubLLM{raw: "x"}
	sh, _, _ := newTestShell(t, llm, "Topic\nblog\n\n\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sh.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if llm.calls != 0 {
		t.Errorf("model called %d times", llm.calls)
	}
}
