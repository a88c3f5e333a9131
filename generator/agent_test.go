package generator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"sketch2web/imaging"
)

type fakeLLM struct {
	reply   string
	err     error
	calls   int
	prompts []Prompt
}

func (f *fakeLLM) Complete(_ context.Context, p Prompt) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, p)
	return f.reply, f.err
}

func newTestAgent(t *testing.T, fake *fakeLLM, style PromptStyle) *Agent {
	t.Helper()
	reg, err := NewRegistry("fake", map[string]LLMSettings{"openai": {}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	reg.Register("fake", fake, style)
	agent, err := NewAgent(reg, imaging.DefaultOptions, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	return agent
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 64, 32))); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func TestAgentGenerateUpdatesSession(t *testing.T) {
	fake := &fakeLLM{reply: "Sure!\n```html\n<h1>Hi</h1>\n```\n```css\nh1{color:red}\n```"}
	agent := newTestAgent(t, fake, PromptStyleImagePart)
	sess := NewSession("s1")

	turn, err := agent.Generate(context.Background(), sess, GenerationRequest{
		Image:        testPNG(t),
		Source:       SourceUpload,
		Instructions: "make it red",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := ExtractedCode{HTML: "<h1>Hi</h1>", CSS: "h1{color:red}"}
	if turn.Code != want || sess.Code != want {
		t.Fatalf("code = %+v / %+v, want %+v", turn.Code, sess.Code, want)
	}
	if sess.State() != StateGenerated {
		t.Fatalf("state = %v", sess.State())
	}
	if sess.Notes != "Sure!" {
		t.Fatalf("notes = %q", sess.Notes)
	}
	if turn.Provider != "fake" || turn.Source != SourceUpload {
		t.Fatalf("turn = %+v", turn)
	}

	p := fake.prompts[0]
	if p.User != "make it red" {
		t.Errorf("user prompt = %q", p.User)
	}
	if !strings.HasPrefix(p.ImageURL, "data:image/jpeg;base64,") {
		t.Errorf("image url = %.40q", p.ImageURL)
	}
}

func TestAgentGenerateExtractionMiss(t *testing.T) {
	fake := &fakeLLM{reply: "I cannot help with that."}
	agent := newTestAgent(t, fake, PromptStyleImagePart)
	sess := NewSession("s1")

	if _, err := agent.Generate(context.Background(), sess, GenerationRequest{Instructions: "x"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sess.State() != StateExtractionMiss {
		t.Fatalf("state = %v, want extraction miss", sess.State())
	}
	if !sess.Generated || !sess.Code.Empty() {
		t.Fatalf("session = %+v", sess)
	}
}

func TestAgentGenerateOverwritesPreviousCode(t *testing.T) {
	fake := &fakeLLM{reply: "```html\n<p>one</p>\n```\n```css\np{}\n```"}
	agent := newTestAgent(t, fake, PromptStyleImagePart)
	sess := NewSession("s1")
	ctx := context.Background()

	if _, err := agent.Generate(ctx, sess, GenerationRequest{}); err != nil {
		t.Fatal(err)
	}
	fake.reply = "```html\n<p>two</p>\n```"
	if _, err := agent.Generate(ctx, sess, GenerationRequest{}); err != nil {
		t.Fatal(err)
	}

	if sess.Code != (ExtractedCode{HTML: "<p>two</p>"}) {
		t.Fatalf("code = %+v, want overwritten not merged", sess.Code)
	}
	if len(sess.History) != 2 {
		t.Fatalf("history len = %d", len(sess.History))
	}
}

func TestAgentUpstreamFailureLeavesSessionUntouched(t *testing.T) {
	fake := &fakeLLM{reply: "```html\n<p>ok</p>\n```"}
	agent := newTestAgent(t, fake, PromptStyleImagePart)
	sess := NewSession("s1")
	ctx := context.Background()

	if _, err := agent.Generate(ctx, sess, GenerationRequest{}); err != nil {
		t.Fatal(err)
	}
	before := *sess

	fake.err = errors.New("401 invalid api key")
	_, err := agent.Generate(ctx, sess, GenerationRequest{})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("err lost cause: %v", err)
	}
	if sess.Code != before.Code || len(sess.History) != len(before.History) || sess.Notes != before.Notes {
		t.Fatalf("session changed after failure: %+v", sess)
	}
}

func TestAgentMissingCredentialHaltsBeforeCall(t *testing.T) {
	fake := &fakeLLM{}
	agent := newTestAgent(t, fake, PromptStyleImagePart)
	sess := NewSession("s1")

	_, err := agent.Generate(context.Background(), sess, GenerationRequest{Provider: "openai"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if fake.calls != 0 {
		t.Fatalf("provider called %d times", fake.calls)
	}
	if sess.State() != StateEmpty {
		t.Fatalf("state = %v", sess.State())
	}
}

func TestAgentInvalidImage(t *testing.T) {
	fake := &fakeLLM{}
	agent := newTestAgent(t, fake, PromptStyleImagePart)

	_, err := agent.Generate(context.Background(), NewSession("s1"), GenerationRequest{Image: []byte("nope")})
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("err = %v, want ErrInvalidImage", err)
	}
	if fake.calls != 0 {
		t.Fatal("provider should not be called for a bad image")
	}
}

func TestAgentInlineStyleWithLabeledReply(t *testing.T) {
	fake := &fakeLLM{reply: "[HTML]: <nav>menu</nav>\n[CSS]: nav { display: flex; }"}
	agent := newTestAgent(t, fake, PromptStyleInline)
	sess := NewSession("s1")

	_, err := agent.Generate(context.Background(), sess, GenerationRequest{
		Image:        testPNG(t),
		Source:       SourceCanvas,
		Instructions: "a nav bar",
	})
	if err != nil {
		t.Fatal(err)
	}
	if sess.Code != (ExtractedCode{HTML: "<nav>menu</nav>", CSS: "nav { display: flex; }"}) {
		t.Fatalf("code = %+v", sess.Code)
	}
	p := fake.prompts[0]
	if p.ImageURL != "" {
		t.Error("inline style must not send an image part")
	}
	if !strings.HasPrefix(p.User, "![Canvas Sketch](data:image/jpeg;base64,") {
		t.Errorf("user prompt = %.60q", p.User)
	}
}
