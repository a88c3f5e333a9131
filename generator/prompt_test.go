package generator

import (
	"strings"
	"testing"
)

func TestBuildPromptImagePart(t *testing.T) {
	p := BuildPrompt(GenerationRequest{Instructions: "  Make the button blue  "}, "data:image/jpeg;base64,AAAA", PromptStyleImagePart)
	if p.User != "Make the button blue" {
		t.Errorf("user = %q", p.User)
	}
	if p.ImageURL != "data:image/jpeg;base64,AAAA" {
		t.Errorf("image = %q", p.ImageURL)
	}
	if !strings.Contains(p.System, "```html") {
		t.Errorf("system prompt should ask for fenced blocks: %q", p.System)
	}

	empty := BuildPrompt(GenerationRequest{}, "", PromptStyleImagePart)
	if empty.User == "" {
		t.Error("empty instructions should fall back to a default request")
	}
}

func TestBuildPromptInline(t *testing.T) {
	p := BuildPrompt(GenerationRequest{Source: SourceUpload, Instructions: "login form"}, "data:image/jpeg;base64,BBBB", PromptStyleInline)
	if p.System != "" || p.ImageURL != "" {
		t.Errorf("inline prompt = %+v", p)
	}
	if !strings.HasPrefix(p.User, "![Uploaded Sketch](data:image/jpeg;base64,BBBB)\n\n") {
		t.Errorf("user = %q", p.User)
	}
	if !strings.Contains(p.User, "login form") || !strings.Contains(p.User, "[HTML]: <html code> [CSS]: <css code>") {
		t.Errorf("user = %q", p.User)
	}

	noImage := BuildPrompt(GenerationRequest{Instructions: "x"}, "", PromptStyleInline)
	if strings.Contains(noImage.User, "![") {
		t.Errorf("no image expected: %q", noImage.User)
	}
}
