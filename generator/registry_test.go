package generator

import (
	"context"
	"errors"
	"testing"
)

func TestRegistryResolve(t *testing.T) {
	reg, err := NewRegistry("openai", map[string]LLMSettings{
		"openai":      {},
		"huggingface": {APIKey: "hf_test"},
		"mock":        {},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if _, _, name, err := reg.Resolve(""); !errors.Is(err, ErrMissingCredential) || name != "openai" {
		t.Fatalf("default resolve = %q, %v; want missing credential for openai", name, err)
	}

	_, style, _, err := reg.Resolve("huggingface")
	if err != nil {
		t.Fatalf("huggingface: %v", err)
	}
	if style != PromptStyleInline {
		t.Errorf("huggingface style = %v, want inline", style)
	}

	client, _, _, err := reg.Resolve("mock")
	if err != nil {
		t.Fatalf("mock: %v", err)
	}
	raw, err := client.Complete(context.Background(), Prompt{User: "Landing page"})
	if err != nil {
		t.Fatal(err)
	}
	if code := Extract(raw); code.HTML == "" || code.CSS == "" {
		t.Errorf("mock reply not extractable: %+v", code)
	}

	if _, _, _, err := reg.Resolve("gemini"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("gemini err = %v, want ErrUnknownProvider", err)
	}
}

func TestRegistryRejectsUnsupportedProvider(t *testing.T) {
	_, err := NewRegistry("x", map[string]LLMSettings{"x": {APIKey: "k"}})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("err = %v", err)
	}
}

func TestRegistryProviders(t *testing.T) {
	reg, err := NewRegistry("mock", map[string]LLMSettings{
		"openai": {},
		"mock":   {},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := reg.Providers()
	if len(got) != 2 {
		t.Fatalf("providers = %+v", got)
	}
	if got[0].Name != "mock" || !got[0].Configured || !got[0].Default {
		t.Errorf("mock = %+v", got[0])
	}
	if got[1].Name != "openai" || got[1].Configured || got[1].Model != "gpt-4o-mini" {
		t.Errorf("openai = %+v", got[1])
	}
}

func TestRegisterClearsMissing(t *testing.T) {
	reg, err := NewRegistry("openai", map[string]LLMSettings{"openai": {}})
	if err != nil {
		t.Fatal(err)
	}
	reg.Register("openai", MockLLM{}, PromptStyleImagePart)
	if _, _, _, err := reg.Resolve("openai"); err != nil {
		t.Fatalf("Resolve after Register: %v", err)
	}
}

func TestRegistryHas(t *testing.T) {
	reg, err := NewRegistry("mock", map[string]LLMSettings{
		"openai": {},
		"mock":   {},
	})
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]bool{"mock": true, "openai": true, "huggingface": false, "junk": false, "": false} {
		if got := reg.Has(name); got != want {
			t.Errorf("Has(%q) = %v, want %v", name, got, want)
		}
	}
}
