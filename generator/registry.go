package generator

import (
	"fmt"
	"sort"
	"sync"
)

// providerDefaults 是两个视觉模型 provider 的默认设置。
var providerDefaults = map[string]LLMSettings{
	"openai": {
		Model:     "gpt-4o-mini",
		MaxTokens: 1000,
	},
	"huggingface": {
		Model:     "meta-llama/Llama-3.2-11B-Vision-Instruct",
		BaseURL:   "https://router.huggingface.co/v1",
		MaxTokens: 500,
	},
}

// ProviderInfo describes one provider for listings.
type ProviderInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	Configured bool   `json:"configured"`
	Default    bool   `json:"default"`
}

type provider struct {
	client LLMClient
	style  PromptStyle
	model  string
}

// Registry 按名称管理可用的 LLM provider。缺少 API key 的 provider 会被记录下来，
// 选择它们时返回 ErrMissingCredential，而不是 ErrUnknownProvider。
// All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]provider
	missing     map[string]string
	defaultName string
}

// NewRegistry builds clients for every provider in settings. "mock" needs no key.
func NewRegistry(defaultName string, settings map[string]LLMSettings) (*Registry, error) {
	r := &Registry{
		providers:   make(map[string]provider),
		missing:     make(map[string]string),
		defaultName: defaultName,
	}

	for name, s := range settings {
		s.Provider = name
		switch name {
		case "mock":
			r.providers[name] = provider{client: MockLLM{}, style: PromptStyleImagePart, model: "mock"}
		case "openai", "huggingface":
			s = withDefaults(name, s)
			if s.APIKey == "" {
				r.missing[name] = s.Model
				continue
			}
			client, err := NewOpenAILLMFromConfig(&s)
			if err != nil {
				return nil, err
			}
			style := PromptStyleImagePart
			if name == "huggingface" {
				style = PromptStyleInline
			}
			r.providers[name] = provider{client: client, style: style, model: s.Model}
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
	}
	return r, nil
}

func withDefaults(name string, s LLMSettings) LLMSettings {
	d := providerDefaults[name]
	if s.Model == "" {
		s.Model = d.Model
	}
	if s.BaseURL == "" {
		s.BaseURL = d.BaseURL
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = d.MaxTokens
	}
	return s
}

// Register adds or replaces a provider, e.g. a fake client in tests.
func (r *Registry) Register(name string, client LLMClient, style PromptStyle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider{client: client, style: style}
	delete(r.missing, name)
}

// Resolve returns the client for name, or for the default provider when name is empty.
func (r *Registry) Resolve(name string) (LLMClient, PromptStyle, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}
	if p, ok := r.providers[name]; ok {
		return p.client, p.style, name, nil
	}
	if _, ok := r.missing[name]; ok {
		return nil, 0, name, fmt.Errorf("%w: set the API key for provider %q", ErrMissingCredential, name)
	}
	return nil, 0, name, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// Has reports whether name is a known provider, with or without a credential.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.providers[name]; ok {
		return true
	}
	_, ok := r.missing[name]
	return ok
}

// DefaultName returns the provider used when a request names none.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Providers lists configured and credential-less providers, sorted by name.
func (r *Registry) Providers() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ProviderInfo
	for name, p := range r.providers {
		out = append(out, ProviderInfo{Name: name, Model: p.model, Configured: true, Default: name == r.defaultName})
	}
	for name, model := range r.missing {
		out = append(out, ProviderInfo{Name: name, Model: model, Default: name == r.defaultName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
