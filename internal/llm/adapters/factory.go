package adapters

import (
	"context"
	"fmt"

	"github.com/azyu/ploomer/internal/llm"
	"github.com/azyu/ploomer/pkg/types"
)

// Provider names accepted by New.
const (
	ProviderToolkit = "toolkit"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
)

// Names lists the supported providers.
func Names() []string {
	return []string{ProviderToolkit, ProviderOpenAI, ProviderGemini}
}

// New builds the named provider from its configuration. The toolkit provider
// needs no configuration at all.
func New(ctx context.Context, name string, cfg *types.ProviderConfig) (llm.Provider, error) {
	if cfg == nil {
		cfg = &types.ProviderConfig{}
	}

	switch name {
	case ProviderToolkit, "":
		var opts []ToolkitOption
		if cfg.APIKey != "" {
			opts = append(opts, WithBearerToken(cfg.APIKey))
		}
		return NewToolkitAdapter(cfg.BaseURL, opts...), nil
	case ProviderOpenAI:
		var opts []OpenAIOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.BaseURL))
		}
		return NewOpenAIAdapter(cfg.APIKey, cfg.DefaultModel, opts...)
	case ProviderGemini:
		return NewGeminiAdapter(ctx, cfg.APIKey, cfg.DefaultModel)
	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: %v)", name, Names())
	}
}
