package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/internal/types"
)

type GeneratorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Generator talks to an OpenAI-compatible completion endpoint (Groq by
// default). It implements types.Generator.
type Generator struct {
	config GeneratorConfig
	model  llms.Model
}

func NewGenerator(config GeneratorConfig) (*Generator, error) {
	if config.Model == "" {
		config.Model = "llama3-8b-8192"
	}

	opts := []openai.Option{
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	if config.APIKey != "" {
		opts = append(opts, openai.WithToken(config.APIKey))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.ModelUnavailable, err, "failed to initialize generation model %s", config.Model)
	}

	return &Generator{
		config: config,
		model:  model,
	}, nil
}

// Generate produces one completion for the given system instruction and
// user prompt. When opts.StreamFunc is set, fragments are delivered as
// they arrive and the full text is still returned at the end.
func (g *Generator) Generate(ctx context.Context, system, prompt string, opts types.GenerateOptions) (string, error) {
	var content []llms.MessageContent
	if system != "" {
		content = append(content, llms.TextParts(schema.ChatMessageTypeSystem, system))
	}
	content = append(content, llms.TextParts(schema.ChatMessageTypeHuman, prompt))

	callOpts := []llms.CallOption{
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.StreamFunc != nil {
		callOpts = append(callOpts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return opts.StreamFunc(string(chunk))
		}))
	}

	resp, err := g.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", apperr.Wrap(apperr.ModelUnavailable, err, "generation model %s unavailable", g.config.Model)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", apperr.New(apperr.ModelUnavailable, "generation model %s returned no choices", g.config.Model)
	}

	return resp.Choices[0].Content, nil
}
