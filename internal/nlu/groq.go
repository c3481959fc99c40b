package nlu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
)

// GroqClassifier classifies intents through Groq's OpenAI-compatible API.
type GroqClassifier struct {
	client openai.Client
	model  string
	tools  []openai.ChatCompletionToolUnionParam
}

// NewGroqClassifier creates a classifier bound to one model. baseURL
// overrides the Groq endpoint, mainly for tests.
func NewGroqClassifier(apiKey, model, baseURL string) (*GroqClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq: %w", domerrors.ErrNotConfigured)
	}
	if model == "" {
		model = DefaultGroqIntentModels[0]
	}
	if baseURL == "" {
		baseURL = ProviderEndpoint[ProviderGroq]
	}

	return &GroqClassifier{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		),
		model: model,
		tools: buildOpenAITools(),
	}, nil
}

// buildOpenAITools converts the Gemini declarations to OpenAI tools.
func buildOpenAITools() []openai.ChatCompletionToolUnionParam {
	decls := BuildIntentFunctions()
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(decls))
	for _, fd := range decls {
		tools = append(tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        fd.Name,
			Description: openai.String(fd.Description),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		}))
	}
	return tools
}

// Classify forces a tool call and maps it to an intent name.
func (c *GroqClassifier) Classify(ctx context.Context, q Query) (*Result, error) {
	if q.Text == "" {
		return nil, fmt.Errorf("groq: empty query: %w", domerrors.ErrInvalidInput)
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(IntentClassifierSystemPrompt),
			openai.UserMessage(classificationPrompt(q)),
		},
		Tools: c.tools,
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoRequired)),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(64),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "intent classification API call failed",
			"provider", ProviderGroq,
			"model", c.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from model")
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, errors.New("no tool call in response (expected with required mode)")
	}
	if calls[0].Type != "function" {
		return nil, fmt.Errorf("unexpected tool type: %s", calls[0].Type)
	}

	name := calls[0].Function.Name
	intent, ok := intentFromFunction(name)
	if !ok {
		return nil, fmt.Errorf("groq: function %q: %w", name, domerrors.ErrUnknownIntent)
	}

	slog.DebugContext(ctx, "intent classification completed",
		"provider", ProviderGroq,
		"model", c.model,
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", duration.Milliseconds(),
		"function_name", name)

	return &Result{Name: intent, Provider: ProviderGroq, FunctionName: name}, nil
}

// Model returns the model name.
func (c *GroqClassifier) Model() string {
	return c.model
}

// Provider returns ProviderGroq.
func (c *GroqClassifier) Provider() Provider {
	return ProviderGroq
}

// Close is a no-op.
func (c *GroqClassifier) Close() error {
	return nil
}
