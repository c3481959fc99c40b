package nlu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
)

// GeminiClassifier classifies intents with Gemini function calling.
type GeminiClassifier struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiClassifier creates a classifier bound to one model.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", domerrors.ErrNotConfigured)
	}
	return newGeminiClassifier(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newGeminiClassifier(ctx context.Context, cc *genai.ClientConfig, model string) (*GeminiClassifier, error) {
	if model == "" {
		model = DefaultGeminiIntentModels[0]
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClassifier{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{
				FunctionDeclarations: BuildIntentFunctions(),
			}},
			SystemInstruction: genai.NewContentFromText(IntentClassifierSystemPrompt, genai.RoleUser),
			ToolConfig: &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{
					Mode: genai.FunctionCallingConfigModeAny,
				},
			},
			// Thinking tokens count toward MaxOutputTokens.
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr[int32](0),
			},
			Temperature:     genai.Ptr[float32](0),
			MaxOutputTokens: 512,
		},
	}, nil
}

// Classify asks the model to call exactly one intent function.
func (c *GeminiClassifier) Classify(ctx context.Context, q Query) (*Result, error) {
	if q.Text == "" {
		return nil, fmt.Errorf("gemini: empty query: %w", domerrors.ErrInvalidInput)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(classificationPrompt(q)), c.config)
	duration := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "intent classification API call failed",
			"provider", ProviderGemini,
			"model", c.model,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	name, err := geminiFunctionName(resp)
	if err != nil {
		return nil, err
	}
	intent, ok := intentFromFunction(name)
	if !ok {
		return nil, fmt.Errorf("gemini: function %q: %w", name, domerrors.ErrUnknownIntent)
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "intent classification completed",
			"provider", ProviderGemini,
			"model", c.model,
			"total_tokens", resp.UsageMetadata.TotalTokenCount,
			"duration_ms", duration.Milliseconds(),
			"function_name", name)
	}

	return &Result{Name: intent, Provider: ProviderGemini, FunctionName: name}, nil
}

func geminiFunctionName(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from model")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", errors.New("no content in response")
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.FunctionCall != nil {
			return part.FunctionCall.Name, nil
		}
	}
	return "", errors.New("no function call in response (expected with ANY mode)")
}

// Model returns the model name.
func (c *GeminiClassifier) Model() string {
	return c.model
}

// Provider returns ProviderGemini.
func (c *GeminiClassifier) Provider() Provider {
	return ProviderGemini
}

// Close is a no-op; genai.Client holds no resources that need releasing.
func (c *GeminiClassifier) Close() error {
	return nil
}
