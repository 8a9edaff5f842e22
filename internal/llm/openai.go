// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/research-agent/pkg/types"
)

// OpenAIModel calls an OpenAI-compatible chat completion API. Setting
// AIConfig.BaseURL points it at any compatible server (R1.1).
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxRetries  int
}

// NewOpenAIModel builds a model client from cfg. The API key must be set;
// provider resolution with fallback is the caller's concern.
func NewOpenAIModel(cfg types.AIConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("language model API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	return &OpenAIModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: temperature,
		maxRetries:  cfg.MaxRetries,
	}, nil
}

// Generate returns the model's response to prompt, retrying transient API
// failures with exponential backoff (R1.2).
func (m *OpenAIModel) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	messages := []openai.ChatCompletionMessage{}
	if systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	return callWithRetry(ctx, m.maxRetries, func() (string, error) {
		resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       m.model,
			Messages:    messages,
			Temperature: m.temperature,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return "", fmt.Errorf("empty response from model")
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// GenerateStructured asks the model for JSON and decodes it into out (R1.3).
func (m *OpenAIModel) GenerateStructured(ctx context.Context, prompt string, out any) error {
	text, err := m.Generate(ctx, prompt+structuredSuffix, "")
	if err != nil {
		return err
	}
	return decodeStructured(text, out)
}
