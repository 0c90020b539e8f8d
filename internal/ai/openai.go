package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIService struct {
	client *openai.Client
	model  string
}

func newOpenAIService(apiKey, baseURL, model string) *openAIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIService{client: openai.NewClientWithConfig(cfg), model: model}
}

func (s *openAIService) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices in reply")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *openAIService) ExplainWord(ctx context.Context, word, sentence string) (string, string, error) {
	content, err := s.complete(ctx, explainPrompt(word, sentence))
	if err != nil {
		return "", "", err
	}
	return splitExplain(content)
}

func (s *openAIService) TranslateText(ctx context.Context, text string) (string, error) {
	content, err := s.complete(ctx, translatePrompt(text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (s *openAIService) Probe(ctx context.Context) error {
	_, err := s.complete(ctx, probePrompt)
	return err
}
