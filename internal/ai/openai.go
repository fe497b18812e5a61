package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI transcribes with Whisper and summarizes with a chat model.
type OpenAI struct {
	client          *openai.Client
	transcribeModel string
	summaryModel    string
}

type OpenAIConfig struct {
	APIKey          string
	BaseURL         string // Optional: OpenAI-compatible gateway, e.g. https://gateway.example/v1
	TranscribeModel string
	SummaryModel    string
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	transcribeModel := cfg.TranscribeModel
	if transcribeModel == "" {
		transcribeModel = openai.Whisper1
	}

	summaryModel := cfg.SummaryModel
	if summaryModel == "" {
		summaryModel = openai.GPT4oMini
	}

	return &OpenAI{
		client:          openai.NewClientWithConfig(clientCfg),
		transcribeModel: transcribeModel,
		summaryModel:    summaryModel,
	}
}

func (o *OpenAI) Transcribe(ctx context.Context, audio Audio) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.transcribeModel,
		FilePath: audio.Name, // With Reader set this is only the multipart file name
		Reader:   audio.Body,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

func (o *OpenAI) Summarize(ctx context.Context, instruction, text string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai summary: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai summary: %w", ErrEmptyResponse)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("openai summary: %w", ErrEmptyResponse)
	}

	return summary, nil
}
