// Package ai wraps the speech-to-text and summarization providers used by the processing pipeline.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/voicememo/server/internal/config"
)

// SummaryInstruction is sent with every transcription that is summarized.
const SummaryInstruction = "summarize what was discussed"

// ErrEmptyResponse is returned when a provider answers without any content.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// Audio is a readable audio payload plus the metadata providers need to decode it.
type Audio struct {
	Name        string // File name including extension, used for format detection
	ContentType string
	Body        io.Reader
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, instruction, text string) (string, error)
}

// New returns the transcriber and summarizer selected by TRANSCRIBE_PROVIDER.
// Summaries always go through the OpenAI-compatible chat API.
func New(cfg *config.Config) (Transcriber, Summarizer, error) {
	openAI := NewOpenAI(OpenAIConfig{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		TranscribeModel: cfg.OpenAITranscribeModel,
		SummaryModel:    cfg.OpenAISummaryModel,
	})

	switch cfg.TranscribeProvider {
	case "openai":
		return openAI, openAI, nil
	case "cloudflare":
		return NewCloudflare(CloudflareConfig{
			AccountID: cfg.CloudflareAccountID,
			APIToken:  cfg.CloudflareAPIToken,
			Model:     cfg.CloudflareWhisperModel,
		}), openAI, nil
	default:
		return nil, nil, fmt.Errorf("unknown transcribe provider %q", cfg.TranscribeProvider)
	}
}
