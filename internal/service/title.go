package service

import (
	"strings"

	"github.com/voicememo/server/internal/model"
)

const maxTitleLength = 100

// DeriveTitle returns the first sentence of a transcription, trimmed and capped at 100 characters.
// Sentences end at '.', '!' or '?'. An empty transcription yields the fallback title.
func DeriveTitle(transcription string) string {
	sentences := strings.FieldsFunc(transcription, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	for _, sentence := range sentences {
		title := strings.Join(strings.Fields(sentence), " ")
		if title == "" {
			continue
		}

		runes := []rune(title)
		if len(runes) > maxTitleLength {
			title = strings.TrimSpace(string(runes[:maxTitleLength]))
		}
		return title
	}

	return model.RecordingFallbackTitle
}
