package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/voicememo/server/internal/model"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name          string
		transcription string
		want          string
	}{
		{name: "first sentence", transcription: "Hello there. This is a test.", want: "Hello there"},
		{name: "exclamation", transcription: "  Big news!  We shipped.", want: "Big news"},
		{name: "question", transcription: "Did we agree? Yes.", want: "Did we agree"},
		{name: "no terminator", transcription: "just one thought", want: "just one thought"},
		{name: "leading punctuation skipped", transcription: "... Okay so the plan", want: "Okay so the plan"},
		{name: "whitespace collapsed", transcription: "Line one\ncontinues\there. Next", want: "Line one continues here"},
		{name: "empty", transcription: "", want: model.RecordingFallbackTitle},
		{name: "only punctuation", transcription: " ?!. ", want: model.RecordingFallbackTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.transcription))
		})
	}
}

func TestDeriveTitle_Truncates(t *testing.T) {
	long := strings.Repeat("ä", 150) + ". Rest"

	title := DeriveTitle(long)

	assert.Equal(t, 100, utf8.RuneCountInString(title))
	assert.True(t, utf8.ValidString(title))
}
