package validation

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// AudioConstraints defines validation rules for recording uploads
type AudioConstraints struct {
	// Container types that carry audio but are detected under a non-audio MIME type
	ExtraMimeTypes map[string]bool
	MaxSize        int64
}

// RecordingConstraints accepts anything detected as audio plus the common phone recorder containers
var RecordingConstraints = AudioConstraints{
	ExtraMimeTypes: map[string]bool{
		"video/mp4":       true, // m4a without an audio brand
		"video/webm":      true, // browser MediaRecorder
		"video/3gpp":      true, // Android voice recorder
		"video/3gpp2":     true,
		"application/ogg": true,
	},
	MaxSize: 25 << 20, // 25 MiB
}

// Audio types by extension; hosts without a mime.types file know none of these
var audioContentTypes = map[string]string{
	".3g2":  "audio/3gpp2",
	".3gp":  "audio/3gpp",
	".aac":  "audio/aac",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".amr":  "audio/amr",
	".caf":  "audio/x-caf",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".mp4":  "audio/mp4",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".weba": "audio/webm",
	".webm": "audio/webm",
}

// ContentTypeForPath maps a stored audio path or key to its content type.
func ContentTypeForPath(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if contentType, ok := audioContentTypes[ext]; ok {
		return contentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

// AudioInfo is what detection learned about an upload
type AudioInfo struct {
	ContentType string
	Extension   string // Leading dot, lower case
}

// DetectAudio sniffs the content and rejects anything that is not a supported audio container.
// The reader is rewound to the start before returning.
func DetectAudio(content io.ReadSeeker, filename string, size int64, constraints AudioConstraints) (AudioInfo, error) {
	if size <= 0 {
		return AudioInfo{}, errors.New("audio file is empty")
	}

	if constraints.MaxSize > 0 && size > constraints.MaxSize {
		return AudioInfo{}, fmt.Errorf("audio file too large: maximum size is %s", humanize.IBytes(uint64(constraints.MaxSize)))
	}

	detected, err := mimetype.DetectReader(content)
	if err != nil {
		return AudioInfo{}, fmt.Errorf("failed to read audio: %w", err)
	}

	_, err = content.Seek(0, io.SeekStart)
	if err != nil {
		return AudioInfo{}, fmt.Errorf("failed to reset file pointer: %w", err)
	}

	if !isAudio(detected, constraints) {
		return AudioInfo{}, fmt.Errorf("invalid audio type (detected: %s)", detected.String())
	}

	// Keep the client's extension when it is plausible, fall back to the detected one
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || len(ext) > 6 {
		ext = detected.Extension()
	}

	contentType, _, _ := strings.Cut(detected.String(), ";")
	return AudioInfo{
		ContentType: contentType,
		Extension:   ext,
	}, nil
}

func isAudio(detected *mimetype.MIME, constraints AudioConstraints) bool {
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") || constraints.ExtraMimeTypes[m.String()] {
			return true
		}
	}
	return false
}

// ParseDuration reads the client-reported duration in seconds. Empty means unknown (0).
func ParseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("duration must be a number of seconds")
	}

	if math.IsNaN(seconds) || seconds < 0 || seconds > 24*60*60 {
		return 0, errors.New("duration must be between 0 and 86400 seconds")
	}

	return int(seconds + 0.5), nil
}
