package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/voicememo/server/internal/ctxkeys"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/service"
	"github.com/voicememo/server/internal/validation"
)

// Multipart parts beyond the audio (boundaries, duration field) need a little room above the audio cap
const multipartOverhead = 1 << 20

// Parts larger than this are staged in temp files by the multipart reader
const multipartMemory = 8 << 20

type recordingHandler struct {
	responder
	recordingService *service.RecordingService
	maxUploadBytes   int64
}

func NewRecordingHandler(recordingService *service.RecordingService, maxUploadBytes int64, production bool) *recordingHandler {
	return &recordingHandler{
		responder:        responder{production: production},
		recordingService: recordingService,
		maxUploadBytes:   maxUploadBytes,
	}
}

type recordingResponse struct {
	ID               string                `json:"id"`
	Title            string                `json:"title"`
	Summary          string                `json:"summary"`
	Transcription    string                `json:"transcription,omitempty"`
	AudioURL         string                `json:"audioUrl"`
	AudioPlaybackURL string                `json:"audioPlaybackUrl,omitempty"`
	ContentType      string                `json:"contentType,omitempty"`
	Duration         int                   `json:"duration"`
	Status           model.RecordingStatus `json:"status"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

func toRecordingResponse(recording *model.Recording) recordingResponse {
	return recordingResponse{
		ID:               recording.ID,
		Title:            recording.Title,
		Summary:          recording.Summary,
		Transcription:    recording.Transcription,
		AudioURL:         recording.AudioURL,
		AudioPlaybackURL: recording.PlaybackURL,
		ContentType:      recording.ContentType,
		Duration:         recording.Duration,
		Status:           recording.Status,
		CreatedAt:        recording.CreatedAt,
		UpdatedAt:        recording.UpdatedAt,
	}
}

// Upload stores the audio, answers with the new recording and only then starts processing
func (h *recordingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var recording *model.Recording
	err := h.withUpload(w, r, func(in service.UploadInput) error {
		var err error
		recording, err = h.recordingService.Upload(r.Context(), user.ID, in)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	err = h.writeJSON(w, http.StatusOK, toRecordingResponse(recording))
	if err == nil {
		err = flush(w)
	}
	if err != nil {
		// The client never saw this recording; nobody will poll it
		slog.Warn("upload response not delivered", "recording_id", recording.ID, "error", err)
		h.recordingService.MarkFailed(r.Context(), recording.ID)
		return
	}

	h.recordingService.Dispatch(recording)
}

// Transcribe is the synchronous upload: the response carries the processed (or failed) recording
func (h *recordingHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var recording *model.Recording
	err := h.withUpload(w, r, func(in service.UploadInput) error {
		var err error
		recording, err = h.recordingService.UploadAndProcess(r.Context(), user.ID, in)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	_ = h.writeJSON(w, http.StatusOK, toRecordingResponse(recording))
}

func (h *recordingHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	includeTranscription, _ := strconv.ParseBool(r.URL.Query().Get("transcription"))

	recordings, err := h.recordingService.Recordings(r.Context(), user.ID, includeTranscription)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]recordingResponse, 0, len(recordings))
	for _, recording := range recordings {
		resp = append(resp, toRecordingResponse(recording))
	}

	_ = h.writeJSON(w, http.StatusOK, resp)
}

func (h *recordingHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	recording, err := h.recordingService.Recording(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	_ = h.writeJSON(w, http.StatusOK, toRecordingResponse(recording))
}

func (h *recordingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	id := r.PathValue("id")

	err := h.recordingService.Delete(r.Context(), user.ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	_ = h.writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// Retry starts a new recording from the audio of a failed one
func (h *recordingHandler) Retry(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	recording, err := h.recordingService.Retry(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	err = h.writeJSON(w, http.StatusAccepted, toRecordingResponse(recording))
	if err == nil {
		err = flush(w)
	}
	if err != nil {
		slog.Warn("retry response not delivered", "recording_id", recording.ID, "error", err)
		h.recordingService.MarkFailed(r.Context(), recording.ID)
		return
	}

	h.recordingService.Dispatch(recording)
}

// withUpload parses the multipart form, hands the audio part to fn and removes staged temp files on every path
func (h *recordingHandler) withUpload(w http.ResponseWriter, r *http.Request, fn func(service.UploadInput) error) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("%w: audio file too large: maximum size is %s", service.ErrInvalidInput, humanize.IBytes(uint64(h.maxUploadBytes)))
		}
		return fmt.Errorf("%w: failed to parse multipart form: %v", service.ErrInvalidInput, err)
	}
	defer func() {
		if r.MultipartForm == nil {
			return
		}
		removeErr := r.MultipartForm.RemoveAll()
		if removeErr != nil {
			slog.Warn("failed to remove multipart temp files", "error", removeErr)
		}
	}()

	duration, err := validation.ParseDuration(r.FormValue("duration"))
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	in := service.UploadInput{Duration: duration}

	file, header, err := r.FormFile("audio")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		return fmt.Errorf("%w: failed to read audio part: %v", service.ErrInvalidInput, err)
	}
	if err == nil {
		defer func() {
			closeErr := file.Close()
			if closeErr != nil {
				slog.Warn("failed to close uploaded file", "error", closeErr)
			}
		}()
		in.Filename = header.Filename
		in.Size = header.Size
		in.Content = file
	}

	return fn(in)
}

// flush pushes the buffered response to the client; writers without flush support are fine
func flush(w http.ResponseWriter) error {
	err := http.NewResponseController(w).Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}
