package service

import "errors"

var (
	// ErrInvalidInput means the request payload is missing or malformed. Nothing was stored.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUploadFailed means the audio could not be written to the blob store. No recording exists.
	ErrUploadFailed = errors.New("upload failed")
	// ErrStorageUnavailable means the database could not be reached or rejected the statement.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrProcessingFailed marks a background job that ended with the recording in failed.
	ErrProcessingFailed = errors.New("processing failed")
	// ErrNotRetryable is returned when a retry is requested for a recording that has not failed.
	ErrNotRetryable = errors.New("only failed recordings can be retried")
)
