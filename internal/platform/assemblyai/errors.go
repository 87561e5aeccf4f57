package assemblyai

import (
	"fmt"
	"time"
)

// StatusError is a non-2xx response from the provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("assemblyai http %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type UploadError struct{ Err error }

func (e *UploadError) Error() string { return "upload audio: " + e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }

type StartError struct{ Err error }

func (e *StartError) Error() string { return "start transcription job: " + e.Err.Error() }
func (e *StartError) Unwrap() error { return e.Err }

type FetchError struct {
	JobID string
	Err   error
}

func (e *FetchError) Error() string {
	if e.JobID == "" {
		return "fetch: " + e.Err.Error()
	}
	return fmt.Sprintf("fetch transcription job %s: %s", e.JobID, e.Err.Error())
}
func (e *FetchError) Unwrap() error { return e.Err }

type TimeoutError struct {
	JobID   string
	MaxWait time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transcription job %s did not finish within %s", e.JobID, e.MaxWait)
}

// JobError is returned when the provider reports status "error" for a job.
type JobError struct {
	JobID   string
	Message string
}

func (e *JobError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown provider error"
	}
	return fmt.Sprintf("transcription job %s failed: %s", e.JobID, msg)
}
