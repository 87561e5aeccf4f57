package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/assemblyai"
)

// providerError maps a provider failure to the error the caller sees. The
// message stored on the artefact is err.Error() either way.
func providerError(err error) error {
	if err == nil {
		return nil
	}
	var (
		timeoutErr *assemblyai.TimeoutError
		uploadErr  *assemblyai.UploadError
		startErr   *assemblyai.StartError
		fetchErr   *assemblyai.FetchError
		jobErr     *assemblyai.JobError
	)
	switch {
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return apierr.Timeout("transcription_timeout", err)
	case errors.Is(err, context.Canceled):
		return apierr.Unavailable("transcription_canceled", err)
	case errors.As(err, &uploadErr):
		return apierr.Upstream("provider_upload_failed", err)
	case errors.As(err, &startErr):
		return apierr.Upstream("provider_start_failed", err)
	case errors.As(err, &fetchErr):
		return apierr.Upstream("provider_fetch_failed", err)
	case errors.As(err, &jobErr):
		return apierr.Upstream("provider_job_failed", err)
	default:
		return apierr.Upstream("provider_failed", err)
	}
}

// waitInterrupted reports whether waiting stopped while the provider job may
// still be running: the wait budget ran out or the caller went away.
func waitInterrupted(err error) bool {
	var timeoutErr *assemblyai.TimeoutError
	return errors.As(err, &timeoutErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

func versionError(what string, err error) error {
	if errors.Is(err, repos.ErrVersionConflict) {
		return apierr.Conflict("version_conflict", fmt.Errorf("%s was modified concurrently: %w", what, err))
	}
	return err
}

func requireID(field string, id uuid.UUID) error {
	if id == uuid.Nil {
		return apierr.Invalid("invalid_"+field, fmt.Errorf("%s is required", field))
	}
	return nil
}
