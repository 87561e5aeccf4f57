package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/services"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

// fakeTranscriptions serves one artefact from memory and records the last save.
type fakeTranscriptions struct {
	data    *services.TranscriptionData
	created *types.Artefact
	built   transcript.Result
	saved   *services.SaveTranscriptionInput
	err     error
}

func (f *fakeTranscriptions) lookup(id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if f.data == nil || f.data.ID != id {
		return apierr.NotFound("artefact")
	}
	return nil
}

func (f *fakeTranscriptions) CreateTranscription(dbc dbctx.Context, in services.CreateTranscriptionInput) (*types.Artefact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

func (f *fakeTranscriptions) RetryTranscription(dbc dbctx.Context, id uuid.UUID) (*types.Artefact, error) {
	return f.created, f.lookup(id)
}

func (f *fakeTranscriptions) RefreshTranscription(dbc dbctx.Context, id uuid.UUID) (*types.Artefact, error) {
	return f.created, f.lookup(id)
}

func (f *fakeTranscriptions) GetTranscriptionData(dbc dbctx.Context, id uuid.UUID) (*services.TranscriptionData, error) {
	if err := f.lookup(id); err != nil {
		return nil, err
	}
	return f.data, nil
}

func (f *fakeTranscriptions) SaveTranscription(dbc dbctx.Context, in services.SaveTranscriptionInput) (*services.TranscriptionData, error) {
	if err := f.lookup(in.ArtefactID); err != nil {
		return nil, err
	}
	if err := in.Result.Validate(); err != nil {
		return nil, apierr.Invalid("invalid_transcription", err)
	}
	f.saved = &in
	return f.data, nil
}

func (f *fakeTranscriptions) BuildSegments(dbc dbctx.Context, id uuid.UUID) (transcript.Result, error) {
	return f.built, f.lookup(id)
}

func (f *fakeTranscriptions) SummarizeTranscription(dbc dbctx.Context, id uuid.UUID) (string, error) {
	return "short summary", f.lookup(id)
}

func (f *fakeTranscriptions) ExportArtefact(dbc dbctx.Context, id uuid.UUID, part transcript.ExportPart) ([]byte, string, error) {
	if err := f.lookup(id); err != nil {
		return nil, "", err
	}
	return transcript.Export(part, "call-transcription-v1", f.data.Payload, f.data.Result, f.data.Summary)
}

func (f *fakeTranscriptions) DeleteArtefact(dbc dbctx.Context, id uuid.UUID) error {
	return f.lookup(id)
}

func (f *fakeTranscriptions) GetArtefactsByMeetingID(dbc dbctx.Context, meetingID uuid.UUID) ([]*types.Artefact, error) {
	return []*types.Artefact{f.created}, f.err
}

func (f *fakeTranscriptions) Providers() []string { return []string{"assemblyai"} }

func (f *fakeTranscriptions) Drain() {}

var _ services.TranscriptionService = (*fakeTranscriptions)(nil)

func doRequest(r http.Handler, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postForm(r http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	return doRequest(r, http.MethodPost, target, form.Encode(), "application/x-www-form-urlencoded")
}
