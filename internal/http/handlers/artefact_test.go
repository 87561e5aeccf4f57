package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/http/response"
	"github.com/yungbote/meetingdesk-backend/internal/services"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

func artefactRouter(svc services.TranscriptionService) *gin.Engine {
	h := NewArtefactHandler(svc)
	r := gin.New()
	r.POST("/transcriptions", h.CreateTranscription)
	r.GET("/artefacts/:id/transcription", h.GetTranscription)
	r.PUT("/artefacts/:id/transcription", h.SaveTranscription)
	r.GET("/artefacts/:id/download", h.Download)
	r.POST("/artefacts/:id/summary", h.Summarize)
	return r
}

func decodeEnvelope(t *testing.T, body []byte) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, body)
	}
	return env
}

func sampleData() *services.TranscriptionData {
	return &services.TranscriptionData{
		ID:      uuid.New(),
		Type:    types.ArtefactTypeTranscription,
		Version: 1,
		Status:  types.ArtefactStatusDone,
		Payload: json.RawMessage(`{"provider":"assemblyai","status":"completed"}`),
		Result: transcript.Result{Segments: []transcript.Segment{
			{ID: "s1", Start: 0, End: 1.25, Duration: 1.25, Speaker: "Speaker 1", Text: "hello"},
		}},
		Summary: "greeting",
	}
}

func TestCreateTranscriptionStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		status string
		want   int
	}{
		{"still running", types.ArtefactStatusQueued, http.StatusAccepted},
		{"finished", types.ArtefactStatusDone, http.StatusOK},
		{"failed", types.ArtefactStatusError, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeTranscriptions{created: &types.Artefact{ID: uuid.New(), Status: tc.status}}
			w := doRequest(artefactRouter(svc), http.MethodPost, "/transcriptions", `{"asset_id":"`+uuid.NewString()+`"}`, "application/json")
			if w.Code != tc.want {
				t.Fatalf("status: want=%d got=%d body=%s", tc.want, w.Code, w.Body)
			}
		})
	}
}

func TestArtefactHandlerErrors(t *testing.T) {
	data := sampleData()
	svc := &fakeTranscriptions{data: data}
	r := artefactRouter(svc)

	w := doRequest(r, http.MethodGet, "/artefacts/not-a-uuid/transcription", "", "")
	if env := decodeEnvelope(t, w.Body.Bytes()); w.Code != http.StatusBadRequest || env.Code != "invalid_id" {
		t.Fatalf("bad id: got %d %+v", w.Code, env)
	}

	w = doRequest(r, http.MethodGet, "/artefacts/"+uuid.NewString()+"/transcription", "", "")
	if env := decodeEnvelope(t, w.Body.Bytes()); w.Code != http.StatusNotFound || env.Code != "not_found" {
		t.Fatalf("missing: got %d %+v", w.Code, env)
	}

	w = doRequest(r, http.MethodPut, "/artefacts/"+data.ID.String()+"/transcription",
		`{"result":{"segments":[{"id":"a","start":2,"end":1}]}}`, "application/json")
	if env := decodeEnvelope(t, w.Body.Bytes()); w.Code != http.StatusBadRequest || env.Code != "invalid_transcription" {
		t.Fatalf("invalid save: got %d %+v", w.Code, env)
	}

	svc.err = errors.New("pq: connection reset by peer")
	w = doRequest(r, http.MethodPost, "/artefacts/"+data.ID.String()+"/summary", "", "")
	env := decodeEnvelope(t, w.Body.Bytes())
	if w.Code != http.StatusInternalServerError || strings.Contains(env.Error, "pq:") {
		t.Fatalf("internal error should be hidden: got %d %+v", w.Code, env)
	}
}

func TestSaveTranscriptionBindsPathID(t *testing.T) {
	data := sampleData()
	svc := &fakeTranscriptions{data: data}
	w := doRequest(artefactRouter(svc), http.MethodPut, "/artefacts/"+data.ID.String()+"/transcription",
		`{"result":{"segments":[{"id":"n1","start":0,"end":2,"duration":2,"text":"hi"}]},"summary":"new"}`, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body)
	}
	if svc.saved == nil || svc.saved.ArtefactID != data.ID {
		t.Fatalf("saved input: %+v", svc.saved)
	}
	if svc.saved.Summary == nil || *svc.saved.Summary != "new" || len(svc.saved.Result.Segments) != 1 {
		t.Fatalf("saved payload: %+v", svc.saved)
	}
}

func TestDownloadSetsAttachmentHeader(t *testing.T) {
	data := sampleData()
	r := artefactRouter(&fakeTranscriptions{data: data})

	w := doRequest(r, http.MethodGet, "/artefacts/"+data.ID.String()+"/download", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", w.Code, w.Body)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="call-transcription-v1-result.json"` {
		t.Fatalf("Content-Disposition: got %q", got)
	}
	var res transcript.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || len(res.Segments) != 1 {
		t.Fatalf("result body: %v %s", err, w.Body)
	}

	w = doRequest(r, http.MethodGet, "/artefacts/"+data.ID.String()+"/download?part=payload", "", "")
	if !strings.Contains(w.Body.String(), `"provider": "assemblyai"`) {
		t.Fatalf("payload body should be indented provider output, got %s", w.Body)
	}

	w = doRequest(r, http.MethodGet, "/artefacts/"+data.ID.String()+"/download?part=audio", "", "")
	if env := decodeEnvelope(t, w.Body.Bytes()); w.Code != http.StatusBadRequest || env.Code != "invalid_part" {
		t.Fatalf("bad part: got %d %+v", w.Code, env)
	}
}
