package services

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	"github.com/yungbote/meetingdesk-backend/internal/data/repos/testutil"
	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/assemblyai"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/realtime/bus"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

func wantStatus(t *testing.T, err error, status int, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error %d/%s, got nil", status, code)
	}
	gotStatus, gotCode := apierr.StatusOf(err)
	if gotStatus != status || gotCode != code {
		t.Fatalf("error: want=%d/%s got=%d/%s (%v)", status, code, gotStatus, gotCode, err)
	}
}

func TestCreateTranscriptionCompletes(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "weekly sync")
	a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	p := &fakeProvider{name: "assemblyai", jobID: "job-1", waitPayload: completedPayload("job-1")}
	svc := f.transcriptions(t, nil, p)

	art, err := svc.CreateTranscription(f.dbc, CreateTranscriptionInput{AssetID: a.ID})
	if err != nil {
		t.Fatalf("CreateTranscription: %v", err)
	}
	if art.Status != types.ArtefactStatusDone || art.Version != 1 {
		t.Fatalf("artefact: want=done/v1 got=%s/v%d", art.Status, art.Version)
	}
	if art.ProviderJobID != "job-1" || art.Provider != "assemblyai" || art.Language != "en" {
		t.Fatalf("provider fields: got job=%q provider=%q lang=%q", art.ProviderJobID, art.Provider, art.Language)
	}
	if art.CompletedAt == nil {
		t.Fatalf("expected completed_at")
	}
	if len(art.Payload) == 0 {
		t.Fatalf("expected stored payload")
	}
	res, err := art.DecodeResult()
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if !res.Empty() {
		t.Fatalf("result should stay empty until built or saved, got %d segments", len(res.Segments))
	}
	if got, want := f.events.statuses(), []string{"queued", "processing", "done"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events: want=%v got=%v", want, got)
	}
	if len(p.submitted) != 1 || p.submitted[0] != a.StorageKey {
		t.Fatalf("submitted: got %v", p.submitted)
	}
}

func TestCreateTranscriptionRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "board")
	audio := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	doc := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindDocument)
	svc := f.transcriptions(t, nil, &fakeProvider{name: "assemblyai", jobID: "job"})

	cases := []struct {
		name   string
		in     CreateTranscriptionInput
		status int
		code   string
	}{
		{"missing asset id", CreateTranscriptionInput{}, http.StatusBadRequest, "invalid_asset_id"},
		{"unknown asset", CreateTranscriptionInput{AssetID: uuid.New()}, http.StatusNotFound, "not_found"},
		{"document asset", CreateTranscriptionInput{AssetID: doc.ID}, http.StatusBadRequest, "asset_not_transcribable"},
		{"unknown provider", CreateTranscriptionInput{AssetID: audio.ID, Provider: "whisper"}, http.StatusBadRequest, "unknown_provider"},
		{"unknown type", CreateTranscriptionInput{AssetID: audio.ID, Type: "translation"}, http.StatusBadRequest, "invalid_type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTranscription(f.dbc, tc.in)
			wantStatus(t, err, tc.status, tc.code)
		})
	}
	arts, err := f.artefactRepo.GetByAssetID(f.dbc, audio.ID)
	if err != nil {
		t.Fatalf("GetByAssetID: %v", err)
	}
	if len(arts) != 0 {
		t.Fatalf("rejected requests must not create artefacts, got %d", len(arts))
	}
}

func TestCreateTranscriptionTimeoutLeavesJobForRefresh(t *testing.T) {
	cases := []struct {
		name    string
		waitErr error
		code    string
		status  int
	}{
		{"wait budget spent", &assemblyai.TimeoutError{JobID: "job-slow", MaxWait: 300 * time.Second}, "transcription_timeout", http.StatusGatewayTimeout},
		{"caller went away", context.Canceled, "transcription_canceled", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			m := testutil.SeedMeeting(t, f.ctx, f.tx, "standup")
			a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
			p := &fakeProvider{name: "assemblyai", jobID: "job-slow", waitErr: tc.waitErr}
			svc := f.transcriptions(t, nil, p)

			_, err := svc.CreateTranscription(f.dbc, CreateTranscriptionInput{AssetID: a.ID})
			wantStatus(t, err, tc.status, tc.code)

			pending, err := f.artefactRepo.ListByStatus(f.dbc, []string{types.ArtefactStatusQueued, types.ArtefactStatusProcessing}, 0)
			if err != nil || len(pending) != 1 {
				t.Fatalf("pending artefacts: n=%d err=%v", len(pending), err)
			}
			got := pending[0]
			if got.Status != types.ArtefactStatusProcessing || got.ProviderJobID != "job-slow" || got.Error != "" {
				t.Fatalf("after timeout: status=%s job=%q error=%q", got.Status, got.ProviderJobID, got.Error)
			}
			if got, want := f.events.statuses(), []string{"queued", "processing"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("events: want=%v got=%v", want, got)
			}

			p.pollPayload, p.pollDone = completedPayload("job-slow"), true
			done, err := svc.RefreshTranscription(f.dbc, got.ID)
			if err != nil {
				t.Fatalf("RefreshTranscription: %v", err)
			}
			if done.Status != types.ArtefactStatusDone || len(done.Payload) == 0 || done.Version != got.Version {
				t.Fatalf("after refresh: status=%s payload=%d v%d", done.Status, len(done.Payload), done.Version)
			}
			if n := len(p.submitted); n != 1 {
				t.Fatalf("provider jobs submitted: want=1 got=%d", n)
			}
		})
	}
}

func TestCreateTranscriptionProviderFailures(t *testing.T) {
	failed := &transcript.Payload{Provider: "assemblyai", JobID: "job-bad", Status: transcript.JobStatusError, Error: "audio too short"}
	cases := []struct {
		name       string
		provider   *fakeProvider
		status     int
		code       string
		errContain string
		hasPayload bool
	}{
		{
			name:       "start failure",
			provider:   &fakeProvider{name: "assemblyai", submitErr: &assemblyai.StartError{Err: errors.New("http 401")}},
			status:     http.StatusBadGateway,
			code:       "provider_start_failed",
			errContain: "start transcription job",
		},
		{
			name:       "upload failure",
			provider:   &fakeProvider{name: "assemblyai", submitErr: &assemblyai.UploadError{Err: errors.New("http 500")}},
			status:     http.StatusBadGateway,
			code:       "provider_upload_failed",
			errContain: "upload audio",
		},
		{
			name:       "job reported error",
			provider:   &fakeProvider{name: "assemblyai", jobID: "job-bad", waitPayload: failed},
			status:     http.StatusBadGateway,
			code:       "provider_job_failed",
			errContain: "audio too short",
			hasPayload: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			m := testutil.SeedMeeting(t, f.ctx, f.tx, "retro")
			a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindVideo)
			svc := f.transcriptions(t, nil, tc.provider)

			_, err := svc.CreateTranscription(f.dbc, CreateTranscriptionInput{AssetID: a.ID})
			wantStatus(t, err, tc.status, tc.code)

			arts, err := f.artefactRepo.GetByAssetID(f.dbc, a.ID)
			if err != nil || len(arts) != 1 {
				t.Fatalf("GetByAssetID: n=%d err=%v", len(arts), err)
			}
			if arts[0].Status != types.ArtefactStatusError || !strings.Contains(arts[0].Error, tc.errContain) {
				t.Fatalf("artefact: got status=%s error=%q", arts[0].Status, arts[0].Error)
			}
			if (len(arts[0].Payload) > 0) != tc.hasPayload {
				t.Fatalf("payload stored=%v want=%v", len(arts[0].Payload) > 0, tc.hasPayload)
			}
		})
	}
}

func TestRetryTranscriptionCreatesNextVersion(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "planning")
	a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	p := &fakeProvider{name: "assemblyai", submitErr: &assemblyai.StartError{Err: errors.New("quota")}}
	svc := f.transcriptions(t, nil, p)

	if _, err := svc.CreateTranscription(f.dbc, CreateTranscriptionInput{AssetID: a.ID, Language: "de"}); err == nil {
		t.Fatalf("expected first attempt to fail")
	}
	arts, _ := f.artefactRepo.GetByAssetID(f.dbc, a.ID)
	if len(arts) != 1 {
		t.Fatalf("want one artefact got %d", len(arts))
	}
	failed := arts[0]

	p.submitErr = nil
	p.jobID = "job-2"
	p.waitPayload = completedPayload("job-2")
	retried, err := svc.RetryTranscription(f.dbc, failed.ID)
	if err != nil {
		t.Fatalf("RetryTranscription: %v", err)
	}
	if retried.ID == failed.ID || retried.Version != failed.Version+1 {
		t.Fatalf("retry: want new row at v%d, got id=%s v%d", failed.Version+1, retried.ID, retried.Version)
	}
	if retried.Status != types.ArtefactStatusDone || retried.Language != "de" {
		t.Fatalf("retry row: got status=%s lang=%s", retried.Status, retried.Language)
	}

	old, err := f.artefactRepo.GetByID(f.dbc, failed.ID)
	if err != nil || old == nil {
		t.Fatalf("reload original: %v", err)
	}
	if old.Status != types.ArtefactStatusError || old.Version != failed.Version || old.Error != failed.Error {
		t.Fatalf("original row changed: status=%s v%d error=%q", old.Status, old.Version, old.Error)
	}

	_, err = svc.RetryTranscription(f.dbc, retried.ID)
	wantStatus(t, err, http.StatusConflict, "artefact_not_failed")
}

func TestRefreshTranscriptionRecordsFinishedJob(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "1:1")
	a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	orphan := testutil.SeedArtefact(t, f.ctx, f.tx, a.ID, 1, types.ArtefactStatusProcessing)
	if err := f.artefactRepo.UpdateFields(f.dbc, orphan.ID, map[string]interface{}{"provider_job_id": "job-orphan"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	p := &fakeProvider{name: "assemblyai", pollPayload: &transcript.Payload{Status: transcript.JobStatusProcessing}}
	svc := f.transcriptions(t, nil, p)

	still, err := svc.RefreshTranscription(f.dbc, orphan.ID)
	if err != nil {
		t.Fatalf("RefreshTranscription pending: %v", err)
	}
	if still.Status != types.ArtefactStatusProcessing {
		t.Fatalf("pending: want=processing got=%s", still.Status)
	}

	p.pollPayload, p.pollDone = completedPayload("job-orphan"), true
	done, err := svc.RefreshTranscription(f.dbc, orphan.ID)
	if err != nil {
		t.Fatalf("RefreshTranscription done: %v", err)
	}
	if done.Status != types.ArtefactStatusDone || done.Version != 1 || len(done.Payload) == 0 {
		t.Fatalf("done: got status=%s v%d payload=%d", done.Status, done.Version, len(done.Payload))
	}

	noJob := testutil.SeedArtefact(t, f.ctx, f.tx, a.ID, 2, types.ArtefactStatusQueued)
	_, err = svc.RefreshTranscription(f.dbc, noJob.ID)
	wantStatus(t, err, http.StatusConflict, "no_provider_job")
}

func TestRefreshTranscriptionFailsAbandonedSubmit(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "crashed")
	a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	stuck := testutil.SeedArtefact(t, f.ctx, f.tx, a.ID, 1, types.ArtefactStatusQueued)
	p := &fakeProvider{name: "assemblyai", jobID: "job-new", waitPayload: completedPayload("job-new")}
	svc := f.transcriptions(t, nil, p)
	svc.(*transcriptionService).now = func() time.Time { return stuck.CreatedAt.Add(staleSubmitAfter + time.Minute) }

	failed, err := svc.RefreshTranscription(f.dbc, stuck.ID)
	if err != nil {
		t.Fatalf("RefreshTranscription: %v", err)
	}
	if failed.Status != types.ArtefactStatusError || !strings.Contains(failed.Error, "never started") {
		t.Fatalf("abandoned row: status=%s error=%q", failed.Status, failed.Error)
	}

	retried, err := svc.RetryTranscription(f.dbc, stuck.ID)
	if err != nil {
		t.Fatalf("RetryTranscription: %v", err)
	}
	if retried.Version != 2 || retried.Status != types.ArtefactStatusDone {
		t.Fatalf("retry: v%d status=%s", retried.Version, retried.Status)
	}
}

func TestDrainInterruptsBackgroundRuns(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	meetingRepo := repos.NewMeetingRepo(db, log)
	artefactRepo := repos.NewArtefactRepo(db, log)
	m := testutil.SeedMeeting(t, ctx, db, "background")
	t.Cleanup(func() { _ = meetingRepo.FullDeleteByID(dbc, m.ID) })
	a := testutil.SeedAsset(t, ctx, db, m.ID, types.AssetKindAudio)

	p := &fakeProvider{name: "assemblyai", jobID: "job-bg", waiting: make(chan struct{})}
	svc := NewTranscriptionService(db, log, meetingRepo, repos.NewAssetRepo(db, log), artefactRepo,
		[]TranscriptionProvider{p}, bus.NewMemoryBus(), nil, TranscriptionConfig{Background: true})

	created, err := svc.CreateTranscription(dbc, CreateTranscriptionInput{AssetID: a.ID})
	if err != nil {
		t.Fatalf("CreateTranscription: %v", err)
	}
	id := created.ID
	select {
	case <-p.waiting:
	case <-time.After(5 * time.Second):
		t.Fatalf("background run never reached the provider wait")
	}

	drained := make(chan struct{})
	go func() {
		svc.Drain()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatalf("Drain blocked on a waiting run")
	}

	got, err := artefactRepo.GetByID(dbc, id)
	if err != nil || got == nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.ArtefactStatusProcessing || got.ProviderJobID != "job-bg" {
		t.Fatalf("after drain: status=%s job=%q", got.Status, got.ProviderJobID)
	}
}

func TestSaveAndGetTranscriptionRoundTrip(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "design review")
	a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	svc := f.transcriptions(t, nil, &fakeProvider{name: "assemblyai", jobID: "job-1", waitPayload: completedPayload("job-1")})
	art, err := svc.CreateTranscription(f.dbc, CreateTranscriptionInput{AssetID: a.ID})
	if err != nil {
		t.Fatalf("CreateTranscription: %v", err)
	}

	summary := "  decided to ship  "
	submitted := []transcript.Segment{
		{ID: "s1", Start: 0.1234, End: 1.98765, Duration: 1.86425, Speaker: " Speaker 2 ", Text: "hello"},
		{ID: "s2", Start: 1.98765, End: 2.25, Duration: 0.26235, Speaker: "Speaker 1", Text: "hi"},
	}
	saved, err := svc.SaveTranscription(f.dbc, SaveTranscriptionInput{
		ArtefactID: art.ID,
		Result:     transcript.Result{Segments: submitted},
		Summary:    &summary,
	})
	if err != nil {
		t.Fatalf("SaveTranscription: %v", err)
	}
	if saved.Result.Metadata.Duration != 2.25 || saved.Result.Metadata.SpeakerCount != 2 {
		t.Fatalf("metadata: got %+v", saved.Result.Metadata)
	}
	if saved.Summary != "decided to ship" || saved.Version != art.Version {
		t.Fatalf("save: summary=%q version=%d", saved.Summary, saved.Version)
	}

	got, err := svc.GetTranscriptionData(f.dbc, art.ID)
	if err != nil {
		t.Fatalf("GetTranscriptionData: %v", err)
	}
	if !reflect.DeepEqual(got.Result.Segments, submitted) {
		t.Fatalf("round trip: want=%+v got=%+v", submitted, got.Result.Segments)
	}
	if len(got.Payload) == 0 {
		t.Fatalf("payload should be returned alongside the result")
	}

	// Last write wins; the version does not move.
	_, err = svc.SaveTranscription(f.dbc, SaveTranscriptionInput{
		ArtefactID: art.ID,
		Result:     transcript.Result{Segments: []transcript.Segment{{ID: "only", Start: 0, End: 1, Duration: 1, Speaker: "Speaker 1", Text: "rewritten"}}},
	})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, _ = svc.GetTranscriptionData(f.dbc, art.ID)
	if len(got.Result.Segments) != 1 || got.Result.Segments[0].Text != "rewritten" || got.Version != art.Version {
		t.Fatalf("overwrite: got %+v v%d", got.Result.Segments, got.Version)
	}
	if got.Summary != "decided to ship" {
		t.Fatalf("summary should be kept when not sent, got %q", got.Summary)
	}
}

func TestSaveTranscriptionRejectsInvalid(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "x")
	a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	done := testutil.SeedArtefact(t, f.ctx, f.tx, a.ID, 1, types.ArtefactStatusDone)
	queued := testutil.SeedArtefact(t, f.ctx, f.tx, a.ID, 2, types.ArtefactStatusQueued)
	svc := f.transcriptions(t, nil)

	for _, bad := range []transcript.Result{
		{Segments: []transcript.Segment{{Start: 5, End: 1, Text: "backwards"}}},
		{Segments: []transcript.Segment{{Start: 0, End: 1.5, Duration: 99, Text: "stale duration"}}},
	} {
		_, err := svc.SaveTranscription(f.dbc, SaveTranscriptionInput{ArtefactID: done.ID, Result: bad})
		wantStatus(t, err, http.StatusBadRequest, "invalid_transcription")
	}

	_, err := svc.SaveTranscription(f.dbc, SaveTranscriptionInput{ArtefactID: queued.ID})
	wantStatus(t, err, http.StatusConflict, "artefact_not_ready")

	_, err = svc.SaveTranscription(f.dbc, SaveTranscriptionInput{ArtefactID: uuid.New()})
	wantStatus(t, err, http.StatusNotFound, "not_found")
}

func TestBuildSegmentsAndSummarize(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "all hands")
	a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	llm := &fakeLLM{out: "  Greetings were exchanged.  "}
	svc := f.transcriptions(t, llm, &fakeProvider{name: "assemblyai", jobID: "job-1", waitPayload: completedPayload("job-1")})
	art, err := svc.CreateTranscription(f.dbc, CreateTranscriptionInput{AssetID: a.ID})
	if err != nil {
		t.Fatalf("CreateTranscription: %v", err)
	}

	res, err := svc.BuildSegments(f.dbc, art.ID)
	if err != nil {
		t.Fatalf("BuildSegments: %v", err)
	}
	if len(res.Segments) != 2 || res.Segments[0].Speaker != "Speaker 1" || res.Segments[1].Speaker != "Speaker 2" {
		t.Fatalf("segments: got %+v", res.Segments)
	}
	if res.Segments[1].Start != 1.2 || res.Segments[1].End != 2.3 {
		t.Fatalf("timing in seconds: got %v-%v", res.Segments[1].Start, res.Segments[1].End)
	}

	summary, err := svc.SummarizeTranscription(f.dbc, art.ID)
	if err != nil {
		t.Fatalf("SummarizeTranscription: %v", err)
	}
	if summary != "Greetings were exchanged." {
		t.Fatalf("summary: got %q", summary)
	}
	if !strings.Contains(llm.input, "Speaker 2: general kenobi") {
		t.Fatalf("llm input: got %q", llm.input)
	}
	data, _ := svc.GetTranscriptionData(f.dbc, art.ID)
	if data.Summary != summary {
		t.Fatalf("stored summary: got %q", data.Summary)
	}

	queued := testutil.SeedArtefact(t, f.ctx, f.tx, a.ID, 2, types.ArtefactStatusQueued)
	_, err = svc.BuildSegments(f.dbc, queued.ID)
	wantStatus(t, err, http.StatusConflict, "no_payload")

	_, err = f.transcriptions(t, nil).SummarizeTranscription(f.dbc, art.ID)
	wantStatus(t, err, http.StatusServiceUnavailable, "summary_unavailable")
}

func TestArtefactListingExportAndDelete(t *testing.T) {
	f := newFixture(t)
	m := testutil.SeedMeeting(t, f.ctx, f.tx, "kickoff")
	a := testutil.SeedAsset(t, f.ctx, f.tx, m.ID, types.AssetKindAudio)
	v1 := testutil.SeedArtefact(t, f.ctx, f.tx, a.ID, 1, types.ArtefactStatusError)
	v2 := testutil.SeedArtefact(t, f.ctx, f.tx, a.ID, 2, types.ArtefactStatusDone)
	svc := f.transcriptions(t, nil)

	list, err := svc.GetArtefactsByMeetingID(f.dbc, m.ID)
	if err != nil {
		t.Fatalf("GetArtefactsByMeetingID: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list: want=2 got=%d", len(list))
	}
	_, err = svc.GetArtefactsByMeetingID(f.dbc, uuid.New())
	wantStatus(t, err, http.StatusNotFound, "not_found")

	body, name, err := svc.ExportArtefact(f.dbc, v2.ID, transcript.ExportResult)
	if err != nil {
		t.Fatalf("ExportArtefact: %v", err)
	}
	if name != "recording-transcription-v2-result.json" {
		t.Fatalf("filename: got %q", name)
	}
	if !strings.Contains(string(body), `"segments": []`) {
		t.Fatalf("export body: got %s", body)
	}

	if err := svc.DeleteArtefact(f.dbc, v1.ID); err != nil {
		t.Fatalf("DeleteArtefact: %v", err)
	}
	err = svc.DeleteArtefact(f.dbc, v1.ID)
	wantStatus(t, err, http.StatusNotFound, "not_found")
	list, _ = svc.GetArtefactsByMeetingID(f.dbc, m.ID)
	if len(list) != 1 || list[0].ID != v2.ID {
		t.Fatalf("after delete: got %d artefacts", len(list))
	}
}

func TestProvidersListedByName(t *testing.T) {
	f := newFixture(t)
	svc := f.transcriptions(t, nil, &fakeProvider{name: "gcp_speech"}, &fakeProvider{name: "assemblyai"})
	for i := 0; i < 5; i++ {
		if got, want := svc.Providers(), []string{"assemblyai", "gcp_speech"}; !reflect.DeepEqual(got, want) {
			t.Fatalf("Providers: want=%v got=%v", want, got)
		}
	}
}
