package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	"github.com/yungbote/meetingdesk-backend/internal/data/repos/testutil"
	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/gcp"
	"github.com/yungbote/meetingdesk-backend/internal/platform/openai"
	"github.com/yungbote/meetingdesk-backend/internal/realtime"
	"github.com/yungbote/meetingdesk-backend/internal/realtime/bus"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

type fakeProvider struct {
	name string

	jobID     string
	submitErr error

	waitPayload *transcript.Payload
	waitErr     error
	// waiting, when set, is closed once Wait starts blocking on ctx.
	waiting     chan struct{}

	pollPayload *transcript.Payload
	pollDone    bool
	pollErr     error

	mu        sync.Mutex
	submitted []string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Submit(ctx context.Context, asset *types.Asset, language string) (string, error) {
	p.mu.Lock()
	p.submitted = append(p.submitted, asset.StorageKey)
	p.mu.Unlock()
	if p.submitErr != nil {
		return "", p.submitErr
	}
	return p.jobID, nil
}

func (p *fakeProvider) Wait(ctx context.Context, jobID string) (*transcript.Payload, error) {
	if p.waiting != nil {
		close(p.waiting)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return p.waitPayload, p.waitErr
}

func (p *fakeProvider) Poll(ctx context.Context, jobID string) (*transcript.Payload, bool, error) {
	return p.pollPayload, p.pollDone, p.pollErr
}

type fakeBucket struct {
	mu      sync.Mutex
	deleted []string
	signErr error
}

func (b *fakeBucket) UploadFile(dbc dbctx.Context, key string, file io.Reader, contentType string) error {
	return nil
}

func (b *fakeBucket) DeleteFile(dbc dbctx.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBucket) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("audio")), nil
}

func (b *fakeBucket) SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://storage.test/put/" + key, b.signErr
}

func (b *fakeBucket) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if b.signErr != nil {
		return "", b.signErr
	}
	return "https://storage.test/get/" + key, nil
}

func (b *fakeBucket) GSURI(key string) string { return "gs://assets/" + key }

func (b *fakeBucket) Close() error { return nil }

func (b *fakeBucket) deletedKeys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

var _ gcp.BucketService = (*fakeBucket)(nil)

type fakeLLM struct {
	out   string
	err   error
	input string
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.input = user
	return f.out, f.err
}

func (f *fakeLLM) Model() string { return "fake-model" }

type eventLog struct {
	mu     sync.Mutex
	events []realtime.ArtefactEvent
}

func (l *eventLog) statuses() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Status)
	}
	return out
}

type fixture struct {
	ctx context.Context
	tx  *gorm.DB
	dbc dbctx.Context

	meetingRepo  repos.MeetingRepo
	assetRepo    repos.AssetRepo
	artefactRepo repos.ArtefactRepo
	employeeRepo repos.EmployeeRepo

	bucket *fakeBucket
	events *eventLog
	bus    bus.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	ctx := context.Background()

	f := &fixture{
		ctx:          ctx,
		tx:           tx,
		dbc:          dbctx.Context{Ctx: ctx, Tx: tx},
		meetingRepo:  repos.NewMeetingRepo(db, log),
		assetRepo:    repos.NewAssetRepo(db, log),
		artefactRepo: repos.NewArtefactRepo(db, log),
		employeeRepo: repos.NewEmployeeRepo(db, log),
		bucket:       &fakeBucket{},
		events:       &eventLog{},
		bus:          bus.NewMemoryBus(),
	}
	subCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	if err := f.bus.Subscribe(subCtx, func(ev realtime.ArtefactEvent) {
		f.events.mu.Lock()
		f.events.events = append(f.events.events, ev)
		f.events.mu.Unlock()
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return f
}

func (f *fixture) transcriptions(t *testing.T, llm *fakeLLM, providers ...TranscriptionProvider) TranscriptionService {
	t.Helper()
	var client openai.Client
	if llm != nil {
		client = llm
	}
	return NewTranscriptionService(nil, testutil.Logger(t), f.meetingRepo, f.assetRepo, f.artefactRepo, providers, f.bus, client, TranscriptionConfig{})
}

// completedPayload is a two-speaker job in provider milliseconds.
func completedPayload(jobID string) *transcript.Payload {
	return &transcript.Payload{
		Provider: "assemblyai",
		JobID:    jobID,
		Status:   transcript.JobStatusCompleted,
		Text:     "hello there general kenobi",
		TimeUnit: transcript.TimeUnitMillis,
		Words: []transcript.Word{
			{Text: "hello", Start: 0, End: 400, Speaker: "A"},
			{Text: "there", Start: 400, End: 900, Speaker: "A"},
			{Text: "general", Start: 1200, End: 1700, Speaker: "B"},
			{Text: "kenobi", Start: 1700, End: 2300, Speaker: "B"},
		},
	}
}
