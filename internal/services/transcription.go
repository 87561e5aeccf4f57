package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/observability"
	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/platform/openai"
	"github.com/yungbote/meetingdesk-backend/internal/realtime"
	"github.com/yungbote/meetingdesk-backend/internal/realtime/bus"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

const (
	DefaultTranscriptionLanguage = "en"

	// staleSubmitAfter is how long a queued artefact may sit without a
	// provider job before refresh gives up on it.
	staleSubmitAfter = 15 * time.Minute

	maxSummaryInputRunes = 48000
	summarySystemPrompt  = "You summarise meeting transcripts for the people who attended. " +
		"Write a short overview paragraph, then bullet points for decisions and action items with owners when they are named. " +
		"Use only what the transcript says."
)

type TranscriptionService interface {
	CreateTranscription(dbc dbctx.Context, in CreateTranscriptionInput) (*types.Artefact, error)
	RetryTranscription(dbc dbctx.Context, artefactID uuid.UUID) (*types.Artefact, error)
	RefreshTranscription(dbc dbctx.Context, artefactID uuid.UUID) (*types.Artefact, error)

	GetTranscriptionData(dbc dbctx.Context, artefactID uuid.UUID) (*TranscriptionData, error)
	SaveTranscription(dbc dbctx.Context, in SaveTranscriptionInput) (*TranscriptionData, error)
	BuildSegments(dbc dbctx.Context, artefactID uuid.UUID) (transcript.Result, error)
	SummarizeTranscription(dbc dbctx.Context, artefactID uuid.UUID) (string, error)
	ExportArtefact(dbc dbctx.Context, artefactID uuid.UUID, part transcript.ExportPart) ([]byte, string, error)

	DeleteArtefact(dbc dbctx.Context, artefactID uuid.UUID) error
	GetArtefactsByMeetingID(dbc dbctx.Context, meetingID uuid.UUID) ([]*types.Artefact, error)

	Providers() []string
	// Drain interrupts background runs and waits for them to return. Their
	// artefacts stay processing with the provider job id so a later refresh
	// can record the outcome.
	Drain()
}

type CreateTranscriptionInput struct {
	AssetID  uuid.UUID `json:"asset_id"`
	Language string    `json:"language,omitempty"`
	Provider string    `json:"provider,omitempty"`
	Type     string    `json:"type,omitempty"`
}

type SaveTranscriptionInput struct {
	ArtefactID uuid.UUID         `json:"-"`
	Result     transcript.Result `json:"result"`
	Summary    *string           `json:"summary,omitempty"`
}

// TranscriptionData is the editor view of one artefact.
type TranscriptionData struct {
	ID          uuid.UUID         `json:"id"`
	AssetID     uuid.UUID         `json:"asset_id"`
	Type        string            `json:"type"`
	Version     int               `json:"version"`
	Status      string            `json:"status"`
	Provider    string            `json:"provider"`
	Language    string            `json:"language,omitempty"`
	Error       string            `json:"error,omitempty"`
	Payload     json.RawMessage   `json:"payload,omitempty"`
	Result      transcript.Result `json:"result"`
	Summary     string            `json:"summary"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type TranscriptionConfig struct {
	DefaultProvider string
	DefaultLanguage string
	// Background returns the queued artefact immediately and finishes the
	// provider round trip on a context that only Drain cancels.
	Background bool
}

type transcriptionService struct {
	db           *gorm.DB
	log          *logger.Logger
	meetingRepo  repos.MeetingRepo
	assetRepo    repos.AssetRepo
	artefactRepo repos.ArtefactRepo
	providers    map[string]TranscriptionProvider
	events       bus.Bus
	llm          openai.Client
	cfg          TranscriptionConfig
	now          func() time.Time

	running sync.WaitGroup
	bgCtx   context.Context
	bgStop  context.CancelFunc
}

func NewTranscriptionService(
	db *gorm.DB,
	log *logger.Logger,
	meetingRepo repos.MeetingRepo,
	assetRepo repos.AssetRepo,
	artefactRepo repos.ArtefactRepo,
	providers []TranscriptionProvider,
	events bus.Bus,
	llm openai.Client,
	cfg TranscriptionConfig,
) TranscriptionService {
	byName := make(map[string]TranscriptionProvider, len(providers))
	for _, p := range providers {
		if p != nil {
			byName[p.Name()] = p
		}
	}
	if strings.TrimSpace(cfg.DefaultLanguage) == "" {
		cfg.DefaultLanguage = DefaultTranscriptionLanguage
	}
	if cfg.DefaultProvider == "" && len(providers) > 0 && providers[0] != nil {
		cfg.DefaultProvider = providers[0].Name()
	}
	bgCtx, bgStop := context.WithCancel(context.Background())
	return &transcriptionService{
		db:           db,
		log:          log.With("service", "TranscriptionService"),
		meetingRepo:  meetingRepo,
		assetRepo:    assetRepo,
		artefactRepo: artefactRepo,
		providers:    byName,
		events:       events,
		llm:          llm,
		cfg:          cfg,
		now:          time.Now,
		bgCtx:        bgCtx,
		bgStop:       bgStop,
	}
}

func (s *transcriptionService) Providers() []string {
	out := make([]string, 0, len(s.providers))
	for name := range s.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *transcriptionService) Drain() {
	s.bgStop()
	s.running.Wait()
}

func (s *transcriptionService) CreateTranscription(dbc dbctx.Context, in CreateTranscriptionInput) (*types.Artefact, error) {
	if err := requireID("asset_id", in.AssetID); err != nil {
		return nil, err
	}
	asset, err := s.assetRepo.GetByID(dbc, in.AssetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, apierr.NotFound("asset")
	}
	if !asset.Transcribable() {
		return nil, apierr.Invalid("asset_not_transcribable", fmt.Errorf("asset kind %q cannot be transcribed", asset.Kind))
	}
	provider, err := s.provider(in.Provider)
	if err != nil {
		return nil, err
	}
	artefactType, err := normalizeArtefactType(in.Type)
	if err != nil {
		return nil, err
	}
	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = s.cfg.DefaultLanguage
	}
	return s.start(dbc, asset, provider, artefactType, lang)
}

func (s *transcriptionService) RetryTranscription(dbc dbctx.Context, artefactID uuid.UUID) (*types.Artefact, error) {
	old, err := s.getArtefact(dbc, artefactID)
	if err != nil {
		return nil, err
	}
	if old.Status != types.ArtefactStatusError {
		return nil, apierr.Conflict("artefact_not_failed", fmt.Errorf("only failed artefacts can be retried (status %q)", old.Status))
	}
	asset, err := s.assetRepo.GetByID(dbc, old.AssetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, apierr.NotFound("asset")
	}
	provider, err := s.provider(old.Provider)
	if err != nil {
		return nil, err
	}
	return s.start(dbc, asset, provider, old.Type, old.Language)
}

// RefreshTranscription asks the provider once about a job whose waiting
// request went away, and records the outcome if the job has finished.
func (s *transcriptionService) RefreshTranscription(dbc dbctx.Context, artefactID uuid.UUID) (*types.Artefact, error) {
	art, err := s.getArtefact(dbc, artefactID)
	if err != nil {
		return nil, err
	}
	if art.Terminal() {
		return art, nil
	}
	asset, err := s.assetRepo.GetByID(dbc, art.AssetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, apierr.NotFound("asset")
	}
	if art.ProviderJobID == "" {
		// A queued row that never got a job lost its submitting request.
		// Once it is old enough, fail it so it can be retried.
		if art.Status == types.ArtefactStatusQueued && s.now().Sub(art.CreatedAt) >= staleSubmitAfter {
			s.fail(dbc, asset, art, art.Provider, errors.New("provider job was never started"), art.CreatedAt)
			return s.artefactRepo.GetByID(dbc, art.ID)
		}
		return nil, apierr.Conflict("no_provider_job", errors.New("artefact has no provider job to refresh"))
	}
	provider, err := s.provider(art.Provider)
	if err != nil {
		return nil, err
	}
	payload, done, err := provider.Poll(dbc.Ctx, art.ProviderJobID)
	if err != nil {
		return nil, providerError(err)
	}
	if !done {
		if art.Status == types.ArtefactStatusQueued {
			if err := s.setStatus(dbc, asset, art, types.ArtefactStatusProcessing, nil); err != nil {
				return nil, err
			}
		}
		return art, nil
	}
	return s.complete(dbc, asset, art, provider.Name(), payload, art.CreatedAt)
}

func (s *transcriptionService) start(dbc dbctx.Context, asset *types.Asset, provider TranscriptionProvider, artefactType, lang string) (*types.Artefact, error) {
	created, err := s.artefactRepo.CreateNextVersion(dbc, &types.Artefact{
		AssetID:  asset.ID,
		Type:     artefactType,
		Provider: provider.Name(),
		Language: lang,
		Status:   types.ArtefactStatusQueued,
	})
	if err != nil {
		return nil, fmt.Errorf("create artefact: %w", err)
	}
	s.transitioned(dbc.Ctx, asset, created)

	if s.cfg.Background {
		ctx, cancel := context.WithCancel(context.WithoutCancel(dbc.Ctx))
		stop := context.AfterFunc(s.bgCtx, cancel)
		bg := dbctx.Context{Ctx: ctx}
		s.running.Add(1)
		go func() {
			defer s.running.Done()
			defer cancel()
			defer stop()
			if _, err := s.run(bg, asset, created, provider); err != nil {
				s.log.Warn("background transcription failed", "artefact_id", created.ID, "error", err)
			}
		}()
		return created, nil
	}
	return s.run(dbc, asset, created, provider)
}

func (s *transcriptionService) run(dbc dbctx.Context, asset *types.Asset, art *types.Artefact, provider TranscriptionProvider) (out *types.Artefact, err error) {
	ctx, span := observability.StartSpan(dbc.Ctx, "transcription.run",
		attribute.String("artefact.id", art.ID.String()),
		attribute.String("transcription.provider", provider.Name()),
	)
	defer func() { observability.EndSpan(span, err) }()
	dbc.Ctx = ctx
	started := time.Now()

	jobID, err := provider.Submit(ctx, asset, art.Language)
	if err != nil {
		s.fail(dbc, asset, art, provider.Name(), err, started)
		return nil, providerError(err)
	}
	if err := s.setStatus(dbc, asset, art, types.ArtefactStatusProcessing, map[string]interface{}{"provider_job_id": jobID}); err != nil {
		return nil, err
	}
	art.ProviderJobID = jobID
	s.log.Info("transcription job started", "artefact_id", art.ID, "provider", provider.Name(), "job_id", jobID)

	payload, err := provider.Wait(ctx, jobID)
	if err != nil {
		if waitInterrupted(err) {
			// The provider keeps working on the job; refresh records it later.
			s.log.Warn("stopped waiting for transcription job", "artefact_id", art.ID, "provider", provider.Name(), "job_id", jobID, "error", err)
			return nil, providerError(err)
		}
		s.fail(dbc, asset, art, provider.Name(), err, started)
		return nil, providerError(err)
	}
	return s.complete(dbc, asset, art, provider.Name(), payload, started)
}

// complete stores a terminal payload. The editable result stays empty until
// it is built from the payload or saved.
func (s *transcriptionService) complete(dbc dbctx.Context, asset *types.Asset, art *types.Artefact, providerName string, payload *transcript.Payload, started time.Time) (*types.Artefact, error) {
	if payload == nil {
		err := errors.New("provider returned no payload")
		s.fail(dbc, asset, art, providerName, err, started)
		return nil, apierr.Upstream("provider_failed", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	raw := datatypes.JSON(encoded)
	now := time.Now().UTC()
	if payload.Status == transcript.JobStatusError {
		msg := strings.TrimSpace(payload.Error)
		if msg == "" {
			msg = "unknown provider error"
		}
		jobErr := fmt.Errorf("transcription job %s failed: %s", payload.JobID, msg)
		if err := s.setStatus(persistCtx(dbc), asset, art, types.ArtefactStatusError, map[string]interface{}{
			"payload":      raw,
			"error":        jobErr.Error(),
			"completed_at": now,
		}); err != nil {
			return nil, err
		}
		observability.Current().ObserveTranscription(providerName, types.ArtefactStatusError, time.Since(started))
		return nil, apierr.Upstream("provider_job_failed", jobErr)
	}
	if err := s.setStatus(dbc, asset, art, types.ArtefactStatusDone, map[string]interface{}{
		"payload":      raw,
		"error":        "",
		"completed_at": now,
	}); err != nil {
		return nil, err
	}
	observability.Current().ObserveTranscription(providerName, types.ArtefactStatusDone, time.Since(started))
	s.log.Info("transcription completed", "artefact_id", art.ID, "version", art.Version, "words", len(payload.Words))
	return s.artefactRepo.GetByID(dbc, art.ID)
}

// fail records err on the artefact. It runs on a context that survives the
// caller's cancellation so an aborted submit still leaves an error row.
func (s *transcriptionService) fail(dbc dbctx.Context, asset *types.Asset, art *types.Artefact, providerName string, cause error, started time.Time) {
	s.log.Warn("transcription failed", "artefact_id", art.ID, "provider", providerName, "error", cause)
	if err := s.setStatus(persistCtx(dbc), asset, art, types.ArtefactStatusError, map[string]interface{}{
		"error":        cause.Error(),
		"completed_at": time.Now().UTC(),
	}); err != nil {
		s.log.Error("failed to record transcription error", "artefact_id", art.ID, "error", err)
	}
	observability.Current().ObserveTranscription(providerName, types.ArtefactStatusError, time.Since(started))
}

func (s *transcriptionService) setStatus(dbc dbctx.Context, asset *types.Asset, art *types.Artefact, status string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": status}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.artefactRepo.UpdateFields(dbc, art.ID, updates); err != nil {
		return fmt.Errorf("update artefact %s to %s: %w", art.ID, status, err)
	}
	art.Status = status
	if msg, ok := extra["error"].(string); ok {
		art.Error = msg
	}
	s.transitioned(dbc.Ctx, asset, art)
	return nil
}

func (s *transcriptionService) transitioned(ctx context.Context, asset *types.Asset, art *types.Artefact) {
	observability.Current().IncArtefactTransition(art.Type, art.Status)
	if s.events == nil {
		return
	}
	ev := realtime.ArtefactEvent{
		ArtefactID: art.ID,
		AssetID:    art.AssetID,
		MeetingID:  asset.MeetingID,
		Type:       art.Type,
		Version:    art.Version,
		Status:     art.Status,
		Error:      art.Error,
		At:         time.Now().UTC(),
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Warn("publish artefact event failed", "artefact_id", art.ID, "status", art.Status, "error", err)
	}
}

func (s *transcriptionService) GetTranscriptionData(dbc dbctx.Context, artefactID uuid.UUID) (*TranscriptionData, error) {
	art, err := s.getArtefact(dbc, artefactID)
	if err != nil {
		return nil, err
	}
	return transcriptionData(art)
}

func (s *transcriptionService) SaveTranscription(dbc dbctx.Context, in SaveTranscriptionInput) (*TranscriptionData, error) {
	art, err := s.getArtefact(dbc, in.ArtefactID)
	if err != nil {
		return nil, err
	}
	if art.Status != types.ArtefactStatusDone {
		return nil, apierr.Conflict("artefact_not_ready", fmt.Errorf("artefact is %s; only completed transcriptions can be edited", art.Status))
	}
	if err := in.Result.Validate(); err != nil {
		return nil, apierr.Invalid("invalid_transcription", err)
	}
	raw, err := types.EncodeResult(in.Result.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	updates := map[string]interface{}{"result": raw}
	if in.Summary != nil {
		updates["summary"] = strings.TrimSpace(*in.Summary)
	}
	if err := s.artefactRepo.UpdateFields(dbc, art.ID, updates); err != nil {
		return nil, fmt.Errorf("save transcription: %w", err)
	}
	return s.GetTranscriptionData(dbc, art.ID)
}

func (s *transcriptionService) BuildSegments(dbc dbctx.Context, artefactID uuid.UUID) (transcript.Result, error) {
	art, err := s.getArtefact(dbc, artefactID)
	if err != nil {
		return transcript.Result{}, err
	}
	return buildFromPayload(art)
}

func (s *transcriptionService) SummarizeTranscription(dbc dbctx.Context, artefactID uuid.UUID) (string, error) {
	if s.llm == nil {
		return "", apierr.Unavailable("summary_unavailable", errors.New("no text generation client configured"))
	}
	art, err := s.getArtefact(dbc, artefactID)
	if err != nil {
		return "", err
	}
	res, err := art.DecodeResult()
	if err != nil {
		return "", fmt.Errorf("decode result: %w", err)
	}
	if res.Empty() && len(art.Payload) > 0 {
		if res, err = buildFromPayload(art); err != nil {
			return "", err
		}
	}
	text := transcript.PlainText(res)
	if strings.TrimSpace(text) == "" {
		return "", apierr.Invalid("empty_transcription", errors.New("artefact has no transcript text to summarise"))
	}
	if utf8.RuneCountInString(text) > maxSummaryInputRunes {
		text = string([]rune(text)[:maxSummaryInputRunes])
	}
	summary, err := s.llm.GenerateText(dbc.Ctx, summarySystemPrompt, text)
	if err != nil {
		return "", apierr.Upstream("summary_failed", err)
	}
	summary = strings.TrimSpace(summary)
	if err := s.artefactRepo.UpdateFields(dbc, art.ID, map[string]interface{}{"summary": summary}); err != nil {
		return "", fmt.Errorf("save summary: %w", err)
	}
	return summary, nil
}

func (s *transcriptionService) ExportArtefact(dbc dbctx.Context, artefactID uuid.UUID, part transcript.ExportPart) ([]byte, string, error) {
	art, err := s.getArtefact(dbc, artefactID)
	if err != nil {
		return nil, "", err
	}
	asset, err := s.assetRepo.GetByID(dbc, art.AssetID)
	if err != nil {
		return nil, "", fmt.Errorf("load asset: %w", err)
	}
	base := "artefact"
	if asset != nil && asset.OriginalName != "" {
		base = strings.TrimSuffix(asset.OriginalName, filepath.Ext(asset.OriginalName))
	}
	res, err := art.DecodeResult()
	if err != nil {
		return nil, "", fmt.Errorf("decode result: %w", err)
	}
	return transcript.Export(part, fmt.Sprintf("%s-%s-v%d", base, art.Type, art.Version), art.Payload, res, art.Summary)
}

func (s *transcriptionService) DeleteArtefact(dbc dbctx.Context, artefactID uuid.UUID) error {
	art, err := s.getArtefact(dbc, artefactID)
	if err != nil {
		return err
	}
	if err := s.artefactRepo.FullDeleteByIDs(dbc, []uuid.UUID{art.ID}); err != nil {
		return fmt.Errorf("delete artefact: %w", err)
	}
	s.log.Info("artefact deleted", "artefact_id", art.ID, "asset_id", art.AssetID, "version", art.Version)
	return nil
}

func (s *transcriptionService) GetArtefactsByMeetingID(dbc dbctx.Context, meetingID uuid.UUID) ([]*types.Artefact, error) {
	if err := requireID("meeting_id", meetingID); err != nil {
		return nil, err
	}
	m, err := s.meetingRepo.GetByID(dbc, meetingID)
	if err != nil {
		return nil, fmt.Errorf("load meeting: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound("meeting")
	}
	out, err := s.artefactRepo.GetByMeetingID(dbc, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list artefacts: %w", err)
	}
	if out == nil {
		out = []*types.Artefact{}
	}
	return out, nil
}

func (s *transcriptionService) getArtefact(dbc dbctx.Context, id uuid.UUID) (*types.Artefact, error) {
	if err := requireID("artefact_id", id); err != nil {
		return nil, err
	}
	art, err := s.artefactRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load artefact: %w", err)
	}
	if art == nil {
		return nil, apierr.NotFound("artefact")
	}
	return art, nil
}

func (s *transcriptionService) provider(name string) (TranscriptionProvider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = s.cfg.DefaultProvider
	}
	p, ok := s.providers[name]
	if !ok {
		return nil, apierr.Invalid("unknown_provider", fmt.Errorf("transcription provider %q is not configured", name))
	}
	return p, nil
}

func normalizeArtefactType(raw string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(raw)); t {
	case "":
		return types.ArtefactTypeTranscription, nil
	case types.ArtefactTypeTranscription, types.ArtefactTypeDiarisation:
		return t, nil
	default:
		return "", apierr.Invalid("invalid_type", fmt.Errorf("unknown artefact type %q", raw))
	}
}

func buildFromPayload(art *types.Artefact) (transcript.Result, error) {
	if len(art.Payload) == 0 || string(art.Payload) == "null" {
		return transcript.Result{}, apierr.Conflict("no_payload", errors.New("artefact has no provider payload yet"))
	}
	res, err := transcript.ParseRaw(art.Payload)
	if err != nil {
		return transcript.Result{}, apierr.Invalid("invalid_payload", err)
	}
	return res, nil
}

func transcriptionData(art *types.Artefact) (*TranscriptionData, error) {
	res, err := art.DecodeResult()
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	out := &TranscriptionData{
		ID:          art.ID,
		AssetID:     art.AssetID,
		Type:        art.Type,
		Version:     art.Version,
		Status:      art.Status,
		Provider:    art.Provider,
		Language:    art.Language,
		Error:       art.Error,
		Result:      res,
		Summary:     art.Summary,
		CompletedAt: art.CompletedAt,
		UpdatedAt:   art.UpdatedAt,
	}
	if len(art.Payload) > 0 {
		out.Payload = json.RawMessage(art.Payload)
	}
	return out, nil
}

func persistCtx(dbc dbctx.Context) dbctx.Context {
	return dbctx.Context{Ctx: context.WithoutCancel(dbc.Ctx), Tx: dbc.Tx}
}
