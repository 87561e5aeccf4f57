package gcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/yungbote/meetingdesk-backend/internal/platform/httpx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

const SpeechProviderName = "gcp_speech"

// Speech runs Google Cloud Speech long-running recognition over objects in
// the asset bucket. The operation name plays the role of a provider job id.
type Speech interface {
	Start(ctx context.Context, gcsURI string, cfg SpeechConfig) (string, error)
	Poll(ctx context.Context, operation string) (*transcript.Payload, bool, error)
	Wait(ctx context.Context, operation string) (*transcript.Payload, error)
	Close() error
}

type SpeechConfig struct {
	LanguageCode string
	Model        string
	UseEnhanced  bool

	EnableAutomaticPunctuation bool

	EnableSpeakerDiarization bool
	MinSpeakerCount          int
	MaxSpeakerCount          int

	SampleRateHertz   int
	AudioChannelCount int

	Encoding speechpb.RecognitionConfig_AudioEncoding
}

// DefaultSpeechConfig mirrors the AssemblyAI defaults: punctuation and
// diarization on.
func DefaultSpeechConfig(language string) SpeechConfig {
	return SpeechConfig{
		LanguageCode:               language,
		EnableAutomaticPunctuation: true,
		EnableSpeakerDiarization:   true,
		MinSpeakerCount:            1,
		MaxSpeakerCount:            6,
	}
}

type speechService struct {
	log        *logger.Logger
	client     *speech.Client
	maxRetries int
	maxWait    time.Duration
}

func NewSpeech(log *logger.Logger, credentials string, maxWait time.Duration) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := speech.NewClient(context.Background(), ClientOptions(credentials)...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	if maxWait <= 0 {
		maxWait = 30 * time.Minute
	}
	return &speechService{
		log:        log.With("service", "gcp.Speech"),
		client:     c,
		maxRetries: 4,
		maxWait:    maxWait,
	}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) Start(ctx context.Context, gcsURI string, cfg SpeechConfig) (string, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", fmt.Errorf("gcsURI must be gs://... got %q", gcsURI)
	}
	req := &speechpb.LongRunningRecognizeRequest{
		Config: buildRecognitionConfig(gcsURI, cfg),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Uri{Uri: gcsURI}},
	}
	var name string
	err := s.retry(ctx, func() error {
		op, err := s.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return err
		}
		name = op.Name()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("speech longrunningrecognize: %w", err)
	}
	s.log.Info("speech operation started", "operation", name, "uri", gcsURI)
	return name, nil
}

// Poll checks the operation once. done=false means still running. A failed
// operation is reported as a payload with status "error", not as err.
func (s *speechService) Poll(ctx context.Context, operation string) (*transcript.Payload, bool, error) {
	op := s.client.LongRunningRecognizeOperation(operation)
	var resp *speechpb.LongRunningRecognizeResponse
	err := s.retry(ctx, func() error {
		var pollErr error
		resp, pollErr = op.Poll(ctx)
		if pollErr != nil && op.Done() {
			return nil
		}
		return pollErr
	})
	if err != nil {
		return nil, false, fmt.Errorf("speech poll %s: %w", operation, err)
	}
	if !op.Done() {
		return &transcript.Payload{Provider: SpeechProviderName, JobID: operation, Status: transcript.JobStatusProcessing}, false, nil
	}
	if resp == nil {
		return failedPayload(operation, "operation finished without a response"), true, nil
	}
	return ParseSpeechResponse(operation, resp), true, nil
}

// Wait blocks until the operation finishes or maxWait elapses.
func (s *speechService) Wait(ctx context.Context, operation string) (*transcript.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.maxWait)
	defer cancel()
	op := s.client.LongRunningRecognizeOperation(operation)
	resp, err := op.Wait(ctx)
	if err != nil {
		if op.Done() {
			return failedPayload(operation, err.Error()), nil
		}
		if cerr := ctx.Err(); cerr != nil {
			// The operation keeps running server side; callers can poll it later.
			return nil, fmt.Errorf("speech wait %s: %w", operation, cerr)
		}
		return nil, fmt.Errorf("speech wait %s: %w", operation, err)
	}
	return ParseSpeechResponse(operation, resp), nil
}

func failedPayload(operation, msg string) *transcript.Payload {
	return &transcript.Payload{
		Provider: SpeechProviderName,
		JobID:    operation,
		Status:   transcript.JobStatusError,
		Error:    msg,
		TimeUnit: transcript.TimeUnitSeconds,
	}
}

func buildRecognitionConfig(gcsURI string, cfg SpeechConfig) *speechpb.RecognitionConfig {
	lang := strings.TrimSpace(cfg.LanguageCode)
	if lang == "" || strings.EqualFold(lang, "en") {
		lang = "en-US"
	}
	enc := cfg.Encoding
	if enc == speechpb.RecognitionConfig_ENCODING_UNSPECIFIED {
		enc = inferSpeechEncoding(gcsURI)
	}
	rc := &speechpb.RecognitionConfig{
		LanguageCode:               lang,
		Model:                      cfg.Model,
		UseEnhanced:                cfg.UseEnhanced,
		EnableAutomaticPunctuation: cfg.EnableAutomaticPunctuation,
		EnableWordTimeOffsets:      true,
		EnableWordConfidence:       true,
		Encoding:                   enc,
		SampleRateHertz:            int32(max(cfg.SampleRateHertz, 0)),
		AudioChannelCount:          int32(max(cfg.AudioChannelCount, 0)),
	}
	if cfg.EnableSpeakerDiarization {
		rc.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          int32(max(cfg.MinSpeakerCount, 0)),
			MaxSpeakerCount:          int32(max(cfg.MaxSpeakerCount, 0)),
		}
	}
	return rc
}

func inferSpeechEncoding(gcsURI string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(filepath.Ext(gcsURI)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	case ".webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// ParseSpeechResponse converts a recognition response to a payload in
// seconds. With diarization the final result repeats every word with a
// speaker tag, so only that result's words are used.
func ParseSpeechResponse(operation string, resp *speechpb.LongRunningRecognizeResponse) *transcript.Payload {
	p := &transcript.Payload{
		Provider: SpeechProviderName,
		JobID:    operation,
		Status:   transcript.JobStatusCompleted,
		TimeUnit: transcript.TimeUnitSeconds,
	}
	if resp == nil || len(resp.Results) == 0 {
		return p
	}

	var (
		texts      []string
		confSum    float64
		confN      int
		paragraphs []transcript.Paragraph
		prevEnd    float64
	)
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		if p.LanguageCode == "" && r.LanguageCode != "" {
			p.LanguageCode = r.LanguageCode
		}
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		if alt.Confidence > 0 {
			confSum += float64(alt.Confidence)
			confN++
		}
		words := convertSpeechWords(alt.Words, false)
		para := transcript.Paragraph{Text: text, Start: prevEnd, End: durToSec(r.ResultEndTime), Words: words}
		if len(words) > 0 {
			para.Start = words[0].Start
			if para.End == 0 {
				para.End = words[len(words)-1].End
			}
		}
		prevEnd = para.End
		paragraphs = append(paragraphs, para)
		p.Words = append(p.Words, words...)
	}
	p.Text = strings.Join(texts, " ")
	if confN > 0 {
		p.Confidence = confSum / float64(confN)
	}
	p.Paragraphs = paragraphs

	if last := resp.Results[len(resp.Results)-1]; last != nil && len(last.Alternatives) > 0 && last.Alternatives[0] != nil {
		if diarized := convertSpeechWords(last.Alternatives[0].Words, true); hasSpeakerTags(diarized) {
			p.Words = diarized
		}
	}
	return p
}

func convertSpeechWords(in []*speechpb.WordInfo, withSpeaker bool) []transcript.Word {
	out := make([]transcript.Word, 0, len(in))
	for _, w := range in {
		if w == nil {
			continue
		}
		word := transcript.Word{
			Text:       w.Word,
			Start:      durToSec(w.StartTime),
			End:        durToSec(w.EndTime),
			Confidence: float64(w.Confidence),
		}
		if withSpeaker && w.SpeakerTag > 0 {
			word.Speaker = fmt.Sprintf("SPEAKER_%02d", w.SpeakerTag-1)
		}
		out = append(out, word)
	}
	return out
}

func hasSpeakerTags(words []transcript.Word) bool {
	for _, w := range words {
		if w.Speaker != "" {
			return true
		}
	}
	return false
}

func durToSec(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return float64(d.Seconds) + float64(d.Nanos)/1e9
}

func isRetryableSpeechCode(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func (s *speechService) retry(ctx context.Context, fn func() error) error {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		last = err
		if !isRetryableSpeechCode(err) || attempt == s.maxRetries {
			break
		}
		s.log.Warn("speech call retrying", "attempt", attempt+1, "error", err)
		if err := httpx.Sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, 10*time.Second)
	}
	return last
}
