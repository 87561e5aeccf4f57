// Package assemblyai is a thin client for the AssemblyAI v2 REST API:
// upload audio, start a transcript job, poll it to completion.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/meetingdesk-backend/internal/observability"
	"github.com/yungbote/meetingdesk-backend/internal/platform/httpx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

const (
	ProviderName = "assemblyai"

	DefaultBaseURL      = "https://api.assemblyai.com/v2"
	DefaultPollInterval = 5 * time.Second
	DefaultMaxWait      = 300000 * time.Millisecond

	maxErrorBody = 2048
)

type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	MaxWait      time.Duration
	// DirectURL hands the storage read URL to the provider instead of
	// downloading and re-uploading the audio.
	DirectURL  bool
	MaxRetries int
	HTTPClient *http.Client
}

type Options struct {
	LanguageCode    string
	SpeakerLabels   bool
	Punctuate       bool
	FormatText      bool
	FilterProfanity bool
	WordBoost       []string
}

// DefaultOptions is what the orchestrator sends when the caller only picks a
// language.
func DefaultOptions(language string) Options {
	return Options{
		LanguageCode:  language,
		SpeakerLabels: true,
		Punctuate:     true,
		FormatText:    true,
	}
}

// ReadURLSigner issues short-lived GET URLs for stored objects.
type ReadURLSigner interface {
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Word struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

type Paragraph struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// JobResult is the provider's transcript resource. Times are milliseconds.
type JobResult struct {
	ID           string      `json:"id"`
	Status       string      `json:"status"`
	Text         string      `json:"text"`
	Confidence   float64     `json:"confidence"`
	LanguageCode string      `json:"language_code"`
	Words        []Word      `json:"words"`
	Paragraphs   []Paragraph `json:"paragraphs,omitempty"`
	Error        string      `json:"error,omitempty"`
}

func (r *JobResult) Terminal() bool {
	return r != nil && (r.Status == transcript.JobStatusCompleted || r.Status == transcript.JobStatusError)
}

// Payload converts the provider resource to the stored provider-neutral form.
func (r *JobResult) Payload() transcript.Payload {
	if r == nil {
		return transcript.Payload{Provider: ProviderName, TimeUnit: transcript.TimeUnitMillis}
	}
	p := transcript.Payload{
		Provider:     ProviderName,
		JobID:        r.ID,
		Status:       r.Status,
		Text:         r.Text,
		Confidence:   r.Confidence,
		LanguageCode: r.LanguageCode,
		TimeUnit:     transcript.TimeUnitMillis,
		Error:        r.Error,
		Words:        convertWords(r.Words),
	}
	for _, para := range r.Paragraphs {
		p.Paragraphs = append(p.Paragraphs, transcript.Paragraph{
			Text:  para.Text,
			Start: para.Start,
			End:   para.End,
			Words: convertWords(para.Words),
		})
	}
	return p
}

func convertWords(in []Word) []transcript.Word {
	if len(in) == 0 {
		return nil
	}
	out := make([]transcript.Word, 0, len(in))
	for _, w := range in {
		out = append(out, transcript.Word{
			Text:       w.Text,
			Start:      w.Start,
			End:        w.End,
			Confidence: w.Confidence,
			Speaker:    w.Speaker,
		})
	}
	return out
}

type Client struct {
	log          *logger.Logger
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	maxWait      time.Duration
	directURL    bool
	maxRetries   int
	httpClient   *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing ASSEMBLYAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		log:          log.With("client", "AssemblyAI"),
		apiKey:       apiKey,
		baseURL:      baseURL,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		directURL:    cfg.DirectURL,
		maxRetries:   cfg.MaxRetries,
		httpClient:   hc,
	}, nil
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) MaxWait() time.Duration { return c.maxWait }

// UploadAudio stores raw audio with the provider and returns the private URL
// to reference in StartJob.
func (c *Client) UploadAudio(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", &UploadError{Err: errors.New("audio is empty")}
	}
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	err := c.do(ctx, "upload", http.MethodPost, "/upload", "application/octet-stream", audio, &out, true)
	if err != nil {
		return "", &UploadError{Err: err}
	}
	if !strings.HasPrefix(out.UploadURL, "http://") && !strings.HasPrefix(out.UploadURL, "https://") {
		return "", &UploadError{Err: fmt.Errorf("provider returned invalid upload url %q", out.UploadURL)}
	}
	return out.UploadURL, nil
}

type startRequest struct {
	AudioURL        string   `json:"audio_url"`
	LanguageCode    string   `json:"language_code,omitempty"`
	SpeakerLabels   bool     `json:"speaker_labels"`
	Punctuate       bool     `json:"punctuate"`
	FormatText      bool     `json:"format_text"`
	FilterProfanity bool     `json:"filter_profanity,omitempty"`
	WordBoost       []string `json:"word_boost,omitempty"`
}

// StartJob submits a transcript job and returns the provider job id. Not
// retried: a duplicate submit would start a second job.
func (c *Client) StartJob(ctx context.Context, audioURL string, opts Options) (string, error) {
	if strings.TrimSpace(audioURL) == "" {
		return "", &StartError{Err: errors.New("audio url is empty")}
	}
	body, err := json.Marshal(startRequest{
		AudioURL:        audioURL,
		LanguageCode:    normalizeLanguage(opts.LanguageCode),
		SpeakerLabels:   opts.SpeakerLabels,
		Punctuate:       opts.Punctuate,
		FormatText:      opts.FormatText,
		FilterProfanity: opts.FilterProfanity,
		WordBoost:       cleanWordBoost(opts.WordBoost),
	})
	if err != nil {
		return "", &StartError{Err: err}
	}
	var out JobResult
	if err := c.do(ctx, "start", http.MethodPost, "/transcript", "application/json", body, &out, false); err != nil {
		return "", &StartError{Err: err}
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", &StartError{Err: errors.New("provider returned no job id")}
	}
	c.log.Info("transcription job started", "job_id", out.ID, "status", out.Status)
	return out.ID, nil
}

// PollJob fetches the job once. For completed jobs without speaker labels the
// paragraphs are fetched too, best effort.
func (c *Client) PollJob(ctx context.Context, jobID string) (*JobResult, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, &FetchError{Err: errors.New("job id is empty")}
	}
	var out JobResult
	if err := c.do(ctx, "poll", http.MethodGet, "/transcript/"+url.PathEscape(jobID), "", nil, &out, true); err != nil {
		return nil, &FetchError{JobID: jobID, Err: err}
	}
	if out.ID == "" {
		out.ID = jobID
	}
	if out.Status == transcript.JobStatusCompleted && len(out.Words) > 0 && !hasSpeakers(out.Words) {
		var paras struct {
			Paragraphs []Paragraph `json:"paragraphs"`
		}
		err := c.do(ctx, "paragraphs", http.MethodGet, "/transcript/"+url.PathEscape(jobID)+"/paragraphs", "", nil, &paras, true)
		if err != nil {
			c.log.Warn("paragraph fetch failed (continuing without)", "job_id", jobID, "error", err)
		} else {
			out.Paragraphs = paras.Paragraphs
		}
	}
	return &out, nil
}

// WaitForCompletion polls immediately and then every poll interval until the
// job is completed or failed. maxWait <= 0 uses the client default. Every poll
// runs under the maxWait deadline, so a hung request cannot outlast it.
func (c *Client) WaitForCompletion(ctx context.Context, jobID string, maxWait time.Duration) (*JobResult, error) {
	if maxWait <= 0 {
		maxWait = c.maxWait
	}
	parent := ctx
	ctx, cancel := context.WithTimeout(parent, maxWait)
	defer cancel()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	stopped := func(err error) error {
		if perr := parent.Err(); perr != nil {
			return perr
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{JobID: jobID, MaxWait: maxWait}
		}
		return err
	}

	attempt := 0
	for {
		attempt++
		res, err := c.PollJob(ctx, jobID)
		if err != nil {
			return nil, stopped(err)
		}
		switch res.Status {
		case transcript.JobStatusCompleted:
			c.log.Info("transcription job completed", "job_id", jobID, "attempts", attempt, "words", len(res.Words))
			return res, nil
		case transcript.JobStatusError:
			return res, &JobError{JobID: jobID, Message: res.Error}
		}
		c.log.Debug("transcription job pending", "job_id", jobID, "status", res.Status, "attempt", attempt)

		select {
		case <-ctx.Done():
			return nil, stopped(ctx.Err())
		case <-ticker.C:
		}
	}
}

// FetchAudio downloads the object behind a signed read URL. The request is
// not authenticated with the provider key.
func (c *Client) FetchAudio(ctx context.Context, readURL string) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "assemblyai.fetch_audio")
	start := time.Now()
	var err error
	defer func() { observability.EndSpan(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readURL, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.Current().ObserveProviderRequest(ProviderName, "fetch_audio", "transport_error", time.Since(start))
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()
	observability.Current().ObserveProviderRequest(ProviderName, "fetch_audio", strconv.Itoa(resp.StatusCode), time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err = &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		return nil, &FetchError{Err: err}
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	return audio, nil
}

// SubmitFromStorageLocator starts a job for a stored object and returns the
// job id without waiting.
func (c *Client) SubmitFromStorageLocator(ctx context.Context, signer ReadURLSigner, locator string, opts Options) (string, error) {
	if signer == nil {
		return "", &FetchError{Err: errors.New("no storage signer configured")}
	}
	readURL, err := signer.SignedReadURL(ctx, locator, time.Hour)
	if err != nil {
		return "", &FetchError{Err: fmt.Errorf("sign read url for %q: %w", locator, err)}
	}
	audioURL := readURL
	if !c.directURL {
		audio, err := c.FetchAudio(ctx, readURL)
		if err != nil {
			return "", err
		}
		audioURL, err = c.UploadAudio(ctx, audio)
		if err != nil {
			return "", err
		}
	}
	return c.StartJob(ctx, audioURL, opts)
}

// TranscribeFromStorageLocator runs the whole flow for a stored object and
// blocks until the job finishes.
func (c *Client) TranscribeFromStorageLocator(ctx context.Context, signer ReadURLSigner, locator string, opts Options) (*JobResult, error) {
	jobID, err := c.SubmitFromStorageLocator(ctx, signer, locator, opts)
	if err != nil {
		return nil, err
	}
	return c.WaitForCompletion(ctx, jobID, c.maxWait)
}

func (c *Client) doOnce(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, []byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("authorization", c.apiKey)
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return resp, raw, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body []byte, out any, retry bool) (err error) {
	ctx, span := observability.StartSpan(ctx, "assemblyai."+op,
		attribute.String("http.method", method),
		attribute.String("assemblyai.path", path),
	)
	defer func() { observability.EndSpan(span, err) }()

	maxRetries := 0
	if retry {
		maxRetries = c.maxRetries
	}
	backoff := 1 * time.Second
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		start := time.Now()
		resp, raw, reqErr := c.doOnce(ctx, method, path, contentType, body)
		observability.Current().ObserveProviderRequest(ProviderName, op, statusLabel(resp, reqErr), time.Since(start))
		if reqErr == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("assemblyai decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(reqErr) || attempt == maxRetries {
			return reqErr
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("AssemblyAI request retrying",
			"op", op,
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"sleep", sleepFor.String(),
			"error", reqErr.Error(),
		)
		if sErr := httpx.Sleep(ctx, sleepFor); sErr != nil {
			return sErr
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

func statusLabel(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	if err != nil {
		return "transport_error"
	}
	return "0"
}

func hasSpeakers(words []Word) bool {
	for _, w := range words {
		if strings.TrimSpace(w.Speaker) != "" {
			return true
		}
	}
	return false
}

// normalizeLanguage maps "en-US" style tags and "auto" to what the provider
// accepts.
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return strings.ToLower(lang[:i])
	}
	return strings.ToLower(lang)
}

// cleanWordBoost keeps at most 100 non-empty terms of 50 characters or fewer.
func cleanWordBoost(terms []string) []string {
	var out []string
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" || len(term) > 50 {
			continue
		}
		out = append(out, term)
		if len(out) == 100 {
			break
		}
	}
	return out
}
