package services

import (
	"context"
	"fmt"
	"time"

	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/assemblyai"
	"github.com/yungbote/meetingdesk-backend/internal/platform/gcp"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

// TranscriptionProvider is one speech-to-text backend as seen by the
// orchestrator. Payloads come back provider-neutral; a job that the provider
// reports as failed is a payload with status "error", not an err.
type TranscriptionProvider interface {
	Name() string
	// Submit hands the stored asset to the provider and returns its job id.
	Submit(ctx context.Context, asset *types.Asset, language string) (string, error)
	// Wait blocks until the job is terminal or the provider's wait budget
	// runs out.
	Wait(ctx context.Context, jobID string) (*transcript.Payload, error)
	// Poll checks once; done reports a terminal payload.
	Poll(ctx context.Context, jobID string) (*transcript.Payload, bool, error)
}

type assemblyAIProvider struct {
	client  *assemblyai.Client
	signer  assemblyai.ReadURLSigner
	maxWait time.Duration
}

// NewAssemblyAIProvider submits assets by their storage key; the signer turns
// the key into a short-lived read URL for the client.
func NewAssemblyAIProvider(client *assemblyai.Client, signer assemblyai.ReadURLSigner) TranscriptionProvider {
	return &assemblyAIProvider{client: client, signer: signer, maxWait: client.MaxWait()}
}

func (p *assemblyAIProvider) Name() string { return assemblyai.ProviderName }

func (p *assemblyAIProvider) Submit(ctx context.Context, asset *types.Asset, language string) (string, error) {
	return p.client.SubmitFromStorageLocator(ctx, p.signer, asset.StorageKey, assemblyai.DefaultOptions(language))
}

func (p *assemblyAIProvider) Wait(ctx context.Context, jobID string) (*transcript.Payload, error) {
	res, err := p.client.WaitForCompletion(ctx, jobID, p.maxWait)
	if res != nil && res.Status == transcript.JobStatusError {
		payload := res.Payload()
		return &payload, nil
	}
	if err != nil {
		return nil, err
	}
	payload := res.Payload()
	return &payload, nil
}

func (p *assemblyAIProvider) Poll(ctx context.Context, jobID string) (*transcript.Payload, bool, error) {
	res, err := p.client.PollJob(ctx, jobID)
	if err != nil {
		return nil, false, err
	}
	payload := res.Payload()
	return &payload, res.Terminal(), nil
}

type gcpSpeechProvider struct {
	speech gcp.Speech
	bucket gcp.BucketService
}

// NewGCPSpeechProvider runs long-running recognition straight off the bucket.
func NewGCPSpeechProvider(speech gcp.Speech, bucket gcp.BucketService) TranscriptionProvider {
	return &gcpSpeechProvider{speech: speech, bucket: bucket}
}

func (p *gcpSpeechProvider) Name() string { return gcp.SpeechProviderName }

func (p *gcpSpeechProvider) Submit(ctx context.Context, asset *types.Asset, language string) (string, error) {
	if p.bucket == nil {
		return "", fmt.Errorf("gcp speech: no bucket configured")
	}
	return p.speech.Start(ctx, p.bucket.GSURI(asset.StorageKey), gcp.DefaultSpeechConfig(language))
}

func (p *gcpSpeechProvider) Wait(ctx context.Context, jobID string) (*transcript.Payload, error) {
	return p.speech.Wait(ctx, jobID)
}

func (p *gcpSpeechProvider) Poll(ctx context.Context, jobID string) (*transcript.Payload, bool, error) {
	return p.speech.Poll(ctx, jobID)
}
