package services

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/gcp"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

const (
	DefaultUploadURLTTL = 3600 * time.Second
	DefaultReadURLTTL   = 900 * time.Second

	maxAssetName   = 255
	signingWorkers = 8
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type AssetService interface {
	RequestUpload(dbc dbctx.Context, meetingID uuid.UUID, in RequestUploadInput) (*UploadTicket, error)
	MarkUploaded(dbc dbctx.Context, assetID uuid.UUID) (*types.Asset, error)
	GetReadURL(dbc dbctx.Context, assetID uuid.UUID) (*SignedURL, error)
	ListByMeeting(dbc dbctx.Context, meetingID uuid.UUID) ([]*AssetView, error)
	Delete(dbc dbctx.Context, assetID uuid.UUID) error
}

type RequestUploadInput struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

// UploadTicket is what a browser needs to PUT the file straight to storage.
// The PUT must carry ContentType unchanged.
type UploadTicket struct {
	Asset       *types.Asset `json:"asset"`
	UploadURL   string       `json:"upload_url"`
	ContentType string       `json:"content_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AssetView struct {
	*types.Asset
	ReadURL string `json:"read_url,omitempty"`
}

type AssetURLConfig struct {
	UploadTTL time.Duration
	ReadTTL   time.Duration
}

type assetService struct {
	db          *gorm.DB
	log         *logger.Logger
	meetingRepo repos.MeetingRepo
	assetRepo   repos.AssetRepo
	bucket      gcp.BucketService
	cfg         AssetURLConfig
}

func NewAssetService(
	db *gorm.DB,
	log *logger.Logger,
	meetingRepo repos.MeetingRepo,
	assetRepo repos.AssetRepo,
	bucket gcp.BucketService,
	cfg AssetURLConfig,
) AssetService {
	if cfg.UploadTTL <= 0 {
		cfg.UploadTTL = DefaultUploadURLTTL
	}
	if cfg.ReadTTL <= 0 {
		cfg.ReadTTL = DefaultReadURLTTL
	}
	return &assetService{
		db:          db,
		log:         log.With("service", "AssetService"),
		meetingRepo: meetingRepo,
		assetRepo:   assetRepo,
		bucket:      bucket,
		cfg:         cfg,
	}
}

func (s *assetService) RequestUpload(dbc dbctx.Context, meetingID uuid.UUID, in RequestUploadInput) (*UploadTicket, error) {
	if err := requireID("meeting_id", meetingID); err != nil {
		return nil, err
	}
	if s.bucket == nil {
		return nil, apierr.Unavailable("storage_unavailable", errors.New("object storage is not configured"))
	}
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(in.FileName, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return nil, apierr.Invalid("invalid_file_name", errors.New("file_name is required"))
	}
	if len([]rune(name)) > maxAssetName {
		return nil, apierr.Invalid("invalid_file_name", fmt.Errorf("file_name exceeds %d characters", maxAssetName))
	}
	if in.SizeBytes < 0 {
		return nil, apierr.Invalid("invalid_size", errors.New("size_bytes must not be negative"))
	}
	m, err := s.meetingRepo.GetByID(dbc, meetingID)
	if err != nil {
		return nil, fmt.Errorf("load meeting: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound("meeting")
	}

	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" {
		contentType = gcp.ContentTypeForKey(name)
	}
	assetID := uuid.New()
	row := &types.Asset{
		ID:           assetID,
		MeetingID:    meetingID,
		Kind:         types.AssetKindForMime(contentType, name),
		OriginalName: name,
		MimeType:     contentType,
		StorageKey:   storageKey(meetingID, assetID, name),
		SizeBytes:    in.SizeBytes,
	}
	created, err := s.assetRepo.Create(dbc, []*types.Asset{row})
	if err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	expires := time.Now().Add(s.cfg.UploadTTL).UTC()
	u, err := s.bucket.SignedUploadURL(dbc.Ctx, row.StorageKey, contentType, s.cfg.UploadTTL)
	if err != nil {
		return nil, apierr.Upstream("sign_upload_failed", err)
	}
	s.log.Info("asset upload requested", "asset_id", assetID, "meeting_id", meetingID, "kind", row.Kind)
	return &UploadTicket{Asset: created[0], UploadURL: u, ContentType: contentType, ExpiresAt: expires}, nil
}

func (s *assetService) MarkUploaded(dbc dbctx.Context, assetID uuid.UUID) (*types.Asset, error) {
	a, err := s.getAsset(dbc, assetID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.assetRepo.UpdateFields(dbc, a.ID, map[string]interface{}{"uploaded_at": now}); err != nil {
		return nil, fmt.Errorf("mark uploaded: %w", err)
	}
	a.UploadedAt = &now
	return a, nil
}

func (s *assetService) GetReadURL(dbc dbctx.Context, assetID uuid.UUID) (*SignedURL, error) {
	if s.bucket == nil {
		return nil, apierr.Unavailable("storage_unavailable", errors.New("object storage is not configured"))
	}
	a, err := s.getAsset(dbc, assetID)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.cfg.ReadTTL).UTC()
	u, err := s.bucket.SignedReadURL(dbc.Ctx, a.StorageKey, s.cfg.ReadTTL)
	if err != nil {
		return nil, apierr.Upstream("sign_read_failed", err)
	}
	return &SignedURL{URL: u, ExpiresAt: expires}, nil
}

// ListByMeeting signs a read URL per asset. A signing failure leaves that
// asset's URL empty rather than failing the listing.
func (s *assetService) ListByMeeting(dbc dbctx.Context, meetingID uuid.UUID) ([]*AssetView, error) {
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
	assets, err := s.assetRepo.GetByMeetingID(dbc, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	out := make([]*AssetView, len(assets))
	for i, a := range assets {
		out[i] = &AssetView{Asset: a}
	}
	if s.bucket == nil {
		return out, nil
	}
	g, gctx := errgroup.WithContext(dbc.Ctx)
	g.SetLimit(signingWorkers)
	for _, v := range out {
		g.Go(func() error {
			u, err := s.bucket.SignedReadURL(gctx, v.StorageKey, s.cfg.ReadTTL)
			if err != nil {
				s.log.Warn("sign read url failed", "asset_id", v.ID, "error", err)
				return nil
			}
			v.ReadURL = u
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// Delete removes the asset row (artefacts cascade) and then its object.
func (s *assetService) Delete(dbc dbctx.Context, assetID uuid.UUID) error {
	a, err := s.getAsset(dbc, assetID)
	if err != nil {
		return err
	}
	if err := s.assetRepo.FullDeleteByIDs(dbc, []uuid.UUID{a.ID}); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if s.bucket != nil {
		if err := s.bucket.DeleteFile(persistCtx(dbc), a.StorageKey); err != nil && !errors.Is(err, gcp.ErrObjectNotFound) {
			s.log.Warn("delete stored object failed", "asset_id", a.ID, "key", a.StorageKey, "error", err)
		}
	}
	s.log.Info("asset deleted", "asset_id", a.ID, "meeting_id", a.MeetingID)
	return nil
}

func (s *assetService) getAsset(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	if err := requireID("asset_id", id); err != nil {
		return nil, err
	}
	a, err := s.assetRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if a == nil {
		return nil, apierr.NotFound("asset")
	}
	return a, nil
}

// storageKey is meetings/<meeting>/assets/<asset>/<sanitised name>.
func storageKey(meetingID, assetID uuid.UUID, name string) string {
	clean := strings.Trim(unsafeKeyChars.ReplaceAllString(name, "_"), "_.")
	if clean == "" {
		clean = "file"
	}
	return fmt.Sprintf("meetings/%s/assets/%s/%s", meetingID, assetID, clean)
}
