package services

import (
	"errors"
	"fmt"
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
	maxMeetingTitle = 300
	cleanupWorkers  = 4
)

type MeetingService interface {
	Create(dbc dbctx.Context, in MeetingInput) (*types.Meeting, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Meeting, error)
	List(dbc dbctx.Context, opts repos.MeetingListOptions) ([]*types.Meeting, error)
	Update(dbc dbctx.Context, id uuid.UUID, in UpdateMeetingInput) (*types.Meeting, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type MeetingInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	OrganizerID *uuid.UUID `json:"organizer_id,omitempty"`
}

// UpdateMeetingInput carries the version the caller read; nil fields are left
// alone.
type UpdateMeetingInput struct {
	Version     int        `json:"version"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	OrganizerID *uuid.UUID `json:"organizer_id,omitempty"`
}

type meetingService struct {
	db           *gorm.DB
	log          *logger.Logger
	meetingRepo  repos.MeetingRepo
	assetRepo    repos.AssetRepo
	employeeRepo repos.EmployeeRepo
	bucket       gcp.BucketService
}

func NewMeetingService(
	db *gorm.DB,
	log *logger.Logger,
	meetingRepo repos.MeetingRepo,
	assetRepo repos.AssetRepo,
	employeeRepo repos.EmployeeRepo,
	bucket gcp.BucketService,
) MeetingService {
	return &meetingService{
		db:           db,
		log:          log.With("service", "MeetingService"),
		meetingRepo:  meetingRepo,
		assetRepo:    assetRepo,
		employeeRepo: employeeRepo,
		bucket:       bucket,
	}
}

func (s *meetingService) Create(dbc dbctx.Context, in MeetingInput) (*types.Meeting, error) {
	title, err := meetingTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := checkMeetingWindow(in.StartedAt, in.EndedAt); err != nil {
		return nil, err
	}
	if err := s.checkOrganizer(dbc, in.OrganizerID); err != nil {
		return nil, err
	}
	m, err := s.meetingRepo.Create(dbc, &types.Meeting{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		StartedAt:   in.StartedAt,
		EndedAt:     in.EndedAt,
		OrganizerID: in.OrganizerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}
	return m, nil
}

func (s *meetingService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Meeting, error) {
	if err := requireID("meeting_id", id); err != nil {
		return nil, err
	}
	m, err := s.meetingRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load meeting: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound("meeting")
	}
	return m, nil
}

func (s *meetingService) List(dbc dbctx.Context, opts repos.MeetingListOptions) ([]*types.Meeting, error) {
	out, err := s.meetingRepo.List(dbc, opts)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	if out == nil {
		out = []*types.Meeting{}
	}
	return out, nil
}

func (s *meetingService) Update(dbc dbctx.Context, id uuid.UUID, in UpdateMeetingInput) (*types.Meeting, error) {
	current, err := s.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if in.Version <= 0 {
		return nil, apierr.Invalid("invalid_version", errors.New("version is required"))
	}
	updates := map[string]interface{}{}
	if in.Title != nil {
		title, err := meetingTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		updates["location"] = strings.TrimSpace(*in.Location)
	}
	started, ended := current.StartedAt, current.EndedAt
	if in.StartedAt != nil {
		started = in.StartedAt
		updates["started_at"] = *in.StartedAt
	}
	if in.EndedAt != nil {
		ended = in.EndedAt
		updates["ended_at"] = *in.EndedAt
	}
	if err := checkMeetingWindow(started, ended); err != nil {
		return nil, err
	}
	if in.OrganizerID != nil {
		if err := s.checkOrganizer(dbc, in.OrganizerID); err != nil {
			return nil, err
		}
		updates["organizer_id"] = *in.OrganizerID
	}

	m, err := s.meetingRepo.UpdateWithVersion(dbc, id, in.Version, updates)
	if err != nil {
		return nil, versionError("meeting", err)
	}
	if m == nil {
		return nil, apierr.NotFound("meeting")
	}
	return m, nil
}

// Delete removes the meeting row (assets and artefacts cascade) and then the
// stored objects. Object cleanup failures are logged, not returned: the rows
// are already gone.
func (s *meetingService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if err := requireID("meeting_id", id); err != nil {
		return err
	}
	var keys []string
	err := s.inTx(dbc, func(inner dbctx.Context) error {
		m, err := s.meetingRepo.GetByID(inner, id)
		if err != nil {
			return fmt.Errorf("load meeting: %w", err)
		}
		if m == nil {
			return apierr.NotFound("meeting")
		}
		assets, err := s.assetRepo.GetByMeetingID(inner, id)
		if err != nil {
			return fmt.Errorf("load assets: %w", err)
		}
		for _, a := range assets {
			if a != nil && a.StorageKey != "" {
				keys = append(keys, a.StorageKey)
			}
		}
		return s.meetingRepo.FullDeleteByID(inner, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("meeting deleted", "meeting_id", id, "objects", len(keys))
	s.cleanupObjects(dbc, keys)
	return nil
}

func (s *meetingService) cleanupObjects(dbc dbctx.Context, keys []string) {
	if s.bucket == nil || len(keys) == 0 {
		return
	}
	ctx := dbctx.Context{Ctx: persistCtx(dbc).Ctx}
	var g errgroup.Group
	g.SetLimit(cleanupWorkers)
	for _, key := range keys {
		g.Go(func() error {
			if err := s.bucket.DeleteFile(ctx, key); err != nil && !errors.Is(err, gcp.ErrObjectNotFound) {
				s.log.Warn("delete stored object failed", "key", key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *meetingService) inTx(dbc dbctx.Context, fn func(dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

func (s *meetingService) checkOrganizer(dbc dbctx.Context, id *uuid.UUID) error {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	e, err := s.employeeRepo.GetByID(dbc, *id)
	if err != nil {
		return fmt.Errorf("load organizer: %w", err)
	}
	if e == nil {
		return apierr.Invalid("invalid_organizer", fmt.Errorf("organizer %s does not exist", id))
	}
	return nil
}

func meetingTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apierr.Invalid("invalid_title", errors.New("title is required"))
	}
	if len([]rune(title)) > maxMeetingTitle {
		return "", apierr.Invalid("invalid_title", fmt.Errorf("title exceeds %d characters", maxMeetingTitle))
	}
	return title, nil
}

func checkMeetingWindow(started, ended *time.Time) error {
	if started != nil && ended != nil && ended.Before(*started) {
		return apierr.Invalid("invalid_time_range", errors.New("ended_at must not be before started_at"))
	}
	return nil
}
