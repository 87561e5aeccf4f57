package meetings

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos/lock"
	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

type ListOptions struct {
	Query  string
	Limit  int
	Offset int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 || o.Limit > 500 {
		return 100
	}
	return o.Limit
}

type MeetingRepo interface {
	Create(dbc dbctx.Context, row *types.Meeting) (*types.Meeting, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Meeting, error)
	List(dbc dbctx.Context, opts ListOptions) ([]*types.Meeting, error)
	UpdateWithVersion(dbc dbctx.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (*types.Meeting, error)
	// FullDeleteByID removes the meeting; the foreign keys cascade to its
	// assets and their artefacts.
	FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type meetingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeetingRepo(db *gorm.DB, baseLog *logger.Logger) MeetingRepo {
	return &meetingRepo{db: db, log: baseLog.With("repo", "MeetingRepo")}
}

func (r *meetingRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *meetingRepo) Create(dbc dbctx.Context, row *types.Meeting) (*types.Meeting, error) {
	if row == nil {
		return nil, nil
	}
	row.Version = 1
	if err := r.tx(dbc).Omit("Assets").Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *meetingRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Meeting, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Meeting
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *meetingRepo) List(dbc dbctx.Context, opts ListOptions) ([]*types.Meeting, error) {
	q := r.tx(dbc).Model(&types.Meeting{})
	if s := strings.ToLower(strings.TrimSpace(opts.Query)); s != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+s+"%")
	}
	var out []*types.Meeting
	if err := q.Order("created_at DESC").Limit(opts.limit()).Offset(max(opts.Offset, 0)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *meetingRepo) UpdateWithVersion(dbc dbctx.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (*types.Meeting, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	found, err := lock.UpdateWithVersion(r.tx(dbc), &types.Meeting{}, id, expectedVersion, updates)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return r.GetByID(dbc, id)
}

func (r *meetingRepo) FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.tx(dbc).Where("id = ?", id).Delete(&types.Meeting{}).Error
}
