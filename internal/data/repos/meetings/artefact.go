package meetings

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

type ArtefactRepo interface {
	Create(dbc dbctx.Context, row *types.Artefact) (*types.Artefact, error)
	// CreateNextVersion inserts row at LatestVersion(asset, type)+1.
	CreateNextVersion(dbc dbctx.Context, row *types.Artefact) (*types.Artefact, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Artefact, error)
	GetByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.Artefact, error)
	GetByMeetingID(dbc dbctx.Context, meetingID uuid.UUID) ([]*types.Artefact, error)
	LatestVersion(dbc dbctx.Context, assetID uuid.UUID, artefactType string) (int, error)
	// ListByStatus returns the oldest rows first.
	ListByStatus(dbc dbctx.Context, statuses []string, limit int) ([]*types.Artefact, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type artefactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtefactRepo(db *gorm.DB, baseLog *logger.Logger) ArtefactRepo {
	return &artefactRepo{db: db, log: baseLog.With("repo", "ArtefactRepo")}
}

func (r *artefactRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *artefactRepo) Create(dbc dbctx.Context, row *types.Artefact) (*types.Artefact, error) {
	if row == nil {
		return nil, nil
	}
	if err := r.tx(dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Two concurrent requests can read the same latest version; the unique
// (asset_id, type, version) index rejects the loser, which re-reads.
func (r *artefactRepo) CreateNextVersion(dbc dbctx.Context, row *types.Artefact) (*types.Artefact, error) {
	if row == nil {
		return nil, nil
	}
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		latest, err := r.LatestVersion(dbc, row.AssetID, row.Type)
		if err != nil {
			return nil, err
		}
		row.ID = uuid.Nil
		row.Version = latest + 1
		out, err := r.Create(dbc, row)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || dbc.Tx != nil {
			return nil, err
		}
		lastErr = err
		r.log.Warn("artefact version collision; retrying", "asset_id", row.AssetID, "type", row.Type, "version", row.Version)
	}
	return nil, fmt.Errorf("create artefact version: %w", lastErr)
}

func (r *artefactRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Artefact, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Artefact
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *artefactRepo) GetByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.Artefact, error) {
	var out []*types.Artefact
	if assetID == uuid.Nil {
		return out, nil
	}
	if err := r.tx(dbc).
		Where("asset_id = ?", assetID).
		Order("type ASC, version DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *artefactRepo) GetByMeetingID(dbc dbctx.Context, meetingID uuid.UUID) ([]*types.Artefact, error) {
	var out []*types.Artefact
	if meetingID == uuid.Nil {
		return out, nil
	}
	if err := r.tx(dbc).
		Joins("JOIN asset ON asset.id = artefact.asset_id").
		Where("asset.meeting_id = ?", meetingID).
		Order("artefact.created_at DESC, artefact.version DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *artefactRepo) LatestVersion(dbc dbctx.Context, assetID uuid.UUID, artefactType string) (int, error) {
	var latest int
	if err := r.tx(dbc).
		Model(&types.Artefact{}).
		Where("asset_id = ? AND type = ?", assetID, artefactType).
		Select("COALESCE(MAX(version), 0)").
		Scan(&latest).Error; err != nil {
		return 0, err
	}
	return latest, nil
}

func (r *artefactRepo) ListByStatus(dbc dbctx.Context, statuses []string, limit int) ([]*types.Artefact, error) {
	var out []*types.Artefact
	if len(statuses) == 0 {
		return out, nil
	}
	q := r.tx(dbc).Where("status IN ?", statuses).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *artefactRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.tx(dbc).
		Model(&types.Artefact{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *artefactRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).Where("id IN ?", ids).Delete(&types.Artefact{}).Error
}
