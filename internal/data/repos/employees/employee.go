package employees

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
	Query      string
	Department string
	Limit      int
	Offset     int
}

type EmployeeRepo interface {
	Create(dbc dbctx.Context, row *types.Employee) (*types.Employee, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Employee, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Employee, error)
	List(dbc dbctx.Context, opts ListOptions) ([]*types.Employee, error)
	UpdateWithVersion(dbc dbctx.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (*types.Employee, error)
	SoftDeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type employeeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployeeRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeRepo {
	return &employeeRepo{db: db, log: baseLog.With("repo", "EmployeeRepo")}
}

func (r *employeeRepo) Create(dbc dbctx.Context, row *types.Employee) (*types.Employee, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, nil
	}
	row.Version = 1
	row.Email = strings.ToLower(strings.TrimSpace(row.Email))
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *employeeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Employee, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Employee
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *employeeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Employee, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *employeeRepo) List(dbc dbctx.Context, opts ListOptions) ([]*types.Employee, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Employee{})
	if s := strings.ToLower(strings.TrimSpace(opts.Query)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	if d := strings.TrimSpace(opts.Department); d != "" {
		q = q.Where("department = ?", d)
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*types.Employee
	if err := q.Order("last_name ASC, first_name ASC").Limit(limit).Offset(max(opts.Offset, 0)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *employeeRepo) UpdateWithVersion(dbc dbctx.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (*types.Employee, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	if e, ok := updates["email"].(string); ok {
		updates["email"] = strings.ToLower(strings.TrimSpace(e))
	}
	found, err := lock.UpdateWithVersion(t.WithContext(dbc.Ctx), &types.Employee{}, id, expectedVersion, updates)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return r.GetByID(dbc, id)
}

func (r *employeeRepo) SoftDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.Employee{}).Error
}
