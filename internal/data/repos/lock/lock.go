// Package lock implements optimistic version locking shared by the
// versioned repositories.
package lock

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrVersionConflict means the row changed since the caller read it.
var ErrVersionConflict = errors.New("version conflict")

// UpdateWithVersion applies updates only if the row is still at expected,
// and bumps version. found=false means no row has that id.
func UpdateWithVersion(t *gorm.DB, model any, id uuid.UUID, expected int, updates map[string]interface{}) (found bool, err error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	delete(updates, "id")
	updates["version"] = gorm.Expr("version + 1")
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := t.Model(model).Where("id = ? AND version = ?", id, expected).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var n int64
	if err := t.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return true, ErrVersionConflict
}
