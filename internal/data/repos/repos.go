// Package repos gathers the repository constructors and shared errors.
package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos/employees"
	"github.com/yungbote/meetingdesk-backend/internal/data/repos/lock"
	"github.com/yungbote/meetingdesk-backend/internal/data/repos/meetings"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

var ErrVersionConflict = lock.ErrVersionConflict

type MeetingRepo = meetings.MeetingRepo
type AssetRepo = meetings.AssetRepo
type ArtefactRepo = meetings.ArtefactRepo
type EmployeeRepo = employees.EmployeeRepo

type MeetingListOptions = meetings.ListOptions
type EmployeeListOptions = employees.ListOptions

func NewMeetingRepo(db *gorm.DB, baseLog *logger.Logger) MeetingRepo {
	return meetings.NewMeetingRepo(db, baseLog)
}
func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return meetings.NewAssetRepo(db, baseLog)
}
func NewArtefactRepo(db *gorm.DB, baseLog *logger.Logger) ArtefactRepo {
	return meetings.NewArtefactRepo(db, baseLog)
}
func NewEmployeeRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeRepo {
	return employees.NewEmployeeRepo(db, baseLog)
}
