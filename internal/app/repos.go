package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

type Repos struct {
	Meeting  repos.MeetingRepo
	Asset    repos.AssetRepo
	Artefact repos.ArtefactRepo
	Employee repos.EmployeeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Meeting:  repos.NewMeetingRepo(db, log),
		Asset:    repos.NewAssetRepo(db, log),
		Artefact: repos.NewArtefactRepo(db, log),
		Employee: repos.NewEmployeeRepo(db, log),
	}
}
