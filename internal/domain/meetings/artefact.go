package meetings

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

const (
	ArtefactTypeTranscription = "transcription"
	ArtefactTypeDiarisation   = "diarisation"
)

// Lifecycle: queued -> processing -> done | error. A retry is a new row.
const (
	ArtefactStatusQueued     = "queued"
	ArtefactStatusProcessing = "processing"
	ArtefactStatusDone       = "done"
	ArtefactStatusError      = "error"
)

type Artefact struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_artefact_asset_type_version,unique,priority:1;index" json:"asset_id"`
	Type          string         `gorm:"column:type;not null;index:idx_artefact_asset_type_version,unique,priority:2" json:"type"`
	Version       int            `gorm:"column:version;not null;index:idx_artefact_asset_type_version,unique,priority:3" json:"version"`
	Provider      string         `gorm:"column:provider;not null" json:"provider"`
	Language      string         `gorm:"column:language" json:"language,omitempty"`
	Status        string         `gorm:"column:status;not null;index" json:"status"`
	ProviderJobID string         `gorm:"column:provider_job_id;index" json:"provider_job_id,omitempty"`
	Payload       datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	Result        datatypes.JSON `gorm:"column:result" json:"result,omitempty"`
	Summary       string         `gorm:"column:summary;type:text" json:"summary,omitempty"`
	Error         string         `gorm:"column:error;type:text" json:"error,omitempty"`
	CompletedAt   *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Artefact) TableName() string { return "artefact" }

func (a *Artefact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	return nil
}

func (a *Artefact) Terminal() bool {
	return a != nil && (a.Status == ArtefactStatusDone || a.Status == ArtefactStatusError)
}

// DecodeResult returns the stored editable result. An artefact that has not
// been built or saved yet yields an empty result.
func (a *Artefact) DecodeResult() (transcript.Result, error) {
	res := transcript.Result{Segments: []transcript.Segment{}}
	if a == nil || len(a.Result) == 0 || string(a.Result) == "null" {
		return res, nil
	}
	if err := json.Unmarshal(a.Result, &res); err != nil {
		return transcript.Result{}, err
	}
	if res.Segments == nil {
		res.Segments = []transcript.Segment{}
	}
	return res, nil
}

func EncodeResult(res transcript.Result) (datatypes.JSON, error) {
	if res.Segments == nil {
		res.Segments = []transcript.Segment{}
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
