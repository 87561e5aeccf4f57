// Package realtime fans artefact status changes out to connected browsers.
package realtime

import (
	"time"

	"github.com/google/uuid"
)

const EventArtefactStatus = "artefact_status"

// AllChannel receives every event regardless of meeting.
const AllChannel = "*"

// ArtefactEvent is published on every artefact lifecycle transition.
type ArtefactEvent struct {
	ArtefactID uuid.UUID `json:"artefact_id"`
	AssetID    uuid.UUID `json:"asset_id"`
	MeetingID  uuid.UUID `json:"meeting_id"`
	Type       string    `json:"type"`
	Version    int       `json:"version"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Channel is the per-meeting subscription key.
func (e ArtefactEvent) Channel() string {
	return MeetingChannel(e.MeetingID)
}

func MeetingChannel(meetingID uuid.UUID) string {
	return "meeting:" + meetingID.String()
}
