// Package domain re-exports the persisted models so callers import one
// package.
package domain

import (
	"github.com/yungbote/meetingdesk-backend/internal/domain/employees"
	"github.com/yungbote/meetingdesk-backend/internal/domain/meetings"
)

type (
	Meeting  = meetings.Meeting
	Asset    = meetings.Asset
	Artefact = meetings.Artefact
	Employee = employees.Employee
)

const (
	AssetKindAudio    = meetings.AssetKindAudio
	AssetKindVideo    = meetings.AssetKindVideo
	AssetKindDocument = meetings.AssetKindDocument

	ArtefactTypeTranscription = meetings.ArtefactTypeTranscription
	ArtefactTypeDiarisation   = meetings.ArtefactTypeDiarisation

	ArtefactStatusQueued     = meetings.ArtefactStatusQueued
	ArtefactStatusProcessing = meetings.ArtefactStatusProcessing
	ArtefactStatusDone       = meetings.ArtefactStatusDone
	ArtefactStatusError      = meetings.ArtefactStatusError
)

var (
	AssetKindForMime = meetings.AssetKindForMime
	EncodeResult     = meetings.EncodeResult
)
