package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/meetingdesk-backend/internal/domain"
)

func SeedMeeting(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Meeting {
	tb.Helper()
	m := &types.Meeting{
		ID:      uuid.New(),
		Title:   title,
		Version: 1,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed meeting: %v", err)
	}
	return m
}

func SeedAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, meetingID uuid.UUID, kind string) *types.Asset {
	tb.Helper()
	id := uuid.New()
	a := &types.Asset{
		ID:           id,
		MeetingID:    meetingID,
		Kind:         kind,
		OriginalName: "recording.wav",
		MimeType:     "audio/wav",
		StorageKey:   fmt.Sprintf("meetings/%s/assets/%s/recording.wav", meetingID, id),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed asset: %v", err)
	}
	return a
}

func SeedArtefact(tb testing.TB, ctx context.Context, tx *gorm.DB, assetID uuid.UUID, version int, status string) *types.Artefact {
	tb.Helper()
	a := &types.Artefact{
		ID:       uuid.New(),
		AssetID:  assetID,
		Type:     types.ArtefactTypeTranscription,
		Version:  version,
		Provider: "assemblyai",
		Language: "en",
		Status:   status,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed artefact: %v", err)
	}
	return a
}

func SeedEmployee(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Employee {
	tb.Helper()
	e := &types.Employee{
		ID:        uuid.New(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Version:   1,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed employee: %v", err)
	}
	return e
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
