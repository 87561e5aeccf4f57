package meetings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos/lock"
	"github.com/yungbote/meetingdesk-backend/internal/data/repos/testutil"
	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
)

func TestMeetingRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewMeetingRepo(db, testutil.Logger(t))

	m, err := repo.Create(dbc, &types.Meeting{Title: "Quarterly review"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.ID == uuid.Nil || m.Version != 1 {
		t.Fatalf("Create: id=%s version=%d", m.ID, m.Version)
	}
	if _, err := repo.Create(dbc, &types.Meeting{Title: "Standup"}); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	if got, err := repo.GetByID(dbc, m.ID); err != nil || got == nil || got.Title != "Quarterly review" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID missing: got=%v err=%v", got, err)
	}
	if got, err := repo.List(dbc, ListOptions{}); err != nil || len(got) != 2 {
		t.Fatalf("List: len=%d err=%v", len(got), err)
	}
	if got, err := repo.List(dbc, ListOptions{Query: "QUARTER"}); err != nil || len(got) != 1 {
		t.Fatalf("List query: len=%d err=%v", len(got), err)
	}

	updated, err := repo.UpdateWithVersion(dbc, m.ID, 1, map[string]interface{}{"title": "Q3 review"})
	if err != nil {
		t.Fatalf("UpdateWithVersion: %v", err)
	}
	if updated.Title != "Q3 review" || updated.Version != 2 {
		t.Fatalf("UpdateWithVersion: title=%q version=%d", updated.Title, updated.Version)
	}
	if _, err := repo.UpdateWithVersion(dbc, m.ID, 1, map[string]interface{}{"title": "stale"}); !errors.Is(err, lock.ErrVersionConflict) {
		t.Fatalf("stale update: want ErrVersionConflict, got %v", err)
	}
	if got, err := repo.UpdateWithVersion(dbc, uuid.New(), 1, map[string]interface{}{"title": "x"}); err != nil || got != nil {
		t.Fatalf("update missing: got=%v err=%v", got, err)
	}
}

func TestMeetingDeleteCascades(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	meetings := NewMeetingRepo(db, testutil.Logger(t))
	assets := NewAssetRepo(db, testutil.Logger(t))
	artefacts := NewArtefactRepo(db, testutil.Logger(t))

	m := testutil.SeedMeeting(t, ctx, tx, "cascade")
	a := testutil.SeedAsset(t, ctx, tx, m.ID, types.AssetKindAudio)
	testutil.SeedArtefact(t, ctx, tx, a.ID, 1, types.ArtefactStatusDone)
	testutil.SeedArtefact(t, ctx, tx, a.ID, 2, types.ArtefactStatusError)

	if got, err := artefacts.GetByMeetingID(dbc, m.ID); err != nil || len(got) != 2 {
		t.Fatalf("GetByMeetingID before delete: len=%d err=%v", len(got), err)
	}
	if err := meetings.FullDeleteByID(dbc, m.ID); err != nil {
		t.Fatalf("FullDeleteByID: %v", err)
	}
	if got, err := assets.GetByMeetingID(dbc, m.ID); err != nil || len(got) != 0 {
		t.Fatalf("assets after delete: len=%d err=%v", len(got), err)
	}
	if got, err := artefacts.GetByAssetID(dbc, a.ID); err != nil || len(got) != 0 {
		t.Fatalf("artefacts after delete: len=%d err=%v", len(got), err)
	}
}
