// Command refresh_transcriptions polls the provider once for every artefact
// left queued or processing, e.g. after the server restarted mid-job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/meetingdesk-backend/internal/app"
	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
)

func main() {
	os.Exit(run())
}

func run() int {
	var dryRun bool
	var limit int
	flag.BoolVar(&dryRun, "dry-run", false, "list pending artefacts without polling")
	flag.IntVar(&limit, "limit", 0, "limit number of artefacts processed")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		return 1
	}
	defer application.Close()

	dbc := dbctx.Context{Ctx: context.Background()}
	rows, err := application.Repos.Artefact.ListByStatus(dbc, []string{
		types.ArtefactStatusQueued,
		types.ArtefactStatusProcessing,
	}, limit)
	if err != nil {
		fmt.Printf("list pending artefacts: %v\n", err)
		return 1
	}
	if len(rows) == 0 {
		fmt.Println("no pending artefacts")
		return 0
	}

	var finished, errored, pending, failed int
	for _, row := range rows {
		if dryRun {
			fmt.Printf("pending artefact=%s asset=%s v%d status=%s job=%s\n", row.ID, row.AssetID, row.Version, row.Status, row.ProviderJobID)
			continue
		}
		out, err := application.Services.Transcription.RefreshTranscription(dbc, row.ID)
		if err != nil {
			// A job the provider reported as failed is recorded before the
			// error comes back, so count it by what was stored.
			stored, gerr := application.Repos.Artefact.GetByID(dbc, row.ID)
			if gerr != nil || stored == nil || !stored.Terminal() {
				failed++
				fmt.Printf("refresh artefact=%s: %v\n", row.ID, err)
				continue
			}
			out = stored
		}
		switch {
		case out.Status == types.ArtefactStatusDone:
			finished++
		case out.Terminal():
			errored++
		default:
			pending++
		}
		fmt.Printf("artefact=%s status=%s\n", out.ID, out.Status)
	}
	if !dryRun {
		fmt.Printf("finished=%d errored=%d still_pending=%d failed=%d\n", finished, errored, pending, failed)
	}
	return 0
}
