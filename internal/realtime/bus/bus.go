// Package bus carries artefact events between service instances.
package bus

import (
	"context"

	"github.com/yungbote/meetingdesk-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, ev realtime.ArtefactEvent) error
	// Subscribe registers onEvent until ctx is done.
	Subscribe(ctx context.Context, onEvent func(ev realtime.ArtefactEvent)) error
	Close() error
}
