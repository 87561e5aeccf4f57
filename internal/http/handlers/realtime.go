package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/meetingdesk-backend/internal/http/response"
	"github.com/yungbote/meetingdesk-backend/internal/platform/ctxutil"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{Log: log.With("handler", "RealtimeHandler"), Hub: hub}
}

// GET /artefacts/events?meeting_id=
// Streams artefact status changes for one meeting, or for all meetings when
// meeting_id is omitted.
func (h *RealtimeHandler) ArtefactEvents(c *gin.Context) {
	channel := realtime.AllChannel
	if raw := strings.TrimSpace(c.Query("meeting_id")); raw != "" {
		meetingID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid_meeting_id", errors.New("meeting_id must be a uuid"))
			return
		}
		channel = realtime.MeetingChannel(meetingID)
	}

	subject := ""
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		subject = rd.Subject
	}
	client := h.Hub.NewClient(subject)
	h.Hub.AddChannel(client, channel)
	h.Log.Debug("SSE stream open", "clientID", client.ID, "channel", channel)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.Hub.CloseClient(client)
}
