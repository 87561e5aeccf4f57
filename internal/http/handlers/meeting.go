package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	"github.com/yungbote/meetingdesk-backend/internal/http/response"
	"github.com/yungbote/meetingdesk-backend/internal/services"
)

type MeetingHandler struct {
	meetingService services.MeetingService
}

func NewMeetingHandler(meetingService services.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService}
}

// POST /meetings
func (mh *MeetingHandler) Create(c *gin.Context) {
	var req services.MeetingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return
	}
	m, err := mh.meetingService.Create(dbcOf(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, m)
}

// GET /meetings?q=&limit=&offset=
func (mh *MeetingHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := mh.meetingService.List(dbcOf(c), repos.MeetingListOptions{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /meetings/:id
func (mh *MeetingHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	m, err := mh.meetingService.Get(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}

// PUT /meetings/:id
// body carries the version the client last read.
func (mh *MeetingHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateMeetingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return
	}
	m, err := mh.meetingService.Update(dbcOf(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}

// DELETE /meetings/:id
func (mh *MeetingHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := mh.meetingService.Delete(dbcOf(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": id})
}
