package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/http/response"
	"github.com/yungbote/meetingdesk-backend/internal/services"
	"github.com/yungbote/meetingdesk-backend/internal/transcript"
)

type ArtefactHandler struct {
	transcriptionService services.TranscriptionService
}

func NewArtefactHandler(transcriptionService services.TranscriptionService) *ArtefactHandler {
	return &ArtefactHandler{transcriptionService: transcriptionService}
}

// respondArtefact answers 202 while the provider round trip is still running.
func respondArtefact(c *gin.Context, a *types.Artefact) {
	if a != nil && !a.Terminal() {
		response.RespondAccepted(c, a)
		return
	}
	response.RespondOK(c, a)
}

// POST /transcriptions
// body: { "asset_id": "...", "language": "en", "provider": "assemblyai" }
func (h *ArtefactHandler) CreateTranscription(c *gin.Context) {
	var req services.CreateTranscriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return
	}
	a, err := h.transcriptionService.CreateTranscription(dbcOf(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	respondArtefact(c, a)
}

// GET /transcriptions/providers
func (h *ArtefactHandler) Providers(c *gin.Context) {
	response.RespondOK(c, gin.H{"providers": h.transcriptionService.Providers()})
}

// GET /meetings/:id/artefacts
func (h *ArtefactHandler) ListByMeeting(c *gin.Context) {
	meetingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	list, err := h.transcriptionService.GetArtefactsByMeetingID(dbcOf(c), meetingID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /artefacts/:id/transcription
func (h *ArtefactHandler) GetTranscription(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	data, err := h.transcriptionService.GetTranscriptionData(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, data)
}

// PUT /artefacts/:id/transcription
// body: { "result": { "segments": [...] }, "summary": "..." }
func (h *ArtefactHandler) SaveTranscription(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.SaveTranscriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return
	}
	req.ArtefactID = id
	data, err := h.transcriptionService.SaveTranscription(dbcOf(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, data)
}

// POST /artefacts/:id/segments
// Returns segments built from the stored payload without saving them.
func (h *ArtefactHandler) BuildSegments(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.transcriptionService.BuildSegments(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /artefacts/:id/retry
func (h *ArtefactHandler) Retry(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	a, err := h.transcriptionService.RetryTranscription(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	respondArtefact(c, a)
}

// POST /artefacts/:id/refresh
func (h *ArtefactHandler) Refresh(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	a, err := h.transcriptionService.RefreshTranscription(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	respondArtefact(c, a)
}

// POST /artefacts/:id/summary
func (h *ArtefactHandler) Summarize(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.transcriptionService.SummarizeTranscription(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}

// GET /artefacts/:id/download?part=payload|result|summary
func (h *ArtefactHandler) Download(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	part, err := transcript.ParseExportPart(c.DefaultQuery("part", string(transcript.ExportResult)))
	if err != nil {
		response.BadRequest(c, "invalid_part", err)
		return
	}
	body, filename, err := h.transcriptionService.ExportArtefact(dbcOf(c), id, part)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// DELETE /artefacts/:id
func (h *ArtefactHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.transcriptionService.DeleteArtefact(dbcOf(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": id})
}
