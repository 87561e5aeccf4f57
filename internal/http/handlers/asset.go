package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/meetingdesk-backend/internal/http/response"
	"github.com/yungbote/meetingdesk-backend/internal/services"
)

type AssetHandler struct {
	assetService services.AssetService
}

func NewAssetHandler(assetService services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// POST /meetings/:id/assets
// body: { "file_name": "...", "content_type": "...", "size_bytes": 123 }
// The client PUTs the file to upload_url, then calls POST /assets/:id/uploaded.
func (ah *AssetHandler) RequestUpload(c *gin.Context) {
	meetingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.RequestUploadInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return
	}
	ticket, err := ah.assetService.RequestUpload(dbcOf(c), meetingID, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, ticket)
}

// POST /assets/:id/uploaded
func (ah *AssetHandler) MarkUploaded(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	a, err := ah.assetService.MarkUploaded(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, a)
}

// GET /meetings/:id/assets
func (ah *AssetHandler) ListByMeeting(c *gin.Context) {
	meetingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	views, err := ah.assetService.ListByMeeting(dbcOf(c), meetingID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, views)
}

// GET /assets/:id/url
func (ah *AssetHandler) ReadURL(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	u, err := ah.assetService.GetReadURL(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, u)
}

// DELETE /assets/:id
func (ah *AssetHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ah.assetService.Delete(dbcOf(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": id})
}
