package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
)

// Envelope is the shape of every JSON action result.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: payload})
}

func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, Envelope{Success: true, Data: payload})
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, Envelope{Success: false, Error: msg, Code: code})
}

// RespondErr classifies err with apierr. Unclassified errors are 500s and
// their text is not shown to the caller.
func RespondErr(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	if status >= http.StatusInternalServerError && code == "internal_error" {
		_ = c.Error(err)
		RespondError(c, status, code, errInternal)
		return
	}
	RespondError(c, status, code, err)
}
