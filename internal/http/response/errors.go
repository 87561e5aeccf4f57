package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errInternal = errors.New("internal server error")

func AbortUnauthorized(c *gin.Context, code string, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Success: false, Error: err.Error(), Code: code})
}

func BadRequest(c *gin.Context, code string, err error) {
	RespondError(c, http.StatusBadRequest, code, err)
}
