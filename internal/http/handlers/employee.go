package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	"github.com/yungbote/meetingdesk-backend/internal/http/response"
	"github.com/yungbote/meetingdesk-backend/internal/services"
)

type EmployeeHandler struct {
	employeeService services.EmployeeService
}

func NewEmployeeHandler(employeeService services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

func (eh *EmployeeHandler) Create(c *gin.Context) {
	var req services.EmployeeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return
	}
	e, err := eh.employeeService.Create(dbcOf(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, e)
}

// GET /employees?q=&department=&limit=&offset=
func (eh *EmployeeHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	list, err := eh.employeeService.List(dbcOf(c), repos.EmployeeListOptions{
		Query:      strings.TrimSpace(c.Query("q")),
		Department: strings.TrimSpace(c.Query("department")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, list)
}

func (eh *EmployeeHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	e, err := eh.employeeService.Get(dbcOf(c), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, e)
}

func (eh *EmployeeHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateEmployeeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return
	}
	e, err := eh.employeeService.Update(dbcOf(c), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, e)
}

func (eh *EmployeeHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := eh.employeeService.Delete(dbcOf(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": id})
}
