package handler

import (
	"errors"
	"io"
	"net/http"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/internal/workflow"
	"hrbackend/pkg/response"

	"github.com/gin-gonic/gin"
)

type LeaveHandler struct {
	endpoints requestEndpoints
	auth      *middleware.Auth
}

func NewLeaveHandler(requests service.RequestService, approvals service.ApprovalService, reports service.ReportService, auth *middleware.Auth) *LeaveHandler {
	return &LeaveHandler{
		endpoints: requestEndpoints{kind: workflow.KindLeave, requests: requests, approvals: approvals, reports: reports},
		auth:      auth,
	}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *LeaveHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := h.auth.RequireRole()
	approvers := h.auth.RequireRole(workflow.RoleHR, workflow.RoleAdmin)

	leaves := router.Group("/api/leaves")
	{
		leaves.GET("", staff, h.ListLeaves)
		leaves.POST("", staff, h.CreateLeave)
		leaves.GET("/has-pending/:workerId", staff, h.HasPendingLeave)
		leaves.GET("/:id", staff, h.GetLeave)
		leaves.DELETE("/:id", staff, h.DeleteLeave)
		leaves.PUT("/:id/hr-decision", approvers, h.DecideLeave)
		leaves.PUT("/:id/admin-decision", approvers, h.DecideLeave)
		leaves.GET("/:id/attachment", staff, h.DownloadAttachment)
		leaves.GET("/:id/pdf", staff, h.LeaveCertificate)
	}
}

// CreateLeave handles POST /api/leaves
// @Summary      Submit a leave request
// @Description  Creates a leave request for a worker identified by id or CIN. Accepts multipart/form-data with an optional attachment, or JSON.
// @Tags         leaves
// @Accept       mpfd
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        worker_id   formData  string  false  "Worker ID"
// @Param        worker_cin  formData  string  false  "Worker CIN"
// @Param        leave_type  formData  string  true   "ANNUAL, SICK, MATERNITY, PATERNITY or SPECIAL"
// @Param        start_date  formData  string  true   "Start date (YYYY-MM-DD)"
// @Param        end_date    formData  string  true   "End date (YYYY-MM-DD)"
// @Param        reason      formData  string  false  "Reason"
// @Param        attachment  formData  file    false  "Supporting document"
// @Success      201  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/leaves [post]
func (h *LeaveHandler) CreateLeave(c *gin.Context) {
	var req service.CreateLeaveRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var att *service.Attachment
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("attachment")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			badRequest(c, "Malformed multipart body: "+err.Error())
			return
		default:
			f, err := fh.Open()
			if err != nil {
				badRequest(c, "Unreadable attachment: "+err.Error())
				return
			}
			defer f.Close()
			att = &service.Attachment{FileName: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Body: f}
		}
	}

	res, err := h.endpoints.requests.CreateLeave(c.Request.Context(), currentUser(c), req, att)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListLeaves handles GET /api/leaves
// @Summary      List leave requests
// @Tags         leaves
// @Produce      json
// @Security     BearerAuth
// @Param        status      query  string  false  "Status filter"
// @Param        leave_type  query  string  false  "Leave type filter"
// @Param        worker_id   query  string  false  "Worker filter"
// @Param        page        query  int     false  "Page number"
// @Param        limit       query  int     false  "Items per page"
// @Success      200  {object}  pagination.Page{data=[]service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/leaves [get]
func (h *LeaveHandler) ListLeaves(c *gin.Context) {
	h.endpoints.list(c)
}

// GetLeave handles GET /api/leaves/:id
// @Summary      Get a leave request
// @Tags         leaves
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/leaves/{id} [get]
func (h *LeaveHandler) GetLeave(c *gin.Context) {
	h.endpoints.get(c)
}

// DeleteLeave handles DELETE /api/leaves/:id
// @Summary      Withdraw a leave request
// @Description  Only allowed before HR has decided.
// @Tags         leaves
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/leaves/{id} [delete]
func (h *LeaveHandler) DeleteLeave(c *gin.Context) {
	h.endpoints.delete(c)
}

// DecideLeave handles PUT /api/leaves/:id/hr-decision and /admin-decision
// @Summary      Decide on a leave request
// @Description  Records the caller's decision. The stage is derived from the caller's role.
// @Tags         leaves
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                   true  "Request ID"
// @Param        payload  body  handler.DecisionPayload  true  "Decision"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/leaves/{id}/hr-decision [put]
// @Router       /api/leaves/{id}/admin-decision [put]
func (h *LeaveHandler) DecideLeave(c *gin.Context) {
	h.endpoints.decide(c)
}

// HasPendingLeave handles GET /api/leaves/has-pending/:workerId
// @Summary      Check for a pending leave request
// @Tags         leaves
// @Produce      json
// @Security     BearerAuth
// @Param        workerId  path  string  true  "Worker ID"
// @Success      200  {object}  response.Response{data=handler.HasPendingResponse}
// @Router       /api/leaves/has-pending/{workerId} [get]
func (h *LeaveHandler) HasPendingLeave(c *gin.Context) {
	h.endpoints.hasPending(c)
}

// DownloadAttachment handles GET /api/leaves/:id/attachment
// @Summary      Download the leave attachment
// @Tags         leaves
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path  string  true  "Request ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/leaves/{id}/attachment [get]
func (h *LeaveHandler) DownloadAttachment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	streamFile(c, func() (io.ReadCloser, string, error) {
		return h.endpoints.requests.OpenAttachment(c.Request.Context(), id)
	})
}

// LeaveCertificate handles GET /api/leaves/:id/pdf
// @Summary      Download the decision certificate
// @Tags         leaves
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  string  true  "Request ID"
// @Success      200  {file}    file
// @Failure      409  {object}  response.Response
// @Router       /api/leaves/{id}/pdf [get]
func (h *LeaveHandler) LeaveCertificate(c *gin.Context) {
	h.endpoints.certificate(c)
}
