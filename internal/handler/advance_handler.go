package handler

import (
	"net/http"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/internal/workflow"
	"hrbackend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdvanceHandler struct {
	endpoints requestEndpoints
	auth      *middleware.Auth
}

func NewAdvanceHandler(requests service.RequestService, approvals service.ApprovalService, reports service.ReportService, auth *middleware.Auth) *AdvanceHandler {
	return &AdvanceHandler{
		endpoints: requestEndpoints{kind: workflow.KindAdvance, requests: requests, approvals: approvals, reports: reports},
		auth:      auth,
	}
}

func (h *AdvanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := h.auth.RequireRole()

	advances := router.Group("/api/advances")
	{
		advances.GET("", staff, h.ListAdvances)
		advances.POST("", staff, h.CreateAdvance)
		advances.GET("/has-pending/:workerId", staff, h.HasPendingAdvance)
		advances.GET("/:id", staff, h.GetAdvance)
		advances.DELETE("/:id", staff, h.DeleteAdvance)
		// HR reaches the engine, which answers IllegalTransition.
		advances.PUT("/:id/admin-response", h.auth.RequireRole(workflow.RoleHR, workflow.RoleAdmin), h.RespondAdvance)
		advances.GET("/:id/pdf", staff, h.endpoints.certificate)
	}
}

// CreateAdvance handles POST /api/advances
// @Summary      Request a salary advance
// @Description  Advances can only be requested up to the monthly cutoff day.
// @Tags         advances
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAdvanceRequest  true  "Advance"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/advances [post]
func (h *AdvanceHandler) CreateAdvance(c *gin.Context) {
	var req service.CreateAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.endpoints.requests.CreateAdvance(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListAdvances handles GET /api/advances
// @Summary      List advance requests
// @Tags         advances
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "Status filter"
// @Param        worker_id  query  string  false  "Worker filter"
// @Param        page       query  int     false  "Page number"
// @Param        limit      query  int     false  "Items per page"
// @Success      200  {object}  pagination.Page{data=[]service.RequestResponse}
// @Router       /api/advances [get]
func (h *AdvanceHandler) ListAdvances(c *gin.Context) {
	h.endpoints.list(c)
}

// GetAdvance handles GET /api/advances/:id
// @Summary      Get an advance request
// @Tags         advances
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/advances/{id} [get]
func (h *AdvanceHandler) GetAdvance(c *gin.Context) {
	h.endpoints.get(c)
}

// DeleteAdvance handles DELETE /api/advances/:id
// @Summary      Withdraw an advance request
// @Tags         advances
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/advances/{id} [delete]
func (h *AdvanceHandler) DeleteAdvance(c *gin.Context) {
	h.endpoints.delete(c)
}

// RespondAdvance handles PUT /api/advances/:id/admin-response
// @Summary      Answer an advance request
// @Description  The director approves (optionally granting less than requested) or rejects.
// @Tags         advances
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                   true  "Request ID"
// @Param        payload  body  handler.DecisionPayload  true  "Decision"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/advances/{id}/admin-response [put]
func (h *AdvanceHandler) RespondAdvance(c *gin.Context) {
	h.endpoints.decide(c)
}

// HasPendingAdvance handles GET /api/advances/has-pending/:workerId
// @Summary      Check for a pending advance
// @Tags         advances
// @Produce      json
// @Security     BearerAuth
// @Param        workerId  path  string  true  "Worker ID"
// @Success      200  {object}  response.Response{data=handler.HasPendingResponse}
// @Router       /api/advances/has-pending/{workerId} [get]
func (h *AdvanceHandler) HasPendingAdvance(c *gin.Context) {
	h.endpoints.hasPending(c)
}
