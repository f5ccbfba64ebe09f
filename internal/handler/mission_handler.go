package handler

import (
	"net/http"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/internal/workflow"
	"hrbackend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MissionHandler struct {
	endpoints requestEndpoints
	auth      *middleware.Auth
}

func NewMissionHandler(requests service.RequestService, approvals service.ApprovalService, reports service.ReportService, auth *middleware.Auth) *MissionHandler {
	return &MissionHandler{
		endpoints: requestEndpoints{kind: workflow.KindMission, requests: requests, approvals: approvals, reports: reports},
		auth:      auth,
	}
}

func (h *MissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := h.auth.RequireRole()
	approvers := h.auth.RequireRole(workflow.RoleHR, workflow.RoleAdmin)

	missions := router.Group("/api/missions")
	{
		missions.GET("", staff, h.ListMissions)
		missions.POST("", staff, h.CreateMission)
		missions.GET("/has-pending/:workerId", staff, h.HasPendingMission)
		missions.GET("/:id", staff, h.GetMission)
		missions.DELETE("/:id", staff, h.DeleteMission)
		missions.PUT("/:id/hr-decision", approvers, h.DecideMission)
		missions.PUT("/:id/admin-decision", approvers, h.DecideMission)
		missions.GET("/:id/pdf", staff, h.endpoints.certificate)
	}
}

// CreateMission handles POST /api/missions
// @Summary      Submit a mission order
// @Description  Creates one mission request covering every listed worker.
// @Tags         missions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateMissionRequest  true  "Mission"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/missions [post]
func (h *MissionHandler) CreateMission(c *gin.Context) {
	var req service.CreateMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.endpoints.requests.CreateMission(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// ListMissions handles GET /api/missions
// @Summary      List mission requests
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        status     query  string  false  "Status filter"
// @Param        worker_id  query  string  false  "Worker filter"
// @Param        page       query  int     false  "Page number"
// @Param        limit      query  int     false  "Items per page"
// @Success      200  {object}  pagination.Page{data=[]service.RequestResponse}
// @Router       /api/missions [get]
func (h *MissionHandler) ListMissions(c *gin.Context) {
	h.endpoints.list(c)
}

// GetMission handles GET /api/missions/:id
// @Summary      Get a mission request
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/missions/{id} [get]
func (h *MissionHandler) GetMission(c *gin.Context) {
	h.endpoints.get(c)
}

// DeleteMission handles DELETE /api/missions/:id
// @Summary      Withdraw a mission request
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/missions/{id} [delete]
func (h *MissionHandler) DeleteMission(c *gin.Context) {
	h.endpoints.delete(c)
}

// DecideMission handles PUT /api/missions/:id/hr-decision and /admin-decision
// @Summary      Decide on a mission request
// @Tags         missions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                   true  "Request ID"
// @Param        payload  body  handler.DecisionPayload  true  "Decision"
// @Success      200  {object}  response.Response{data=service.RequestResponse}
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/missions/{id}/hr-decision [put]
// @Router       /api/missions/{id}/admin-decision [put]
func (h *MissionHandler) DecideMission(c *gin.Context) {
	h.endpoints.decide(c)
}

// HasPendingMission handles GET /api/missions/has-pending/:workerId
// @Summary      Check for a pending mission
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        workerId  path  string  true  "Worker ID"
// @Success      200  {object}  response.Response{data=handler.HasPendingResponse}
// @Router       /api/missions/has-pending/{workerId} [get]
func (h *MissionHandler) HasPendingMission(c *gin.Context) {
	h.endpoints.hasPending(c)
}
