package handler

import (
	"io"
	"net/http"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/internal/workflow"
	"hrbackend/pkg/pagination"
	"hrbackend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkerHandler struct {
	workerService service.WorkerService
	auth          *middleware.Auth
}

func NewWorkerHandler(workerService service.WorkerService, auth *middleware.Auth) *WorkerHandler {
	return &WorkerHandler{workerService: workerService, auth: auth}
}

func (h *WorkerHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := h.auth.RequireRole()
	managers := h.auth.RequireRole(workflow.RoleHR, workflow.RoleAdmin)

	workers := router.Group("/api/workers")
	{
		workers.GET("", staff, h.ListWorkers)
		workers.POST("", managers, h.CreateWorker)
		workers.GET("/cin/:cin", staff, h.GetWorkerByCIN)
		workers.GET("/:id", staff, h.GetWorker)
		workers.PUT("/:id", managers, h.UpdateWorker)
		workers.DELETE("/:id", managers, h.DeleteWorker)
		workers.GET("/:id/leaves", staff, h.LeaveHistory)
		workers.GET("/:id/photo", staff, h.GetPhoto)
		workers.POST("/:id/photo", managers, h.UploadPhoto)
	}
}

// ListWorkers handles GET /api/workers
// @Summary      List workers
// @Tags         workers
// @Produce      json
// @Security     BearerAuth
// @Param        search  query  string  false  "Name search"
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Items per page"
// @Success      200  {object}  pagination.Page{data=[]service.WorkerResponse}
// @Router       /api/workers [get]
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	params := pagination.Parse(c)
	workers, total, err := h.workerService.ListWorkers(c.Request.Context(), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, params.Wrap(http.StatusOK, workers, total))
}

// CreateWorker handles POST /api/workers
// @Summary      Register a worker
// @Tags         workers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateWorkerRequest  true  "Worker"
// @Success      201      {object}  response.Response{data=service.WorkerResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/workers [post]
func (h *WorkerHandler) CreateWorker(c *gin.Context) {
	var req service.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	worker, err := h.workerService.CreateWorker(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, worker))
}

// GetWorker handles GET /api/workers/:id
// @Summary      Get a worker
// @Tags         workers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worker ID"
// @Success      200  {object}  response.Response{data=service.WorkerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/workers/{id} [get]
func (h *WorkerHandler) GetWorker(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	worker, err := h.workerService.GetWorker(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, worker))
}

// GetWorkerByCIN handles GET /api/workers/cin/:cin
// @Summary      Find a worker by national id
// @Tags         workers
// @Produce      json
// @Security     BearerAuth
// @Param        cin  path      string  true  "CIN"
// @Success      200  {object}  response.Response{data=service.WorkerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/workers/cin/{cin} [get]
func (h *WorkerHandler) GetWorkerByCIN(c *gin.Context) {
	worker, err := h.workerService.GetWorkerByCIN(c.Request.Context(), c.Param("cin"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, worker))
}

// UpdateWorker handles PUT /api/workers/:id
// @Summary      Update a worker
// @Tags         workers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                       true  "Worker ID"
// @Param        payload  body  service.UpdateWorkerRequest  true  "Changes"
// @Success      200  {object}  response.Response{data=service.WorkerResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/workers/{id} [put]
func (h *WorkerHandler) UpdateWorker(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	worker, err := h.workerService.UpdateWorker(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, worker))
}

// DeleteWorker handles DELETE /api/workers/:id
// @Summary      Delete a worker
// @Tags         workers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worker ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/workers/{id} [delete]
func (h *WorkerHandler) DeleteWorker(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.workerService.DeleteWorker(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id}))
}

// LeaveHistory handles GET /api/workers/:id/leaves
// @Summary      Leave history of a worker
// @Tags         workers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worker ID"
// @Success      200  {object}  response.Response{data=[]service.RequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/workers/{id}/leaves [get]
func (h *WorkerHandler) LeaveHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	leaves, err := h.workerService.LeaveHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, leaves))
}

// UploadPhoto handles POST /api/workers/:id/photo
// @Summary      Upload a worker photo
// @Tags         workers
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Worker ID"
// @Param        photo  formData  file    true  "Image"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/workers/{id}/photo [post]
func (h *WorkerHandler) UploadPhoto(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, "photo file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Unreadable photo: "+err.Error())
		return
	}
	defer f.Close()

	err = h.workerService.SavePhoto(c.Request.Context(), id, service.Attachment{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id}))
}

// GetPhoto handles GET /api/workers/:id/photo
// @Summary      Download a worker photo
// @Tags         workers
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path  string  true  "Worker ID"
// @Success      200  {file}    file
// @Failure      404  {object}  response.Response
// @Router       /api/workers/{id}/photo [get]
func (h *WorkerHandler) GetPhoto(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	streamFile(c, func() (io.ReadCloser, string, error) {
		return h.workerService.OpenPhoto(c.Request.Context(), id)
	})
}
