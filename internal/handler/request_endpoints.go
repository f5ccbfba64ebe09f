package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"hrbackend/internal/repository"
	"hrbackend/internal/service"
	"hrbackend/internal/workflow"
	"hrbackend/pkg/pagination"
	"hrbackend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecisionPayload is the body of every decision endpoint.
type DecisionPayload struct {
	Approved      *bool            `json:"approved" binding:"required"`
	Comment       string           `json:"comment"`
	GrantedAmount *decimal.Decimal `json:"granted_amount,omitempty" swaggertype:"string"`
}

type HasPendingResponse struct {
	WorkerID   string `json:"worker_id"`
	HasPending bool   `json:"has_pending"`
}

// requestEndpoints holds the behaviour the leave, mission and advance
// handlers share. Only the kind differs between them.
type requestEndpoints struct {
	kind      workflow.Kind
	requests  service.RequestService
	approvals service.ApprovalService
	reports   service.ReportService
}

func (e requestEndpoints) list(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.RequestFilter{
		Kind:      e.kind,
		Status:    workflow.Status(c.Query("status")),
		LeaveType: c.Query("leave_type"),
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if raw := c.Query("worker_id"); raw != "" {
		workerID, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Invalid worker_id: "+raw)
			return
		}
		filter.WorkerID = &workerID
	}

	items, total, err := e.requests.ListRequests(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, params.Wrap(http.StatusOK, items, total))
}

func (e requestEndpoints) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := e.requests.GetRequest(c.Request.Context(), e.kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

func (e requestEndpoints) delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := e.requests.DeleteRequest(c.Request.Context(), e.kind, id, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"id": id}))
}

// decide records the caller's verdict. The route does not pick the stage;
// the workflow engine does, from the caller's role and the current status.
func (e requestEndpoints) decide(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload DecisionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := e.approvals.Decide(c.Request.Context(), e.kind, id, currentUser(c), service.DecisionInput{
		Approved:      *payload.Approved,
		Comment:       payload.Comment,
		GrantedAmount: payload.GrantedAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

func (e requestEndpoints) hasPending(c *gin.Context) {
	workerID, ok := pathID(c, "workerId")
	if !ok {
		return
	}
	pending, err := e.requests.HasPending(c.Request.Context(), e.kind, workerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, HasPendingResponse{WorkerID: workerID.String(), HasPending: pending}))
}

func (e requestEndpoints) certificate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := e.reports.WriteCertificate(c.Request.Context(), &buf, e.kind, id); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%s.pdf", e.kind, id)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// streamFile copies a stored object to the client.
func streamFile(c *gin.Context, open func() (io.ReadCloser, string, error)) {
	body, name, err := open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", name),
	})
}
