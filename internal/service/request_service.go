package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"hrbackend/internal/model"
	"hrbackend/internal/repository"
	"hrbackend/internal/storage"
	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- DTOs ---

// CreateLeaveRequest identifies the worker by id or, failing that, by CIN.
type CreateLeaveRequest struct {
	WorkerID  string `form:"worker_id" json:"worker_id"`
	WorkerCIN string `form:"worker_cin" json:"worker_cin"`
	LeaveType string `form:"leave_type" json:"leave_type" binding:"required"`
	StartDate string `form:"start_date" json:"start_date" binding:"required"`
	EndDate   string `form:"end_date" json:"end_date" binding:"required"`
	Reason    string `form:"reason" json:"reason"`
}

// Attachment is an optional document uploaded with a leave request.
type Attachment struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

type CreateMissionRequest struct {
	WorkerIDs   []string `json:"worker_ids" binding:"required,min=1"`
	Destination string   `json:"destination" binding:"required"`
	StartDate   string   `json:"start_date" binding:"required"`
	EndDate     string   `json:"end_date" binding:"required"`
}

type CreateAdvanceRequest struct {
	WorkerID  string          `json:"worker_id"`
	WorkerCIN string          `json:"worker_cin"`
	Amount    decimal.Decimal `json:"amount" binding:"required" swaggertype:"string"`
}

// --- Interface ---

type RequestService interface {
	CreateLeave(ctx context.Context, requesterID uuid.UUID, req CreateLeaveRequest, att *Attachment) (*RequestResponse, error)
	CreateMission(ctx context.Context, requesterID uuid.UUID, req CreateMissionRequest) (*RequestResponse, error)
	CreateAdvance(ctx context.Context, requesterID uuid.UUID, req CreateAdvanceRequest) (*RequestResponse, error)
	GetRequest(ctx context.Context, kind workflow.Kind, id uuid.UUID) (*RequestResponse, error)
	ListRequests(ctx context.Context, filter repository.RequestFilter) ([]RequestResponse, int64, error)
	// DeleteRequest withdraws a request nobody has decided yet.
	DeleteRequest(ctx context.Context, kind workflow.Kind, id, userID uuid.UUID) error
	HasPending(ctx context.Context, kind workflow.Kind, workerID uuid.UUID) (bool, error)
	OpenAttachment(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error)
}

type requestService struct {
	tx       repository.TransactionManager
	requests repository.RequestRepository
	workers  repository.WorkerRepository
	audit    repository.AuditRepository
	store    storage.Store
	checker  workflow.Checker
	now      Clock
	log      *zap.Logger
}

func NewRequestService(
	tx repository.TransactionManager,
	requests repository.RequestRepository,
	workers repository.WorkerRepository,
	audit repository.AuditRepository,
	store storage.Store,
	checker workflow.Checker,
	now Clock,
	log *zap.Logger,
) RequestService {
	if now == nil {
		now = time.Now
	}
	return &requestService{
		tx:       tx,
		requests: requests,
		workers:  workers,
		audit:    audit,
		store:    store,
		checker:  checker,
		now:      now,
		log:      log,
	}
}

// --- Creation ---

func (s *requestService) CreateLeave(ctx context.Context, requesterID uuid.UUID, req CreateLeaveRequest, att *Attachment) (*RequestResponse, error) {
	worker, err := s.resolveWorker(ctx, req.WorkerID, req.WorkerCIN)
	if err != nil {
		return nil, err
	}
	if !isLeaveType(req.LeaveType) {
		return nil, invalidf("leave_type must be one of %s", strings.Join(model.LeaveTypes, ", "))
	}
	start, end, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	draft := workflow.Draft{Kind: workflow.KindLeave, WorkerIDs: []uuid.UUID{worker.ID}, StartDate: start, EndDate: end}
	balance := workflow.Balance{TotalDays: worker.TotalLeaveDays, UsedDays: worker.UsedLeaveDays}
	if err := s.checkEligibility(ctx, draft, balance); err != nil {
		return nil, err
	}

	request := &model.Request{
		ID:        uuid.New(),
		Kind:      workflow.KindLeave,
		Workers:   []model.Worker{*worker},
		StartDate: &start,
		EndDate:   &end,
		LeaveType: req.LeaveType,
		Reason:    strings.TrimSpace(req.Reason),
	}

	if att != nil {
		key := storage.Key("leaves", request.ID.String(), att.FileName)
		if err := s.store.Save(ctx, key, att.Body, att.ContentType); err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		request.AttachmentKey = key
	}

	details := map[string]interface{}{
		"worker_id":  worker.ID.String(),
		"leave_type": req.LeaveType,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"days":       workflow.LeaveDays(start, end),
	}
	if err := s.create(ctx, requesterID, request, worker.Name, details); err != nil {
		if request.AttachmentKey != "" {
			if delErr := s.store.Delete(ctx, request.AttachmentKey); delErr != nil {
				s.log.Warn("failed to remove orphaned attachment", zap.String("key", request.AttachmentKey), zap.Error(delErr))
			}
		}
		return nil, err
	}
	return s.GetRequest(ctx, workflow.KindLeave, request.ID)
}

func (s *requestService) CreateMission(ctx context.Context, requesterID uuid.UUID, req CreateMissionRequest) (*RequestResponse, error) {
	if len(req.WorkerIDs) == 0 {
		return nil, invalidf("a mission needs at least one worker")
	}
	ids := make([]uuid.UUID, 0, len(req.WorkerIDs))
	seen := make(map[uuid.UUID]bool, len(req.WorkerIDs))
	for _, raw := range req.WorkerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, invalidf("invalid worker id %q", raw)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	workers, err := s.workers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, notFoundOr(err, "worker")
	}

	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return nil, invalidf("destination is required")
	}
	start, end, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	draft := workflow.Draft{Kind: workflow.KindMission, WorkerIDs: ids, StartDate: start, EndDate: end}
	if err := s.checkEligibility(ctx, draft, workflow.Balance{}); err != nil {
		return nil, err
	}

	request := &model.Request{
		Kind:        workflow.KindMission,
		Workers:     workers,
		StartDate:   &start,
		EndDate:     &end,
		Destination: destination,
	}
	names := make([]string, 0, len(workers))
	for _, w := range workers {
		names = append(names, w.Name)
	}
	details := map[string]interface{}{
		"worker_ids":  req.WorkerIDs,
		"destination": destination,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
	}
	if err := s.create(ctx, requesterID, request, strings.Join(names, ", "), details); err != nil {
		return nil, err
	}
	return s.GetRequest(ctx, workflow.KindMission, request.ID)
}

func (s *requestService) CreateAdvance(ctx context.Context, requesterID uuid.UUID, req CreateAdvanceRequest) (*RequestResponse, error) {
	worker, err := s.resolveWorker(ctx, req.WorkerID, req.WorkerCIN)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, invalidf("amount must be greater than zero")
	}

	draft := workflow.Draft{Kind: workflow.KindAdvance, WorkerIDs: []uuid.UUID{worker.ID}, Amount: req.Amount}
	if err := s.checkEligibility(ctx, draft, workflow.Balance{}); err != nil {
		return nil, err
	}

	request := &model.Request{
		Kind:            workflow.KindAdvance,
		Workers:         []model.Worker{*worker},
		RequestedAmount: req.Amount.Round(2),
	}
	details := map[string]interface{}{
		"worker_id": worker.ID.String(),
		"amount":    req.Amount.StringFixed(2),
	}
	if err := s.create(ctx, requesterID, request, worker.Name, details); err != nil {
		return nil, err
	}
	return s.GetRequest(ctx, workflow.KindAdvance, request.ID)
}

// create stores request in its initial status together with its audit row.
func (s *requestService) create(ctx context.Context, requesterID uuid.UUID, request *model.Request, entityName string, details map[string]interface{}) error {
	request.Status = workflow.InitialStatus(request.Kind)
	request.RequestDate = s.now()
	request.RequestedBy = optionalID(requesterID)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, request); err != nil {
			return fmt.Errorf("failed to create %s request: %w", strings.ToLower(string(request.Kind)), err)
		}
		details["kind"] = request.Kind
		return writeAudit(txCtx, s.audit, request.RequestedBy, model.ActionCreateRequest, request.ID.String(), entityName, details)
	})
	if err != nil {
		return err
	}

	s.log.Info("request created",
		zap.String("request_id", request.ID.String()),
		zap.String("kind", string(request.Kind)),
		zap.String("status", string(request.Status)))
	return nil
}

func (s *requestService) checkEligibility(ctx context.Context, draft workflow.Draft, balance workflow.Balance) error {
	hasPending := false
	for _, id := range draft.WorkerIDs {
		pending, err := s.requests.FindPendingForWorker(ctx, id, draft.Kind)
		if err != nil {
			return fmt.Errorf("failed to look up pending requests: %w", err)
		}
		if pending != nil {
			hasPending = true
			break
		}
	}
	return s.checker.Check(workflow.EligibilityInput{
		Draft:      draft,
		Balance:    balance,
		HasPending: hasPending,
		Now:        s.now(),
	})
}

// resolveWorker looks the worker up by id, or by CIN when no id is given.
func (s *requestService) resolveWorker(ctx context.Context, rawID, cin string) (*model.Worker, error) {
	rawID, cin = strings.TrimSpace(rawID), strings.TrimSpace(cin)
	var (
		worker *model.Worker
		err    error
	)
	switch {
	case rawID != "":
		id, parseErr := uuid.Parse(rawID)
		if parseErr != nil {
			return nil, invalidf("invalid worker id %q", rawID)
		}
		worker, err = s.workers.FindByID(ctx, id)
	case cin != "":
		worker, err = s.workers.FindByCIN(ctx, cin)
	default:
		return nil, invalidf("worker_id or worker_cin is required")
	}
	if err != nil {
		return nil, notFoundOr(err, "worker")
	}
	return worker, nil
}

// --- Queries ---

func (s *requestService) GetRequest(ctx context.Context, kind workflow.Kind, id uuid.UUID) (*RequestResponse, error) {
	request, err := s.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	res := toRequestResponse(request)
	return &res, nil
}

func (s *requestService) load(ctx context.Context, kind workflow.Kind, id uuid.UUID) (*model.Request, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "request")
	}
	if kind != "" && request.Kind != kind {
		return nil, fmt.Errorf("%w: %s request %s", ErrNotFound, strings.ToLower(string(kind)), id)
	}
	return request, nil
}

func (s *requestService) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]RequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, invalidf("unknown status %q", filter.Status)
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	res := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		res = append(res, toRequestResponse(&requests[i]))
	}
	return res, total, nil
}

func (s *requestService) HasPending(ctx context.Context, kind workflow.Kind, workerID uuid.UUID) (bool, error) {
	pending, err := s.requests.FindPendingForWorker(ctx, workerID, kind)
	if err != nil {
		return false, fmt.Errorf("failed to look up pending requests: %w", err)
	}
	return pending != nil, nil
}

func (s *requestService) DeleteRequest(ctx context.Context, kind workflow.Kind, id, userID uuid.UUID) error {
	request, err := s.load(ctx, kind, id)
	if err != nil {
		return err
	}
	initial := workflow.InitialStatus(request.Kind)
	if request.Status != initial {
		return fmt.Errorf("%w: only %s requests can be deleted", workflow.ErrIllegalTransition, initial)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Delete(txCtx, id, initial); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return fmt.Errorf("%w: request was decided meanwhile", workflow.ErrIllegalTransition)
			}
			return fmt.Errorf("failed to delete request: %w", err)
		}
		return writeAudit(txCtx, s.audit, optionalID(userID), model.ActionDeleteRequest, id.String(), string(request.Kind), map[string]interface{}{
			"kind":   request.Kind,
			"status": request.Status,
		})
	})
	if err != nil {
		return err
	}

	if request.AttachmentKey != "" {
		if err := s.store.Delete(ctx, request.AttachmentKey); err != nil {
			s.log.Warn("failed to delete attachment", zap.String("key", request.AttachmentKey), zap.Error(err))
		}
	}
	return nil
}

func (s *requestService) OpenAttachment(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	request, err := s.load(ctx, workflow.KindLeave, id)
	if err != nil {
		return nil, "", err
	}
	if request.AttachmentKey == "" {
		return nil, "", fmt.Errorf("%w: request has no attachment", ErrNotFound)
	}
	body, err := s.store.Open(ctx, request.AttachmentKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: attachment", ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to open attachment: %w", err)
	}
	name := request.AttachmentKey[strings.LastIndex(request.AttachmentKey, "/")+1:]
	return body, name, nil
}

func isLeaveType(t string) bool {
	for _, lt := range model.LeaveTypes {
		if lt == t {
			return true
		}
	}
	return false
}

func parsePeriod(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := workflow.ParseDate(strings.TrimSpace(rawStart))
	if err != nil {
		return time.Time{}, time.Time{}, invalidf("start_date must be YYYY-MM-DD")
	}
	end, err := workflow.ParseDate(strings.TrimSpace(rawEnd))
	if err != nil {
		return time.Time{}, time.Time{}, invalidf("end_date must be YYYY-MM-DD")
	}
	return start, end, nil
}
