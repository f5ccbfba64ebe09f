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

type CreateWorkerRequest struct {
	Name           string          `json:"name" binding:"required"`
	CIN            string          `json:"cin" binding:"required"`
	Department     string          `json:"department"`
	Position       string          `json:"position"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email" binding:"omitempty,email"`
	Salary         decimal.Decimal `json:"salary" swaggertype:"string"`
	Gender         string          `json:"gender"`
	DateOfBirth    string          `json:"date_of_birth"`
	Address        string          `json:"address"`
	TotalLeaveDays *int            `json:"total_leave_days"`
}

// UpdateWorkerRequest only changes the fields that are set.
type UpdateWorkerRequest struct {
	Name           *string          `json:"name"`
	CIN            *string          `json:"cin"`
	Department     *string          `json:"department"`
	Position       *string          `json:"position"`
	Phone          *string          `json:"phone"`
	Email          *string          `json:"email" binding:"omitempty,email"`
	Salary         *decimal.Decimal `json:"salary" swaggertype:"string"`
	Gender         *string          `json:"gender"`
	DateOfBirth    *string          `json:"date_of_birth"`
	Address        *string          `json:"address"`
	Status         *string          `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	TotalLeaveDays *int             `json:"total_leave_days"`
}

type WorkerResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	CIN                string          `json:"cin"`
	Department         string          `json:"department"`
	Position           string          `json:"position"`
	Phone              string          `json:"phone"`
	Email              string          `json:"email"`
	Salary             decimal.Decimal `json:"salary" swaggertype:"string"`
	Gender             string          `json:"gender"`
	DateOfBirth        string          `json:"date_of_birth,omitempty"`
	Address            string          `json:"address"`
	Status             string          `json:"status"`
	HasPhoto           bool            `json:"has_photo"`
	TotalLeaveDays     int             `json:"total_leave_days"`
	UsedLeaveDays      int             `json:"used_leave_days"`
	RemainingLeaveDays int             `json:"remaining_leave_days"`
	CreatedAt          string          `json:"created_at"`
}

// --- Interface ---

type WorkerService interface {
	CreateWorker(ctx context.Context, userID uuid.UUID, req CreateWorkerRequest) (*WorkerResponse, error)
	GetWorker(ctx context.Context, id uuid.UUID) (*WorkerResponse, error)
	GetWorkerByCIN(ctx context.Context, cin string) (*WorkerResponse, error)
	ListWorkers(ctx context.Context, search string, page, limit int) ([]WorkerResponse, int64, error)
	UpdateWorker(ctx context.Context, userID, id uuid.UUID, req UpdateWorkerRequest) (*WorkerResponse, error)
	DeleteWorker(ctx context.Context, userID, id uuid.UUID) error
	LeaveHistory(ctx context.Context, id uuid.UUID) ([]RequestResponse, error)
	SavePhoto(ctx context.Context, id uuid.UUID, file Attachment) error
	OpenPhoto(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error)
}

type workerService struct {
	tx               repository.TransactionManager
	workers          repository.WorkerRepository
	requests         repository.RequestRepository
	audit            repository.AuditRepository
	store            storage.Store
	defaultLeaveDays int
	log              *zap.Logger
}

func NewWorkerService(
	tx repository.TransactionManager,
	workers repository.WorkerRepository,
	requests repository.RequestRepository,
	audit repository.AuditRepository,
	store storage.Store,
	defaultLeaveDays int,
	log *zap.Logger,
) WorkerService {
	return &workerService{
		tx:               tx,
		workers:          workers,
		requests:         requests,
		audit:            audit,
		store:            store,
		defaultLeaveDays: defaultLeaveDays,
		log:              log,
	}
}

func toWorkerResponse(w *model.Worker) WorkerResponse {
	res := WorkerResponse{
		ID:                 w.ID.String(),
		Name:               w.Name,
		CIN:                w.CIN,
		Department:         w.Department,
		Position:           w.Position,
		Phone:              w.Phone,
		Email:              w.Email,
		Salary:             w.Salary,
		Gender:             w.Gender,
		Address:            w.Address,
		Status:             w.Status,
		HasPhoto:           w.PhotoKey != "",
		TotalLeaveDays:     w.TotalLeaveDays,
		UsedLeaveDays:      w.UsedLeaveDays,
		RemainingLeaveDays: w.RemainingLeaveDays(),
		CreatedAt:          w.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if w.DateOfBirth != nil {
		res.DateOfBirth = w.DateOfBirth.Format(workflow.DateLayout)
	}
	return res
}

func parseBirthDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := workflow.ParseDate(raw)
	if err != nil {
		return nil, invalidf("date_of_birth must be YYYY-MM-DD")
	}
	return &d, nil
}

func (s *workerService) CreateWorker(ctx context.Context, userID uuid.UUID, req CreateWorkerRequest) (*WorkerResponse, error) {
	name, cin := strings.TrimSpace(req.Name), strings.TrimSpace(req.CIN)
	if name == "" || cin == "" {
		return nil, invalidf("name and cin are required")
	}
	if _, err := s.workers.FindByCIN(ctx, cin); err == nil {
		return nil, fmt.Errorf("%w: cin %s already registered", ErrConflict, cin)
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check cin: %w", err)
	}
	if req.Salary.IsNegative() {
		return nil, invalidf("salary cannot be negative")
	}
	dob, err := parseBirthDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	total := s.defaultLeaveDays
	if req.TotalLeaveDays != nil {
		if *req.TotalLeaveDays < 0 {
			return nil, invalidf("total_leave_days cannot be negative")
		}
		total = *req.TotalLeaveDays
	}

	worker := &model.Worker{
		Name:           name,
		CIN:            cin,
		Department:     req.Department,
		Position:       req.Position,
		Phone:          req.Phone,
		Email:          req.Email,
		Salary:         req.Salary,
		Gender:         req.Gender,
		DateOfBirth:    dob,
		Address:        req.Address,
		Status:         model.WorkerStatusActive,
		TotalLeaveDays: total,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.workers.Create(txCtx, worker); err != nil {
			return fmt.Errorf("failed to create worker: %w", err)
		}
		return writeAudit(txCtx, s.audit, optionalID(userID), model.ActionCreateWorker, worker.ID.String(), worker.Name, map[string]interface{}{
			"cin":              worker.CIN,
			"total_leave_days": worker.TotalLeaveDays,
		})
	})
	if err != nil {
		return nil, err
	}

	res := toWorkerResponse(worker)
	return &res, nil
}

func (s *workerService) GetWorker(ctx context.Context, id uuid.UUID) (*WorkerResponse, error) {
	worker, err := s.workers.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "worker")
	}
	res := toWorkerResponse(worker)
	return &res, nil
}

func (s *workerService) GetWorkerByCIN(ctx context.Context, cin string) (*WorkerResponse, error) {
	worker, err := s.workers.FindByCIN(ctx, strings.TrimSpace(cin))
	if err != nil {
		return nil, notFoundOr(err, "worker")
	}
	res := toWorkerResponse(worker)
	return &res, nil
}

func (s *workerService) ListWorkers(ctx context.Context, search string, page, limit int) ([]WorkerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	workers, total, err := s.workers.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list workers: %w", err)
	}
	res := make([]WorkerResponse, 0, len(workers))
	for i := range workers {
		res = append(res, toWorkerResponse(&workers[i]))
	}
	return res, total, nil
}

func (s *workerService) UpdateWorker(ctx context.Context, userID, id uuid.UUID, req UpdateWorkerRequest) (*WorkerResponse, error) {
	worker, err := s.workers.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "worker")
	}

	// fields holds the columns to write; changed is the audited subset.
	fields := map[string]interface{}{}
	changed := map[string]interface{}{}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		fields["name"] = strings.TrimSpace(*req.Name)
		changed["name"] = fields["name"]
	}
	if req.CIN != nil && strings.TrimSpace(*req.CIN) != worker.CIN {
		cin := strings.TrimSpace(*req.CIN)
		if cin == "" {
			return nil, invalidf("cin cannot be empty")
		}
		if _, err := s.workers.FindByCIN(ctx, cin); err == nil {
			return nil, fmt.Errorf("%w: cin %s already registered", ErrConflict, cin)
		}
		fields["cin"] = cin
		changed["cin"] = cin
	}
	if req.Department != nil {
		fields["department"] = *req.Department
	}
	if req.Position != nil {
		fields["position"] = *req.Position
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Salary != nil {
		if req.Salary.IsNegative() {
			return nil, invalidf("salary cannot be negative")
		}
		fields["salary"] = *req.Salary
		changed["salary"] = req.Salary.StringFixed(2)
	}
	if req.Gender != nil {
		fields["gender"] = *req.Gender
	}
	if req.DateOfBirth != nil {
		dob, err := parseBirthDate(*req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		fields["date_of_birth"] = dob
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.Status != nil {
		fields["status"] = *req.Status
		changed["status"] = *req.Status
	}
	if req.TotalLeaveDays != nil {
		if *req.TotalLeaveDays < 0 {
			return nil, invalidf("total_leave_days cannot be negative")
		}
		fields["total_leave_days"] = *req.TotalLeaveDays
		changed["total_leave_days"] = *req.TotalLeaveDays
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.workers.Update(txCtx, id, fields); err != nil {
			if errors.Is(err, repository.ErrBalanceExceeded) {
				return invalidf("total_leave_days cannot be below the leave days already used")
			}
			if repository.IsNotFound(err) {
				return notFoundOr(err, "worker")
			}
			return fmt.Errorf("failed to update worker: %w", err)
		}
		return writeAudit(txCtx, s.audit, optionalID(userID), model.ActionUpdateWorker, id.String(), worker.Name, changed)
	})
	if err != nil {
		return nil, err
	}

	return s.GetWorker(ctx, id)
}

// DeleteWorker refuses while any request naming the worker is still pending.
func (s *workerService) DeleteWorker(ctx context.Context, userID, id uuid.UUID) error {
	worker, err := s.workers.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "worker")
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, kind := range []workflow.Kind{workflow.KindLeave, workflow.KindMission, workflow.KindAdvance} {
			pending, err := s.requests.FindPendingForWorker(txCtx, id, kind)
			if err != nil {
				return fmt.Errorf("failed to check pending requests: %w", err)
			}
			if pending != nil {
				return fmt.Errorf("%w: worker %s has a pending %s request", ErrConflict, worker.Name, strings.ToLower(string(kind)))
			}
		}
		if err := s.workers.Delete(txCtx, id); err != nil {
			return notFoundOr(err, "worker")
		}
		return writeAudit(txCtx, s.audit, optionalID(userID), model.ActionDeleteWorker, id.String(), worker.Name, map[string]interface{}{
			"cin": worker.CIN,
		})
	})
}

func (s *workerService) LeaveHistory(ctx context.Context, id uuid.UUID) ([]RequestResponse, error) {
	if _, err := s.workers.FindByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "worker")
	}
	leaves, _, err := s.requests.List(ctx, repository.RequestFilter{Kind: workflow.KindLeave, WorkerID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to load leave history: %w", err)
	}
	res := make([]RequestResponse, 0, len(leaves))
	for i := range leaves {
		res = append(res, toRequestResponse(&leaves[i]))
	}
	return res, nil
}

func (s *workerService) SavePhoto(ctx context.Context, id uuid.UUID, file Attachment) error {
	worker, err := s.workers.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "worker")
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return invalidf("photo must be an image, got %q", file.ContentType)
	}

	key := storage.Key("workers", id.String(), file.FileName)
	if err := s.store.Save(ctx, key, file.Body, file.ContentType); err != nil {
		return fmt.Errorf("failed to store photo: %w", err)
	}

	previous := worker.PhotoKey
	if err := s.workers.Update(ctx, id, map[string]interface{}{"photo_key": key}); err != nil {
		return fmt.Errorf("failed to update worker photo: %w", err)
	}
	if previous != "" && previous != key {
		if err := s.store.Delete(ctx, previous); err != nil {
			s.log.Warn("failed to delete previous photo", zap.String("key", previous), zap.Error(err))
		}
	}
	return nil
}

func (s *workerService) OpenPhoto(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	worker, err := s.workers.FindByID(ctx, id)
	if err != nil {
		return nil, "", notFoundOr(err, "worker")
	}
	if worker.PhotoKey == "" {
		return nil, "", fmt.Errorf("%w: worker has no photo", ErrNotFound)
	}
	body, err := s.store.Open(ctx, worker.PhotoKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: photo", ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to open photo: %w", err)
	}
	return body, worker.PhotoKey[strings.LastIndex(worker.PhotoKey, "/")+1:], nil
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
