package repository

import (
	"context"
	"errors"
	"time"

	"hrbackend/internal/model"
	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrStatusConflict means the request left the expected status before the
// update could be applied.
var ErrStatusConflict = errors.New("request status changed concurrently")

// RequestFilter narrows List. Zero values disable a criterion; Limit 0 returns all rows.
type RequestFilter struct {
	Kind      workflow.Kind
	Status    workflow.Status
	LeaveType string
	WorkerID  *uuid.UUID
	Page      int
	Limit     int
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error)
	// FindPendingForWorker returns the worker's non-terminal request of kind, or nil.
	FindPendingForWorker(ctx context.Context, workerID uuid.UUID, kind workflow.Kind) (*model.Request, error)
	// Transition moves id from one status to another and records the decision.
	// It returns ErrStatusConflict when the row is no longer in from.
	Transition(ctx context.Context, id uuid.UUID, from, to workflow.Status, decision *model.Decision) error
	SetGrantedAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	// Delete removes id only while it is still in status.
	Delete(ctx context.Context, id uuid.UUID, status workflow.Status) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	// Workers already exist; only the join rows are written.
	return GetDB(ctx, r.db).Omit("Workers.*").Create(req).Error
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Requester").
		// Deleted workers stay visible on the requests that name them.
		Preload("Workers", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Preload("Decisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("decisions.created_at ASC")
		}).
		Preload("Decisions.Actor")
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := withRelations(GetDB(ctx, r.db)).First(&req, "requests.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func applyFilter(query *gorm.DB, filter RequestFilter) *gorm.DB {
	if filter.Kind != "" {
		query = query.Where("requests.kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("requests.status = ?", filter.Status)
	}
	if filter.LeaveType != "" {
		query = query.Where("requests.leave_type = ?", filter.LeaveType)
	}
	if filter.WorkerID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM request_workers rw WHERE rw.request_id = requests.id AND rw.worker_id = ?)", *filter.WorkerID)
	}
	return query
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error) {
	var requests []model.Request
	var total int64

	db := GetDB(ctx, r.db)
	if err := applyFilter(db.Model(&model.Request{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := applyFilter(withRelations(db), filter).Order("requests.request_date DESC")
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) FindPendingForWorker(ctx context.Context, workerID uuid.UUID, kind workflow.Kind) (*model.Request, error) {
	var req model.Request
	err := GetDB(ctx, r.db).
		Joins("JOIN request_workers ON request_workers.request_id = requests.id").
		Where("request_workers.worker_id = ? AND requests.kind = ? AND requests.status IN ?", workerID, kind, workflow.PendingStatuses).
		Order("requests.request_date DESC").
		Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) Transition(ctx context.Context, id uuid.UUID, from, to workflow.Status, decision *model.Decision) error {
	db := GetDB(ctx, r.db)
	res := db.Model(&model.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}

	decision.RequestID = id
	return db.Omit("Actor").Create(decision).Error
}

func (r *requestRepository) SetGrantedAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).Where("id = ?", id).Update("granted_amount", amount).Error
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID, status workflow.Status) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", id, status).Delete(&model.Request{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}
		if err := tx.Exec("DELETE FROM request_workers WHERE request_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("request_id = ?", id).Delete(&model.Decision{}).Error
	})
}
