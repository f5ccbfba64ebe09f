package repository

import (
	"context"
	"errors"
	"strings"

	"hrbackend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrBalanceExceeded means a debit would push used leave days past the allowance.
var ErrBalanceExceeded = errors.New("leave debit exceeds remaining balance")

type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Worker, error)
	FindByCIN(ctx context.Context, cin string) (*model.Worker, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Worker, int64, error)
	// Update writes only the given columns. used_leave_days is never written here;
	// a new total_leave_days is applied only while it still covers the used days.
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DebitLeave adds days to used_leave_days only if the allowance still covers them.
	DebitLeave(ctx context.Context, id uuid.UUID, days int) error
}

type workerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) Create(ctx context.Context, worker *model.Worker) error {
	return GetDB(ctx, r.db).Create(worker).Error
}

func (r *workerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var worker model.Worker
	if err := GetDB(ctx, r.db).First(&worker, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// FindByIDs returns the workers in the order of ids. Missing ids yield ErrNotFound.
func (r *workerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Worker, error) {
	var found []model.Worker
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Worker, len(found))
	for _, w := range found {
		byID[w.ID] = w
	}
	workers := make([]model.Worker, 0, len(ids))
	for _, id := range ids {
		w, ok := byID[id]
		if !ok {
			return nil, ErrNotFound
		}
		workers = append(workers, w)
	}
	return workers, nil
}

func (r *workerRepository) FindByCIN(ctx context.Context, cin string) (*model.Worker, error) {
	var worker model.Worker
	if err := GetDB(ctx, r.db).First(&worker, "cin = ?", cin).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepository) List(ctx context.Context, search string, page, limit int) ([]model.Worker, int64, error) {
	var workers []model.Worker
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Worker{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR cin LIKE ?", like, like)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&workers).Error; err != nil {
		return nil, 0, err
	}

	return workers, total, nil
}

func (r *workerRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	delete(fields, "used_leave_days")
	if len(fields) == 0 {
		return nil
	}

	query := GetDB(ctx, r.db).Model(&model.Worker{}).Where("id = ?", id)
	total, guarded := fields["total_leave_days"]
	if guarded {
		query = query.Where("used_leave_days <= ?", total)
	}
	res := query.Omit("used_leave_days").Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Worker{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	if guarded {
		return ErrBalanceExceeded
	}
	return nil
}

func (r *workerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Worker{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *workerRepository) DebitLeave(ctx context.Context, id uuid.UUID, days int) error {
	res := GetDB(ctx, r.db).Model(&model.Worker{}).
		Where("id = ? AND used_leave_days + ? <= total_leave_days", id, days).
		UpdateColumn("used_leave_days", gorm.Expr("used_leave_days + ?", days))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBalanceExceeded
	}
	return nil
}
