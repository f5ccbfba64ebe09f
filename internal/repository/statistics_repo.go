package repository

import (
	"context"
	"fmt"
	"time"

	"hrbackend/internal/model"
	"hrbackend/internal/workflow"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountRequests(ctx context.Context, kind workflow.Kind, year int) (int64, error)
	CountByStatus(ctx context.Context, kind workflow.Kind, year int) ([]model.StatusCount, error)
	CountLeavesByType(ctx context.Context, year int) ([]model.LeaveTypeCount, error)
	// LeaveStartDates returns the start date of every leave beginning in year.
	LeaveStartDates(ctx context.Context, year int) ([]time.Time, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

func (r *statisticsRepository) kindQuery(ctx context.Context, kind workflow.Kind, year int) *gorm.DB {
	query := GetDB(ctx, r.db).Model(&model.Request{}).Where("kind = ?", kind)
	if year > 0 {
		from, to := yearBounds(year)
		query = query.Where("request_date >= ? AND request_date < ?", from, to)
	}
	return query
}

func (r *statisticsRepository) CountRequests(ctx context.Context, kind workflow.Kind, year int) (int64, error) {
	var total int64
	if err := r.kindQuery(ctx, kind, year).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s requests: %w", kind, err)
	}
	return total, nil
}

func (r *statisticsRepository) CountByStatus(ctx context.Context, kind workflow.Kind, year int) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.kindQuery(ctx, kind, year).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s requests by status: %w", kind, err)
	}
	return rows, nil
}

func (r *statisticsRepository) CountLeavesByType(ctx context.Context, year int) ([]model.LeaveTypeCount, error) {
	var rows []model.LeaveTypeCount
	if err := r.kindQuery(ctx, workflow.KindLeave, year).
		Select("leave_type, COUNT(*) AS count").
		Group("leave_type").
		Order("leave_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count leaves by type: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) LeaveStartDates(ctx context.Context, year int) ([]time.Time, error) {
	from, to := yearBounds(year)
	var dates []time.Time
	if err := GetDB(ctx, r.db).Model(&model.Request{}).
		Where("kind = ? AND start_date >= ? AND start_date < ?", workflow.KindLeave, from, to).
		Pluck("start_date", &dates).Error; err != nil {
		return nil, fmt.Errorf("failed to load leave start dates: %w", err)
	}
	return dates, nil
}
