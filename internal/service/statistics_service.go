package service

import (
	"context"
	"fmt"
	"time"

	"hrbackend/internal/model"
	"hrbackend/internal/repository"
	"hrbackend/internal/workflow"
)

type StatisticsService interface {
	// LeaveStatistics counts leave requests of year by status, type and start month.
	LeaveStatistics(ctx context.Context, year int) (*model.LeaveStatistics, error)
	// Summary counts pending, accepted and rejected requests of every kind.
	Summary(ctx context.Context, year int) ([]model.KindSummary, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
	now  Clock
}

func NewStatisticsService(repo repository.StatisticsRepository, now Clock) StatisticsService {
	if now == nil {
		now = time.Now
	}
	return &statisticsService{repo: repo, now: now}
}

func (s *statisticsService) LeaveStatistics(ctx context.Context, year int) (*model.LeaveStatistics, error) {
	if year <= 0 {
		year = s.now().Year()
	}

	total, err := s.repo.CountRequests(ctx, workflow.KindLeave, year)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.CountByStatus(ctx, workflow.KindLeave, year)
	if err != nil {
		return nil, err
	}
	byType, err := s.repo.CountLeavesByType(ctx, year)
	if err != nil {
		return nil, err
	}
	starts, err := s.repo.LeaveStartDates(ctx, year)
	if err != nil {
		return nil, err
	}

	// Every month is reported, empty ones included, so charts keep twelve bars.
	byMonth := make([]model.MonthCount, 12)
	for i := range byMonth {
		byMonth[i].Month = i + 1
	}
	for _, d := range starts {
		byMonth[d.Month()-1].Count++
	}

	return &model.LeaveStatistics{
		Year:     year,
		Total:    total,
		ByStatus: fillStatuses(byStatus),
		ByType:   fillLeaveTypes(byType),
		ByMonth:  byMonth,
	}, nil
}

func (s *statisticsService) Summary(ctx context.Context, year int) ([]model.KindSummary, error) {
	kinds := []workflow.Kind{workflow.KindLeave, workflow.KindMission, workflow.KindAdvance}
	res := make([]model.KindSummary, 0, len(kinds))
	for _, kind := range kinds {
		counts, err := s.repo.CountByStatus(ctx, kind, year)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s: %w", kind, err)
		}
		summary := model.KindSummary{Kind: kind}
		for _, c := range counts {
			switch {
			case c.Status.IsPending():
				summary.Pending += c.Count
			case c.Status == workflow.StatusAccepted:
				summary.Accepted += c.Count
			case c.Status.IsTerminal():
				summary.Rejected += c.Count
			}
		}
		res = append(res, summary)
	}
	return res, nil
}

func fillStatuses(counts []model.StatusCount) []model.StatusCount {
	byStatus := make(map[workflow.Status]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	res := make([]model.StatusCount, 0, len(workflow.AllStatuses))
	for _, st := range workflow.AllStatuses {
		res = append(res, model.StatusCount{Status: st, Count: byStatus[st]})
	}
	return res
}

func fillLeaveTypes(counts []model.LeaveTypeCount) []model.LeaveTypeCount {
	byType := make(map[string]int64, len(counts))
	for _, c := range counts {
		byType[c.LeaveType] = c.Count
	}
	res := make([]model.LeaveTypeCount, 0, len(model.LeaveTypes))
	for _, lt := range model.LeaveTypes {
		res = append(res, model.LeaveTypeCount{LeaveType: lt, Count: byType[lt]})
	}
	return res
}
