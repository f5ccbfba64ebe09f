package model

import "hrbackend/internal/workflow"

// StatusCount is the number of requests in one status.
type StatusCount struct {
	Status workflow.Status `json:"status"`
	Count  int64           `json:"count"`
}

// LeaveTypeCount is the number of leave requests of one type.
type LeaveTypeCount struct {
	LeaveType string `json:"leave_type"`
	Count     int64  `json:"count"`
}

// MonthCount is the number of leave requests starting in a month (1-12).
type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

// LeaveStatistics backs the admin statistics screen.
type LeaveStatistics struct {
	Year     int              `json:"year"`
	Total    int64            `json:"total"`
	ByStatus []StatusCount    `json:"by_status"`
	ByType   []LeaveTypeCount `json:"by_type"`
	ByMonth  []MonthCount     `json:"by_month"`
}

// KindSummary groups request counts of one kind into pending/accepted/rejected.
type KindSummary struct {
	Kind     workflow.Kind `json:"kind"`
	Pending  int64         `json:"pending"`
	Accepted int64         `json:"accepted"`
	Rejected int64         `json:"rejected"`
}
