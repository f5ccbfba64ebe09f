package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"hrbackend/internal/model"
	"hrbackend/internal/repository"
	"hrbackend/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestStatisticsCountLeaves(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	f.notifier.On("Deliver", mockAny, mockAny, mockAny, mockAny).Return(nil)
	ali := f.worker(t, "Ali", 30, 0)
	leila := f.worker(t, "Leila", 30, 0)

	createLeave(t, f, ali, "2025-06-20", "2025-06-21")
	id := createLeave(t, f, leila, "2025-07-01", "2025-07-03")
	_, err := f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: false})
	require.NoError(t, err)

	svc := NewStatisticsService(repository.NewStatisticsRepository(f.db), func() time.Time { return f.now })
	stats, err := svc.LeaveStatistics(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, stats.Year)
	assert.EqualValues(t, 2, stats.Total)
	require.Len(t, stats.ByMonth, 12)
	assert.EqualValues(t, 1, stats.ByMonth[5].Count)
	assert.EqualValues(t, 1, stats.ByMonth[6].Count)
	require.Len(t, stats.ByType, len(model.LeaveTypes))
	assert.EqualValues(t, 2, stats.ByType[0].Count)

	byStatus := map[workflow.Status]int64{}
	for _, c := range stats.ByStatus {
		byStatus[c.Status] = c.Count
	}
	assert.EqualValues(t, 1, byStatus[workflow.StatusPendingHR])
	assert.EqualValues(t, 1, byStatus[workflow.StatusRejectedHR])
	assert.EqualValues(t, 0, byStatus[workflow.StatusAccepted])

	summary, err := svc.Summary(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, workflow.KindLeave, summary[0].Kind)
	assert.EqualValues(t, 1, summary[0].Pending)
	assert.EqualValues(t, 1, summary[0].Rejected)
	assert.EqualValues(t, 0, summary[1].Pending)
}

func TestExportRequestsWorkbook(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	ali := f.worker(t, "Ali", 30, 0)
	createLeave(t, f, ali, "2025-06-20", "2025-06-21")

	svc := NewReportService(f.requests, f.tr, nil)
	var buf bytes.Buffer
	require.NoError(t, svc.ExportRequests(ctx, &buf, repository.RequestFilter{Kind: workflow.KindLeave, Limit: 1}))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("LEAVE")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ali", rows[1][3])
	assert.Equal(t, string(workflow.StatusPendingHR), rows[1][2])
}

func TestCertificateOnlyForDecidedRequests(t *testing.T) {
	f := newFixture(t, june10)
	ctx := context.Background()
	f.notifier.On("Deliver", mockAny, mockAny, mockAny, mockAny).Return(nil)
	ali := f.worker(t, "Ali", 30, 0)
	id := createLeave(t, f, ali, "2025-06-20", "2025-06-21")

	svc := NewReportService(f.requests, f.tr, nil)
	var buf bytes.Buffer
	err := svc.WriteCertificate(ctx, &buf, workflow.KindLeave, id)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.approvalSvc.Decide(ctx, workflow.KindLeave, id, f.hr.ID, DecisionInput{Approved: false, Comment: "busy period"})
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, svc.WriteCertificate(ctx, &buf, workflow.KindLeave, id))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
