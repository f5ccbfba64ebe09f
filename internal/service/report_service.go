package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"hrbackend/internal/export"
	"hrbackend/internal/repository"
	"hrbackend/internal/workflow"

	"github.com/google/uuid"
)

// ReportService renders requests as XLSX workbooks and PDF decision certificates.
type ReportService interface {
	ExportRequests(ctx context.Context, w io.Writer, filter repository.RequestFilter) error
	// WriteCertificate renders the decision certificate of a decided request.
	WriteCertificate(ctx context.Context, w io.Writer, kind workflow.Kind, id uuid.UUID) error
}

type reportService struct {
	requests repository.RequestRepository
	tr       workflow.Translator
	labels   *workflow.MessageComposer
	now      Clock
}

func NewReportService(requests repository.RequestRepository, tr workflow.Translator, now Clock) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{
		requests: requests,
		tr:       tr,
		labels:   workflow.NewMessageComposer(tr),
		now:      now,
	}
}

func (s *reportService) ExportRequests(ctx context.Context, w io.Writer, filter repository.RequestFilter) error {
	filter.Page, filter.Limit = 0, 0
	requests, _, err := s.requests.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load requests: %w", err)
	}

	rows := make([]export.RequestRow, 0, len(requests))
	for i := range requests {
		res := toRequestResponse(&requests[i])
		row := export.RequestRow{
			ID:          res.ID,
			Kind:        res.Kind,
			Status:      res.Status,
			Workers:     workerNames(res.Workers),
			LeaveType:   res.LeaveType,
			StartDate:   res.StartDate,
			EndDate:     res.EndDate,
			Days:        res.Days,
			Destination: res.Destination,
			RequestDate: res.RequestDate,
		}
		if res.RequestedAmount != nil {
			row.Amount = res.RequestedAmount.StringFixed(2)
			row.Granted = res.GrantedAmount.StringFixed(2)
		}
		if n := len(res.Decisions); n > 0 {
			row.LastDecision = s.decisionLine(ctx, res.Decisions[n-1])
		}
		rows = append(rows, row)
	}

	sheet := "Requests"
	if filter.Kind != "" {
		sheet = string(filter.Kind)
	}
	return export.WriteRequestsWorkbook(w, sheet, rows)
}

func (s *reportService) WriteCertificate(ctx context.Context, w io.Writer, kind workflow.Kind, id uuid.UUID) error {
	stored, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "request")
	}
	if stored.Kind != kind {
		return fmt.Errorf("%w: %s request %s", ErrNotFound, kind, id)
	}
	if !stored.Status.IsTerminal() {
		return fmt.Errorf("%w: request is still %s", ErrConflict, stored.Status)
	}

	res := toRequestResponse(stored)
	cert := export.Certificate{
		Title:          s.tr.T(ctx, "CertificateTitle", nil),
		DecisionsTitle: s.tr.T(ctx, "CertificateDecisions", nil),
		GeneratedAt:    s.now(),
		Lines: []export.CertificateLine{
			{Label: s.tr.T(ctx, "CertificateWorker", nil), Value: workerNames(res.Workers)},
			{Label: s.tr.T(ctx, "CertificateKind", nil), Value: res.Kind},
			{Label: s.tr.T(ctx, "CertificateStatus", nil), Value: res.Status},
		},
	}
	if res.StartDate != "" {
		cert.Lines = append(cert.Lines, export.CertificateLine{
			Label: s.tr.T(ctx, "CertificatePeriod", nil),
			Value: fmt.Sprintf("%s - %s (%d)", res.StartDate, res.EndDate, res.Days),
		})
	}
	if res.Destination != "" {
		cert.Lines = append(cert.Lines, export.CertificateLine{
			Label: s.tr.T(ctx, "CertificateDestination", nil),
			Value: res.Destination,
		})
	}
	if res.GrantedAmount != nil {
		cert.Lines = append(cert.Lines, export.CertificateLine{
			Label: s.tr.T(ctx, "CertificateAmount", nil),
			Value: fmt.Sprintf("%s / %s", res.GrantedAmount.StringFixed(2), res.RequestedAmount.StringFixed(2)),
		})
	}
	for _, d := range res.Decisions {
		cert.Decisions = append(cert.Decisions, s.decisionLine(ctx, d))
	}

	return export.WriteCertificate(w, cert)
}

// decisionLine reads like "2025-06-02 10:00:00 HR (Sonia): approved - ok".
func (s *reportService) decisionLine(ctx context.Context, d DecisionResponse) string {
	verdict := s.tr.T(ctx, "CertificateRejected", nil)
	if d.Approved {
		verdict = s.tr.T(ctx, "CertificateApproved", nil)
	}
	line := fmt.Sprintf("%s %s (%s): %s", d.CreatedAt, s.labels.RoleLabel(ctx, workflow.Role(d.Role)), d.ActorName, verdict)
	if d.Comment != "" {
		line += " - " + d.Comment
	}
	return line
}

func workerNames(workers []WorkerSummary) string {
	names := make([]string, 0, len(workers))
	for _, w := range workers {
		names = append(names, w.Name)
	}
	return strings.Join(names, ", ")
}
