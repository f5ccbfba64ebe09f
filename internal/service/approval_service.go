package service

import (
	"context"
	"errors"
	"fmt"

	"hrbackend/internal/model"
	"hrbackend/internal/repository"
	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DecisionInput is an approver's verdict. GrantedAmount only applies to
// advances and defaults to the requested amount.
type DecisionInput struct {
	Approved      bool             `json:"approved"`
	Comment       string           `json:"comment"`
	GrantedAmount *decimal.Decimal `json:"granted_amount,omitempty" swaggertype:"string"`
}

// ApprovalService records HR and director decisions on requests.
type ApprovalService interface {
	Decide(ctx context.Context, kind workflow.Kind, id, actorID uuid.UUID, in DecisionInput) (*RequestResponse, error)
}

type approvalService struct {
	tx       repository.TransactionManager
	requests repository.RequestRepository
	workers  repository.WorkerRepository
	users    repository.UserRepository
	audit    repository.AuditRepository
	engine   *workflow.Engine
	notifier Notifier
	log      *zap.Logger
}

func NewApprovalService(
	tx repository.TransactionManager,
	requests repository.RequestRepository,
	workers repository.WorkerRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	engine *workflow.Engine,
	notifier Notifier,
	log *zap.Logger,
) ApprovalService {
	return &approvalService{
		tx:       tx,
		requests: requests,
		workers:  workers,
		users:    users,
		audit:    audit,
		engine:   engine,
		notifier: notifier,
		log:      log,
	}
}

func (s *approvalService) Decide(ctx context.Context, kind workflow.Kind, id, actorID uuid.UUID, in DecisionInput) (*RequestResponse, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	actor := workflow.Actor{ID: user.ID, Role: user.Role, Name: user.Name}

	var outcome workflow.Outcome
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		stored, err := s.requests.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "request")
		}
		if stored.Kind != kind {
			return fmt.Errorf("%w: %s request %s", ErrNotFound, kind, id)
		}
		for _, w := range stored.Workers {
			if w.DeletedAt.Valid {
				return fmt.Errorf("%w: worker %s was deleted", workflow.ErrIllegalTransition, w.Name)
			}
		}

		granted := decimal.Zero
		if kind == workflow.KindAdvance && in.Approved {
			granted, err = grantedAmount(stored.RequestedAmount, in.GrantedAmount)
			if err != nil {
				return err
			}
		}

		req := toWorkflowRequest(stored)
		if kind == workflow.KindAdvance && in.Approved {
			req.Details.Amount = granted
		}
		outcome, err = s.engine.ApplyDecision(txCtx, &req, actor, in.Approved, in.Comment)
		if err != nil {
			return err
		}

		decision := &model.Decision{
			Role:     outcome.Decision.Role,
			Approved: outcome.Decision.Approved,
			Comment:  outcome.Decision.Comment,
			ActorID:  outcome.Decision.ActorID,
		}
		if err := s.requests.Transition(txCtx, id, stored.Status, outcome.NewStatus, decision); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return fmt.Errorf("%w: request was decided concurrently", workflow.ErrIllegalTransition)
			}
			return fmt.Errorf("failed to save decision: %w", err)
		}

		details := map[string]interface{}{
			"kind":     stored.Kind,
			"from":     stored.Status,
			"to":       outcome.NewStatus,
			"approved": in.Approved,
			"comment":  outcome.Decision.Comment,
		}

		if kind == workflow.KindLeave && outcome.NewStatus == workflow.StatusAccepted {
			if err := s.debitLeave(txCtx, stored, &actor.ID); err != nil {
				return err
			}
		}
		if kind == workflow.KindAdvance && outcome.IsFinal {
			if err := s.requests.SetGrantedAmount(txCtx, id, granted); err != nil {
				return fmt.Errorf("failed to save granted amount: %w", err)
			}
			details["granted_amount"] = granted.StringFixed(2)
		}

		return writeAudit(txCtx, s.audit, &actor.ID, model.ActionDecideRequest, id.String(), string(stored.Kind), details)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("request decided",
		zap.String("request_id", id.String()),
		zap.String("actor_id", actor.ID.String()),
		zap.String("role", string(actor.Role)),
		zap.String("status", string(outcome.NewStatus)),
		zap.Bool("final", outcome.IsFinal))

	s.dispatch(ctx, id, outcome.Notifications)

	stored, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "request")
	}
	res := toRequestResponse(stored)
	return &res, nil
}

// debitLeave charges an accepted leave to the worker's allowance.
func (s *approvalService) debitLeave(ctx context.Context, stored *model.Request, actorID *uuid.UUID) error {
	if stored.StartDate == nil || stored.EndDate == nil {
		return fmt.Errorf("leave request %s has no period", stored.ID)
	}
	days := workflow.LeaveDays(*stored.StartDate, *stored.EndDate)
	for _, w := range stored.Workers {
		if err := s.workers.DebitLeave(ctx, w.ID, days); err != nil {
			if errors.Is(err, repository.ErrBalanceExceeded) {
				return fmt.Errorf("%w: %s cannot take %d more day(s)", workflow.ErrInsufficientBalance, w.Name, days)
			}
			return fmt.Errorf("failed to debit leave balance: %w", err)
		}
		if err := writeAudit(ctx, s.audit, actorID, model.ActionDebitLeave, w.ID.String(), w.Name, map[string]interface{}{
			"request_id": stored.ID.String(),
			"days":       days,
		}); err != nil {
			return err
		}
	}
	return nil
}

// dispatch delivers notifications after commit. Failures are logged only.
func (s *approvalService) dispatch(ctx context.Context, requestID uuid.UUID, notes []workflow.Notification) {
	if s.notifier == nil {
		return
	}
	for _, n := range notes {
		if err := s.notifier.Deliver(ctx, n.RecipientWorkerID, requestID, n.Message); err != nil {
			s.log.Warn("failed to deliver notification",
				zap.String("request_id", requestID.String()),
				zap.String("worker_id", n.RecipientWorkerID.String()),
				zap.Error(err))
		}
	}
}

// grantedAmount applies the default and the bounds 0 < granted <= requested.
func grantedAmount(requested decimal.Decimal, granted *decimal.Decimal) (decimal.Decimal, error) {
	if granted == nil {
		return requested, nil
	}
	if !granted.IsPositive() {
		return decimal.Zero, invalidf("granted_amount must be greater than zero")
	}
	if granted.GreaterThan(requested) {
		return decimal.Zero, invalidf("granted_amount %s exceeds requested %s", granted.StringFixed(2), requested.StringFixed(2))
	}
	return granted.Round(2), nil
}
