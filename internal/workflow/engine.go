package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engine applies approver decisions to requests.
type Engine struct {
	composer            Composer
	now                 func() time.Time
	requireFinalComment bool
}

type Option func(*Engine)

// WithClock overrides the decision timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithFinalCommentRequired makes a non-empty comment mandatory on terminal decisions.
func WithFinalCommentRequired(required bool) Option {
	return func(e *Engine) { e.requireFinalComment = required }
}

func NewEngine(composer Composer, opts ...Option) *Engine {
	e := &Engine{composer: composer, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyDecision validates that actor may decide req, computes the new status and
// composes one notification per subject. On success req.Status is advanced and the
// decision appended to req.Decisions; on error req is left untouched.
func (e *Engine) ApplyDecision(ctx context.Context, req *Request, actor Actor, approved bool, comment string) (Outcome, error) {
	if req.Status.IsTerminal() {
		return Outcome{}, fmt.Errorf("%w: request already decided (%s)", ErrIllegalTransition, req.Status)
	}
	if !CanAct(actor.Role, req.Status) {
		return Outcome{}, fmt.Errorf("%w: actor not authorized for current stage (role %s, status %s)",
			ErrIllegalTransition, actor.Role, req.Status)
	}
	stage := stageIndex(req.Kind, actor.Role)
	if stage < 0 {
		return Outcome{}, fmt.Errorf("%w: %s is not a stage of %s requests", ErrIllegalTransition, req.Status, req.Kind)
	}
	if err := checkSubjects(req); err != nil {
		return Outcome{}, err
	}

	final := !approved || isLastStage(req.Kind, actor.Role)
	comment = strings.TrimSpace(comment)
	if final && e.requireFinalComment && comment == "" {
		return Outcome{}, ErrCommentRequired
	}

	next := rejectedStatusFor(actor.Role)
	if approved {
		next = advanceFrom(req.Kind, stage)
	}

	decision := Decision{
		Role:      actor.Role,
		Approved:  approved,
		Comment:   comment,
		Timestamp: e.now(),
		ActorID:   actor.ID,
	}

	notes := make([]Notification, 0, len(req.Subjects))
	for _, subject := range req.Subjects {
		msg := e.composer.Compose(ctx, MessageInput{
			Kind:        req.Kind,
			Approved:    approved,
			Final:       final,
			ActorRole:   actor.Role,
			ActorName:   actor.Name,
			SubjectName: subject.Name,
			Details:     req.Details,
		})
		notes = append(notes, Notification{RecipientWorkerID: subject.WorkerID, Message: msg})
	}

	req.Status = next
	req.Decisions = append(req.Decisions, decision)

	return Outcome{
		NewStatus:     next,
		IsFinal:       final,
		Decision:      decision,
		Notifications: notes,
	}, nil
}

// checkSubjects enforces one worker per leave or advance and at least one per mission.
func checkSubjects(req *Request) error {
	n := len(req.Subjects)
	if n == 0 || (req.Kind != KindMission && n != 1) {
		return fmt.Errorf("%w: %s request %s has %d worker(s)", ErrIllegalTransition, req.Kind, req.ID, n)
	}
	return nil
}
