package workflow

import "errors"

var (
	ErrInvalidDateRange    = errors.New("end date is before start date")
	ErrPastStartDate       = errors.New("start date is in the past")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrDuplicatePending    = errors.New("a pending request of this kind already exists")
	ErrPastMonthlyDeadline = errors.New("monthly deadline for advance requests has passed")
	ErrIllegalTransition   = errors.New("illegal transition")
	ErrCommentRequired     = errors.New("a comment is required for a final decision")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidDateRange, "InvalidDateRange"},
	{ErrPastStartDate, "PastStartDate"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrDuplicatePending, "DuplicatePending"},
	{ErrPastMonthlyDeadline, "PastMonthlyDeadline"},
	{ErrIllegalTransition, "IllegalTransition"},
	{ErrCommentRequired, "CommentRequired"},
}

// Code returns the stable machine-readable code of a workflow error, or ""
// when err does not wrap one.
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}
