package accessrequests

import "fmt"

// Status of a dataset request within its parent access request.
type Status string

const (
	StatusNew               Status = "New"
	StatusAcknowledged      Status = "Acknowledged"
	StatusApproved          Status = "Approved"
	StatusDeclined          Status = "Declined"
	StatusDataAgreementSent Status = "Data Agreement Sent"
	StatusComplete          Status = "Complete"
)

// Terminal reports whether no further transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusComplete
}

// Action names an audit log entry. The wording currently matches the status
// names but is kept separate so the two can diverge.
type Action string

const (
	ActionCreated           Action = "Created"
	ActionAcknowledged      Action = "Acknowledged"
	ActionApproved          Action = "Approved"
	ActionDeclined          Action = "Declined"
	ActionDataAgreementSent Action = "Data Agreement Sent"
	ActionComplete          Action = "Complete"
)

// InvalidTransitionError reports a transition attempted from the wrong source
// state. It matches ErrInvalidTransition under errors.Is.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("dataset request cannot transition from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
