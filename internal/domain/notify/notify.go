// Package notify defines the outbound email port used by the domain services.
//
// Delivery is best effort: services log and continue when Send fails, so a
// broken mail pipeline never rolls back a committed state transition.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// Template names one of the transactional emails sent by the system.
type Template string

const (
	AccessRequestCreated       Template = "dar_created"
	AccessRequestCompleted     Template = "dar_completed"
	DatasetRequestCreated      Template = "dsr_created"
	DatasetRequestAcknowledged Template = "dsr_acknowledged"
	DatasetRequestApproved     Template = "dsr_approved"
	DatasetRequestDeclined     Template = "dsr_declined"
	DatasetRequestAgreement    Template = "dsr_agreement"
	DatasetRequestCompleted    Template = "dsr_completed"
	RegistrationCreated        Template = "registration_created"
	RegistrationApproved       Template = "registration_approved"
	RegistrationDeclined       Template = "registration_declined"
)

var subjects = map[Template]string{
	AccessRequestCreated:       "RASD Acknowledgement of Data Access Request ID {{.request_id}}",
	AccessRequestCompleted:     "RASD Completion of Data Access Request ID {{.request_id}}",
	DatasetRequestCreated:      "New Data Access Request for your organisation - Request ID {{.request_id}}",
	DatasetRequestAcknowledged: "RASD Acknowledgement of Request ID {{.request_id}}",
	DatasetRequestApproved:     "RASD Request ID {{.request_id}} Approved",
	DatasetRequestDeclined:     "RASD Request ID {{.request_id}} Declined",
	DatasetRequestAgreement:    "RASD Agreement executed for Request ID {{.request_id}}",
	DatasetRequestCompleted:    "RASD Completion of Request ID {{.request_id}}",
	RegistrationCreated:        "RASD Registration Request Received",
	RegistrationApproved:       "RASD Registration Request has been approved",
	RegistrationDeclined:       "RASD Registration Request has been declined",
}

// Email is one role-addressed template email.
type Email struct {
	Template Template
	To       []string
	Cc       []string
	Bcc      []string
	Data     map[string]any
}

// Subject renders the subject line for the email's template and data.
func (e Email) Subject() (string, error) {
	raw, ok := subjects[e.Template]
	if !ok {
		return "", fmt.Errorf("notify: unknown template %q", e.Template)
	}
	tmpl, err := template.New(string(e.Template)).Parse(raw)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, e.Data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Notifier delivers template emails. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}
