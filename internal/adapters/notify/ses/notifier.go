// Package ses delivers notification emails through AWS SES.
package ses

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"rasd-api/internal/domain/notify"
)

type Notifier struct {
	client *sesv2.Client
	from   string
}

func New(cfg aws.Config, from string) *Notifier {
	return &Notifier{
		client: sesv2.NewFromConfig(cfg),
		from:   from,
	}
}

func (n *Notifier) Send(ctx context.Context, email notify.Email) error {
	subject, err := email.Subject()
	if err != nil {
		return err
	}
	body, err := renderBody(email)
	if err != nil {
		return err
	}

	_, err = n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses:  email.To,
			CcAddresses:  email.Cc,
			BccAddresses: email.Bcc,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses: sending %s: %w", email.Template, err)
	}
	return nil
}

var bodies = map[notify.Template]string{
	notify.AccessRequestCreated: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>Your data access request <strong>{{.request_id}}</strong> has been received.
Each data custodian will be in contact regarding their part of your request.</p>`,
	notify.AccessRequestCompleted: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>All parts of your data access request <strong>{{.request_id}}</strong> have
now been actioned and the request is complete.</p>`,
	notify.DatasetRequestCreated: `<p>A new data access request
<strong>{{.request_id}}</strong> has been lodged for a dataset held by your
organisation for the project "{{.project_title}}". Please log in to
acknowledge the request.</p>`,
	notify.DatasetRequestAcknowledged: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>The data custodian has acknowledged your request
<strong>{{.request_id}}</strong> for the project "{{.project_title}}".</p>`,
	notify.DatasetRequestApproved: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>Your request <strong>{{.request_id}}</strong> has been approved. A data
sharing agreement will follow.</p>`,
	notify.DatasetRequestDeclined: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>Your request <strong>{{.request_id}}</strong> has been declined by the data
custodian.</p>`,
	notify.DatasetRequestAgreement: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>The data sharing agreement for request <strong>{{.request_id}}</strong> has
been sent to you for execution.</p>`,
	notify.DatasetRequestCompleted: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>Your request <strong>{{.request_id}}</strong> is complete.</p>`,
	notify.RegistrationCreated: `<p>A new registration request
<strong>{{.registration_id}}</strong> is awaiting review.</p>`,
	notify.RegistrationApproved: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>Your registration has been approved. Your temporary password is
<strong>{{.temporary_password}}</strong>. Please set a new password at
<a href="{{.create_password_url}}">{{.create_password_url}}</a>.</p>`,
	notify.RegistrationDeclined: `<p>Dear {{.given_name}} {{.family_name}},</p>
<p>Your registration <strong>{{.registration_id}}</strong> has been declined.
{{if .reason}}Reason: {{.reason}}{{end}}</p>`,
}

func renderBody(email notify.Email) (string, error) {
	raw, ok := bodies[email.Template]
	if !ok {
		return "", fmt.Errorf("ses: no body for template %q", email.Template)
	}
	tmpl, err := template.New(string(email.Template)).Parse(raw)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, email.Data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
