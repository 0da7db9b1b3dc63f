// Package log is a notifier that writes emails to the application log
// instead of delivering them. Used in development and tests.
package log

import (
	"context"
	"strings"

	"rasd-api/internal/domain/notify"
	"rasd-api/internal/platform/logger"
)

type Notifier struct {
	log logger.Logger
}

func New(log logger.Logger) *Notifier {
	return &Notifier{log: log}
}

func (n *Notifier) Send(_ context.Context, email notify.Email) error {
	subject, err := email.Subject()
	if err != nil {
		return err
	}

	n.log.Info("email", map[string]any{
		"template": string(email.Template),
		"to":       strings.Join(email.To, ","),
		"subject":  subject,
	})
	return nil
}
