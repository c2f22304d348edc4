package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/pkg/errors"
)

// Transport delivers a composed message to a set of recipients using
// the given SMTP account. One call is one message; a failure aborts the
// whole batch.
type Transport interface {
	Send(cfg model.EmailConfig, recipients []string, subject, body string) error
}

// SMTPTransport implements Transport over plain SMTP with AUTH
type SMTPTransport struct{}

// Send composes a single text message addressed to every recipient and
// hands it to the configured server. Servers without AUTH support get
// one unauthenticated retry.
func (SMTPTransport) Send(cfg model.EmailConfig, recipients []string, subject, body string) error {
	mail := email.NewEmail()
	mail.From = cfg.EmailAddress
	mail.To = recipients
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", cfg.SMTPServer, cfg.SMTPPort)
	err := mail.Send(addr, smtp.PlainAuth("", cfg.EmailAddress, cfg.Password, cfg.SMTPServer))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return errors.NewTransport("mailer", "failed to send message via "+addr, err)
	}
	return nil
}
