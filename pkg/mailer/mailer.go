package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/hugh/stockroom/pkg/config"
	"github.com/jordan-wright/email"
)

// Message is a plain-text mail to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a Message.
type Sender interface {
	Send(msg Message) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func New(cfg *config.SMTPConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTPMailer{
		host:     cfg.Host,
		user:     cfg.User,
		password: cfg.Password,
		from:     from,
		addr:     cfg.Addr(),
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	return nil
}
