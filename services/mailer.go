package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer delivers plain-text messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	Dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{Dialer: gomail.NewDialer(host, port, username, password)}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.Dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send to %v: %w", msg.To, err)
	}
	return nil
}

// ConsoleMailer writes messages to the log instead of sending them.
type ConsoleMailer struct {
	Logger *logrus.Logger
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.Logger.WithFields(logrus.Fields{
		"from":    msg.From,
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}

// MemoryMailer keeps sent messages in Outbox.
type MemoryMailer struct {
	mu     sync.Mutex
	Outbox []Message
}

func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outbox = append(m.Outbox, msg)
	return nil
}

func (m *MemoryMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.Outbox))
	copy(out, m.Outbox)
	return out
}

type MailerConfig struct {
	Backend  string
	Host     string
	Port     int
	Username string
	Password string
	Logger   *logrus.Logger
}

// NewMailer builds the backend named by EMAIL_BACKEND.
func NewMailer(cfg MailerConfig) (Mailer, error) {
	switch cfg.Backend {
	case "smtp":
		return NewSMTPMailer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), nil
	case "console", "":
		logger := cfg.Logger
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		return &ConsoleMailer{Logger: logger}, nil
	case "memory":
		return &MemoryMailer{}, nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_BACKEND %q", cfg.Backend)
	}
}
