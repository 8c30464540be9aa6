package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ufsoft/screener/internal/pkg/config"
)

// Mailer delivers a plain text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no SMTP
// host is configured.
func NewMailer(cfg config.SMTP) Mailer {
	if cfg.Host == "" {
		log.Warn("[Mail] SMTP_HOST not set, outgoing mail is only logged")
		return LogMailer{}
	}
	if cfg.Sender == "" {
		cfg.Sender = fmt.Sprintf("no-reply@%s", cfg.Host)
		log.Infof("[Mail] SMTP_SENDER not set, using default sender: %s", cfg.Sender)
	}
	return &SMTPMailer{cfg: cfg}
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	cfg config.SMTP
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.cfg.Sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			body,
	)
	if err := smtp.SendMail(addr, auth, m.cfg.Sender, []string{to}, msg); err != nil {
		log.Errorf("[Mail] SMTP send error: %v", err)
		return err
	}
	log.Infof("[Mail] Email sent to %s via %s", to, addr)
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	log.Infof("[Mail] To: %s Subject: %s\n%s", to, subject, body)
	return nil
}

// Message is a delivered message, kept by RecordingMailer.
type Message struct {
	To      string
	Subject string
	Body    string
}

// RecordingMailer keeps messages in memory.
type RecordingMailer struct {
	mu       sync.Mutex
	messages []Message
}

func (m *RecordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *RecordingMailer) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}
