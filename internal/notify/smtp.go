package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"swiftfactureBack/internal/models"
)

var headerSanitizer = strings.NewReplacer("\r", " ", "\n", " ")

// SMTPSender sends HTML mail through an authenticated SMTP relay.
type SMTPSender struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host, port, user, password, from string) *SMTPSender {
	if from == "" {
		from = user
	}
	return &SMTPSender{Host: host, Port: port, User: user, Password: password, From: from, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	if s.Host == "" || s.Port == "" || s.From == "" {
		return errors.New("missing SMTP configuration")
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"utf-8\"\r\n"+
			"\r\n%s\r\n",
		s.From, headerSanitizer.Replace(to), headerSanitizer.Replace(subject), htmlBody,
	))

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}
	send := s.sendMail
	if send == nil {
		send = smtp.SendMail
	}
	return send(s.Host+":"+s.Port, auth, s.From, []string{to}, msg)
}

// SendTrialReminder renders and mails a reminder directly. It lets the
// reminder job run without a separately deployed email function.
func (s *SMTPSender) SendTrialReminder(ctx context.Context, email models.TrialReminderEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body, err := RenderTrialReminder(email)
	if err != nil {
		return err
	}
	return s.Send(email.Email, subject, body)
}
