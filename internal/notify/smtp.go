package notify

import (
	"context"
	"fmt"
	"net/smtp"
)

type SMTPNotifier struct {
	Host    string
	Port    string
	User    string
	Pass    string
	From    string
	BaseURL string
}

func (n *SMTPNotifier) NotifyAssignment(ctx context.Context, a Assignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.Email == "" {
		return fmt.Errorf("no email address for user %q", a.UserName)
	}
	html, err := Render(a, n.BaseURL)
	if err != nil {
		return err
	}

	port := n.Port
	if port == "" {
		port = "587"
	}
	addr := n.Host + ":" + port

	var auth smtp.Auth
	if n.User != "" {
		auth = smtp.PlainAuth("", n.User, n.Pass, n.Host)
	}

	if err := smtp.SendMail(addr, auth, n.From, []string{a.Email}, buildMessage(n.From, a.Email, assignmentSubject, html)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, html string) []byte {
	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		html
	return []byte(msg)
}
