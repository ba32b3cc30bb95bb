// Package notify delivers assignment notifications by mail.
package notify

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log"
	"strings"
)

//go:embed templates/assignment.html
var assignmentHTML string

var assignmentTmpl = template.Must(template.New("assignment").Parse(assignmentHTML))

const assignmentSubject = "New task assignment"

// Assignment is what the assigned user is told about.
type Assignment struct {
	TaskID      int64
	TaskName    string
	ProjectName string
	UserName    string
	Email       string
}

type Notifier interface {
	NotifyAssignment(ctx context.Context, a Assignment) error
}

type Options struct {
	Driver string // log | smtp | resend
	From   string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string

	ResendAPIKey   string
	ResendEndpoint string

	BaseURL string
}

// New picks the delivery backend named by opts.Driver.
func New(opts Options) (Notifier, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "log":
		return LogNotifier{BaseURL: opts.BaseURL}, nil
	case "smtp":
		if opts.SMTPHost == "" {
			return nil, fmt.Errorf("smtp notifier: SMTP_HOST is required")
		}
		return &SMTPNotifier{
			Host:    opts.SMTPHost,
			Port:    opts.SMTPPort,
			User:    opts.SMTPUser,
			Pass:    opts.SMTPPass,
			From:    opts.From,
			BaseURL: opts.BaseURL,
		}, nil
	case "resend":
		if opts.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend notifier: RESEND_API_KEY is required")
		}
		return NewResendNotifier(opts.ResendAPIKey, opts.From, opts.ResendEndpoint, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", opts.Driver)
	}
}

// Render builds the HTML body of an assignment mail.
func Render(a Assignment, baseURL string) (string, error) {
	data := struct {
		Assignment
		Link string
	}{Assignment: a}
	if baseURL != "" {
		data.Link = fmt.Sprintf("%s/tasks/%d", strings.TrimRight(baseURL, "/"), a.TaskID)
	}

	var buf bytes.Buffer
	if err := assignmentTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render assignment mail: %w", err)
	}
	return buf.String(), nil
}

// LogNotifier writes the notification to the process log instead of sending it.
type LogNotifier struct {
	BaseURL string
}

func (n LogNotifier) NotifyAssignment(_ context.Context, a Assignment) error {
	if a.Email == "" {
		return fmt.Errorf("no email address for user %q", a.UserName)
	}
	body, err := Render(a, n.BaseURL)
	if err != nil {
		return err
	}
	log.Printf("[MAIL] to=%s subject=%q\n%s", a.Email, assignmentSubject, body)
	return nil
}
