package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultResendEndpoint = "https://api.resend.com/emails"

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// ResendNotifier sends through the Resend HTTP API.
type ResendNotifier struct {
	apiKey   string
	from     string
	endpoint string
	baseURL  string
	client   *http.Client
}

func NewResendNotifier(apiKey, from, endpoint, baseURL string) *ResendNotifier {
	if endpoint == "" {
		endpoint = defaultResendEndpoint
	}
	return &ResendNotifier{
		apiKey:   apiKey,
		from:     from,
		endpoint: endpoint,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *ResendNotifier) NotifyAssignment(ctx context.Context, a Assignment) error {
	if a.Email == "" {
		return fmt.Errorf("no email address for user %q", a.UserName)
	}
	html, err := Render(a, n.baseURL)
	if err != nil {
		return err
	}

	jsonBody, err := json.Marshal(resendRequest{
		From:    n.from,
		To:      []string{a.Email},
		Subject: assignmentSubject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}
	return nil
}
