package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRender_ContainsUserAndTask(t *testing.T) {
	body, err := Render(Assignment{TaskID: 7, TaskName: "Migrate <db>", UserName: "Bob"}, "https://pms.local/")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "Hello, Bob.") {
		t.Fatalf("missing greeting: %s", body)
	}
	if !strings.Contains(body, "You have been assigned a new task: <strong>Migrate &lt;db&gt;</strong>") {
		t.Fatalf("task name not escaped or missing: %s", body)
	}
	if !strings.Contains(body, `href="https://pms.local/tasks/7"`) {
		t.Fatalf("missing link: %s", body)
	}
}

func TestNew_Drivers(t *testing.T) {
	if n, err := New(Options{}); err != nil {
		t.Fatalf("default driver: %v", err)
	} else if _, ok := n.(LogNotifier); !ok {
		t.Fatalf("default driver = %T, want LogNotifier", n)
	}
	if _, err := New(Options{Driver: "smtp"}); err == nil {
		t.Fatalf("smtp without host accepted")
	}
	if _, err := New(Options{Driver: "resend"}); err == nil {
		t.Fatalf("resend without key accepted")
	}
	if _, err := New(Options{Driver: "pigeon"}); err == nil {
		t.Fatalf("unknown driver accepted")
	}
}

func TestResendNotifier_PostsMail(t *testing.T) {
	var got resendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	n := NewResendNotifier("re_key", "pms@example.com", srv.URL, "")
	err := n.NotifyAssignment(context.Background(), Assignment{TaskID: 1, TaskName: "Ship", UserName: "Ann", Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if auth != "Bearer re_key" {
		t.Fatalf("authorization = %q", auth)
	}
	if len(got.To) != 1 || got.To[0] != "ann@example.com" || got.From != "pms@example.com" {
		t.Fatalf("request = %+v", got)
	}
	if !strings.Contains(got.HTML, "Ship") {
		t.Fatalf("html body missing task: %s", got.HTML)
	}
}

func TestResendNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	n := NewResendNotifier("re_key", "pms@example.com", srv.URL, "")
	err := n.NotifyAssignment(context.Background(), Assignment{TaskName: "Ship", UserName: "Ann", Email: "ann@example.com"})
	if err == nil || !strings.Contains(err.Error(), "422") {
		t.Fatalf("got %v, want status 422 error", err)
	}
}

func TestLogNotifier_RequiresEmail(t *testing.T) {
	if err := (LogNotifier{}).NotifyAssignment(context.Background(), Assignment{UserName: "nomail"}); err == nil {
		t.Fatalf("missing email accepted")
	}
}
