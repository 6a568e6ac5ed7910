package notifier

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingNotifier captures alerts for inspection.
type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	messages []string
	done     chan struct{}
}

func newRecordingNotifier(expected int) *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, expected)}
}

func (r *recordingNotifier) Send(subject, message string) error {
	r.mu.Lock()
	r.subjects = append(r.subjects, subject)
	r.messages = append(r.messages, message)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingNotifier) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for notification delivery")
		}
	}
}

func resetRegistered() {
	mu.Lock()
	registered = nil
	mu.Unlock()
}

func TestPublishCircuitBreakerOpen(t *testing.T) {
	resetRegistered()
	defer resetRegistered()

	rec := newRecordingNotifier(1)
	Register(rec)

	PublishCircuitBreakerOpen("ocr-engine", 5, 5*time.Minute)
	rec.wait(t, 1)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !strings.Contains(rec.subjects[0], "OPEN") || !strings.Contains(rec.subjects[0], "ocr-engine") {
		t.Errorf("Unexpected subject: %q", rec.subjects[0])
	}
	if !strings.Contains(rec.messages[0], "5 consecutive failures") {
		t.Errorf("Expected failure count in message, got %q", rec.messages[0])
	}
}

func TestPublishFansOutToAllNotifiers(t *testing.T) {
	resetRegistered()
	defer resetRegistered()

	first := newRecordingNotifier(1)
	second := newRecordingNotifier(1)
	Register(first, second)

	PublishCircuitBreakerRecovered("ocr-engine")
	first.wait(t, 1)
	second.wait(t, 1)

	first.mu.Lock()
	defer first.mu.Unlock()
	if len(first.subjects) != 1 {
		t.Errorf("Expected first notifier to receive 1 alert, got %d", len(first.subjects))
	}
}

func TestPublishWithNoNotifiers(t *testing.T) {
	resetRegistered()
	defer resetRegistered()

	// Must not panic or block
	PublishHighFailureRate("ocr-engine", 3, 5)
}

func TestNtfyNotifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/alerts" {
			t.Errorf("Expected topic path /alerts, got %s", r.URL.Path)
		}
		if title := r.Header.Get("Title"); title != "test subject" {
			t.Errorf("Expected Title header, got %q", title)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := &NtfyNotifier{Topic: "alerts", Server: server.URL}
	if err := n.Send("test subject", "test message"); err != nil {
		t.Errorf("Send failed: %v", err)
	}
}

func TestNtfyNotifierServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := &NtfyNotifier{Topic: "alerts", Server: server.URL}
	if err := n.Send("subject", "message"); err == nil {
		t.Error("Expected error on server failure")
	}
}
