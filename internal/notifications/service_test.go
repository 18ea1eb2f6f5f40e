package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"relish/internal/config"
	"relish/internal/notifications"
)

func TestNewServiceReturnsNoopWhenURLMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyURL = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventBatchCompleted, notifications.Payload{"batch": "dinner.txt"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "batch completed",
			event: notifications.EventBatchCompleted,
			payload: notifications.Payload{
				"batch":      "dinner.txt",
				"resolved":   "5",
				"duplicates": "2",
				"errors":     "0",
			},
			expectTitle:   "Relish - Batch Complete",
			expectMessage: "✅ dinner.txt complete: 5 resolved, 2 duplicates",
			expectTags:    "relish,batch,completed",
		},
		{
			name:  "batch completed with errors",
			event: notifications.EventBatchCompleted,
			payload: notifications.Payload{
				"batch":      "dinner.txt",
				"resolved":   "5",
				"duplicates": "2",
				"errors":     "3",
			},
			expectTitle:   "Relish - Batch Complete (with errors)",
			expectMessage: "dinner.txt complete: 5 resolved, 2 duplicates, 3 errors",
			expectTags:    "relish,batch,completed",
		},
		{
			name:  "changes applied",
			event: notifications.EventChangesApplied,
			payload: notifications.Payload{
				"category": "venue",
				"applied":  "4",
				"skipped":  "1",
				"failed":   "0",
			},
			expectTitle:   "Relish - Changes Applied",
			expectMessage: "Applied 4 venue changes (1 skipped)",
			expectTags:    "relish,changes,applied",
		},
		{
			name:  "changes applied with failures",
			event: notifications.EventChangesApplied,
			payload: notifications.Payload{
				"category": "venue",
				"applied":  "4",
				"skipped":  "1",
				"failed":   "2",
			},
			expectTitle:   "Relish - Changes Applied (with errors)",
			expectMessage: "Applied 4 venue changes (1 skipped, 2 failed)",
			expectTags:    "relish,changes,applied",
		},
		{
			name:  "changes rejected",
			event: notifications.EventChangesRejected,
			payload: notifications.Payload{
				"category": "menu_item",
				"rejected": "3",
			},
			expectTitle:   "Relish - Changes Rejected",
			expectMessage: "Rejected 3 proposed menu_item changes",
			expectTags:    "relish,changes,rejected",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "spool",
				"error":   "parse batch: batch contains no records",
			},
			expectTitle:    "Relish - Error",
			expectMessage:  "❌ Error with spool: parse batch: batch contains no records",
			expectTags:     "relish,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyURL = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSendsAccessToken(t *testing.T) {
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyURL = server.URL
	cfg.Notifications.NtfyToken = "tk_relish_example"

	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventError, notifications.Payload{"context": "test", "error": "boom"}); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if authorization != "Bearer tk_relish_example" {
		t.Fatalf("expected bearer token header, got %q", authorization)
	}
}

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyURL = server.URL
	cfg.Notifications.Ingest = false
	cfg.Notifications.Changes = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	suppressed := []notifications.Event{
		notifications.EventBatchCompleted,
		notifications.EventChangesApplied,
		notifications.EventChangesRejected,
		notifications.EventError,
		notifications.Event("mystery"),
	}

	for _, event := range suppressed {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}
