package notification

import (
	"context"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	engine := NewTemplateEngine()

	subject, body, err := engine.Render("appointment-reminder", map[string]string{
		"client_name":    "Jordan Lee",
		"date":           "2026-09-03",
		"time":           "10:00",
		"counselor_name": "Dana Reyes",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Session reminder for Jordan Lee" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "2026-09-03") || !strings.Contains(body, "Dana Reyes") {
		t.Errorf("body = %q", body)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	engine := NewTemplateEngine()
	if _, _, err := engine.Render("no-such-template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRender_MissingKeysLeftIntact(t *testing.T) {
	engine := NewTemplateEngine()
	subject, _, err := engine.Render("consent-signed", map[string]string{"client_name": "Jordan Lee"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Consent document signed by Jordan Lee" {
		t.Errorf("subject = %q", subject)
	}
}

func TestSendFromTemplate(t *testing.T) {
	sender := &MockEmailSender{}
	mgr := NewManager(sender, nil, NewTemplateEngine())

	n, err := mgr.SendFromTemplate(context.Background(), "invoice-issued", map[string]string{
		"client_name":    "Jordan Lee",
		"invoice_number": "INV-0042",
		"amount":         "$120.00",
		"practice_name":  "Riverbend Counseling",
		"period_start":   "2026-08-01",
		"period_end":     "2026-08-31",
	}, "jordan@example.com")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if n.Status != "sent" || n.SentAt == nil {
		t.Errorf("status = %q, sent_at = %v", n.Status, n.SentAt)
	}

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("got %d email calls", len(calls))
	}
	if calls[0].To != "jordan@example.com" {
		t.Errorf("recipient = %q", calls[0].To)
	}
	if !strings.Contains(calls[0].Subject, "INV-0042") {
		t.Errorf("subject = %q", calls[0].Subject)
	}
}

func TestSendFromTemplate_FailureRecorded(t *testing.T) {
	sender := &MockEmailSender{ShouldFail: true, FailError: "smtp unreachable"}
	mgr := NewManager(sender, nil, NewTemplateEngine())

	n, err := mgr.SendFromTemplate(context.Background(), "consent-signed", map[string]string{
		"client_name":    "Jordan Lee",
		"document_title": "Telehealth Consent",
		"signed_at":      "2026-08-29",
	}, "dana@riverbend.example.com")
	if err == nil {
		t.Fatal("expected send error")
	}
	if n.Status != "failed" || n.Error != "smtp unreachable" {
		t.Errorf("status = %q, error = %q", n.Status, n.Error)
	}
}

func TestRetry(t *testing.T) {
	sender := &MockEmailSender{ShouldFail: true, FailError: "smtp unreachable"}
	mgr := NewManager(sender, nil, NewTemplateEngine())

	n, _ := mgr.SendFromTemplate(context.Background(), "consent-signed", map[string]string{
		"client_name":    "Jordan Lee",
		"document_title": "Telehealth Consent",
		"signed_at":      "2026-08-29",
	}, "dana@riverbend.example.com")

	sender.ShouldFail = false
	if err := mgr.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}

	stored, err := mgr.GetNotification(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != "sent" || stored.Error != "" {
		t.Errorf("status = %q, error = %q", stored.Status, stored.Error)
	}

	if err := mgr.Retry(context.Background(), n.ID); err == nil {
		t.Fatal("expected error retrying a sent notification")
	}
}
