package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/observability/logging"
)

func TestNotifyDraftCreatedSendsMailWithFeeLine(t *testing.T) {
	n := NewSMTPNotifier("mail.example.test:25", "zuvp@mesto.test", []string{"urednik@mesto.test"}, logging.NewNopLogger())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	draft := &domain.Draft{
		ID:             "draft-1",
		SourceFilename: "zadost.pdf",
		Fields:         domain.ExtractedFields{ApplicantName: "Jan Novak"},
		Fee:            &domain.FeeAssessment{TotalCZK: 1000, VariableSymbol: "1234567890"},
		CreatedAt:      time.Now().UTC(),
	}
	if err := n.NotifyDraftCreated(context.Background(), draft); err != nil {
		t.Fatalf("NotifyDraftCreated() error = %v", err)
	}

	if gotAddr != "mail.example.test:25" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "zuvp@mesto.test" || len(gotTo) != 1 || gotTo[0] != "urednik@mesto.test" {
		t.Fatalf("unexpected envelope from=%q to=%v", gotFrom, gotTo)
	}

	body := string(gotMsg)
	for _, want := range []string{
		"Subject: Novy koncept rozhodnuti ZUVP ke kontrole",
		"ID konceptu: draft-1",
		"Zadatel: Jan Novak",
		"Vymereny poplatek: 1000 Kc (VS 1234567890)",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("mail body missing %q:\n%s", want, body)
		}
	}
	if !strings.Contains(body, "\r\n\r\n") {
		t.Fatalf("expected blank line between headers and body")
	}
}

func TestNotifyDraftCreatedExplainsReviewReason(t *testing.T) {
	n := NewSMTPNotifier("mail.example.test:25", "zuvp@mesto.test", []string{"urednik@mesto.test"}, logging.NewNopLogger())

	var gotMsg []byte
	n.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	draft := &domain.Draft{
		ID:           "draft-2",
		NeedsReview:  true,
		ReviewReason: "missing fields: area_m2, start_date",
	}
	if err := n.NotifyDraftCreated(context.Background(), draft); err != nil {
		t.Fatalf("NotifyDraftCreated() error = %v", err)
	}

	if !strings.Contains(string(gotMsg), "Vyzaduje rucni kontrolu: missing fields: area_m2, start_date") {
		t.Fatalf("mail body missing review reason:\n%s", gotMsg)
	}
}

func TestNotifyWithoutRecipientsIsNoop(t *testing.T) {
	n := NewSMTPNotifier("mail.example.test:25", "zuvp@mesto.test", nil, logging.NewNopLogger())
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatalf("send must not be called without recipients")
		return nil
	}

	if err := n.NotifyDraftCreated(context.Background(), &domain.Draft{ID: "draft-1"}); err != nil {
		t.Fatalf("NotifyDraftCreated() error = %v", err)
	}
}

func TestNotifySurfacesSendFailure(t *testing.T) {
	n := NewSMTPNotifier("mail.example.test:25", "zuvp@mesto.test", []string{"urednik@mesto.test"}, logging.NewNopLogger())
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := n.NotifyDraftCreated(context.Background(), &domain.Draft{ID: "draft-1"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected send failure surfaced, got %v", err)
	}
}
