// Package mcp tests the MCP server wiring.
package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// fakeReviewer implements ports.DraftReviewer for tests.
type fakeReviewer struct {
	drafts []domain.Draft
	draft  *domain.Draft
	purged int
	err    error

	listedState    domain.DraftState
	approvedID     string
	rejectedID     string
	rejectedReason string
}

func (f *fakeReviewer) List(ctx context.Context, state domain.DraftState) ([]domain.Draft, error) {
	f.listedState = state
	return f.drafts, f.err
}

func (f *fakeReviewer) Get(ctx context.Context, id string) (*domain.Draft, error) {
	return f.draft, f.err
}

func (f *fakeReviewer) Approve(ctx context.Context, id string) (*domain.Draft, error) {
	f.approvedID = id
	return f.draft, f.err
}

func (f *fakeReviewer) Reject(ctx context.Context, id, reason string) (*domain.Draft, error) {
	f.rejectedID = id
	f.rejectedReason = reason
	return f.draft, f.err
}

func (f *fakeReviewer) PurgeAll(ctx context.Context) (int, error) {
	return f.purged, f.err
}

func (f *fakeReviewer) Artifact(ctx context.Context, draftID string, kind domain.ArtifactKind) (*domain.Artifact, error) {
	return nil, f.err
}

// newCallToolRequest builds a tool call request with arguments.
func newCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// TestNewRequiresReviewer ensures New rejects a nil reviewer.
func TestNewRequiresReviewer(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error")
	}
}

// TestNewConfiguresServer ensures New returns a configured server.
func TestNewConfiguresServer(t *testing.T) {
	server, err := New(&fakeReviewer{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if server == nil || server.mcpServer == nil {
		t.Fatal("expected configured server")
	}
}

// TestServeRequiresConfiguredServer ensures Serve returns an error when unconfigured.
func TestServeRequiresConfiguredServer(t *testing.T) {
	tests := []struct {
		name   string
		server *Server
	}{
		{name: "nil server", server: nil},
		{name: "missing mcp server", server: &Server{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.server.Serve(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// TestListDraftsHandlerMapsDrafts ensures drafts are flattened with fee and review detail.
func TestListDraftsHandlerMapsDrafts(t *testing.T) {
	created := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	reviewer := &fakeReviewer{
		drafts: []domain.Draft{
			{
				ID:    "draft-1",
				State: domain.DraftPending,
				Fields: domain.ExtractedFields{
					ApplicantName: "Stavby Novak s.r.o.",
					Purpose:       "leseni",
					Location:      "Husova 12, Kolin",
				},
				Fee: &domain.FeeAssessment{
					TotalCZK:       4200,
					VariableSymbol: "0001234567",
				},
				SourceFilename: "zadost_novak.pdf",
				CreatedAt:      created,
			},
			{
				ID:             "draft-2",
				State:          domain.DraftPending,
				NeedsReview:    true,
				ReviewReason:   "missing area",
				SourceFilename: "zadost_bez_plochy.txt",
				CreatedAt:      created,
			},
		},
	}
	handler := listDraftsHandler(reviewer)

	result, err := handler(context.Background(), newCallToolRequest("zuvp_drafts_list", map[string]any{
		"state": "pending",
	}))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result == nil || result.IsError {
		t.Fatal("expected success result")
	}
	if reviewer.listedState != domain.DraftPending {
		t.Fatalf("expected pending filter, got %q", reviewer.listedState)
	}

	structured, ok := result.StructuredContent.(ListDraftsResult)
	if !ok {
		t.Fatalf("expected ListDraftsResult, got %T", result.StructuredContent)
	}
	if structured.Count != 2 || len(structured.Drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %+v", structured)
	}

	first := structured.Drafts[0]
	if first.ApplicantName != "Stavby Novak s.r.o." || first.TotalCZK != 4200 {
		t.Fatalf("unexpected first summary: %+v", first)
	}
	if first.VariableSymbol != "0001234567" {
		t.Fatalf("expected variable symbol, got %q", first.VariableSymbol)
	}
	if first.CreatedAt != "2026-03-09T08:30:00Z" {
		t.Fatalf("unexpected created_at: %q", first.CreatedAt)
	}

	second := structured.Drafts[1]
	if !second.NeedsReview || second.ReviewReason != "missing area" {
		t.Fatalf("unexpected second summary: %+v", second)
	}
	if second.TotalCZK != 0 {
		t.Fatalf("expected zero fee without assessment, got %d", second.TotalCZK)
	}
}

// TestListDraftsHandlerReturnsReviewerError ensures store failures become tool errors.
func TestListDraftsHandlerReturnsReviewerError(t *testing.T) {
	reviewer := &fakeReviewer{err: errors.New("store offline")}
	handler := listDraftsHandler(reviewer)

	result, err := handler(context.Background(), newCallToolRequest("zuvp_drafts_list", nil))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected error result")
	}
}

// TestApproveDraftHandlerRequiresID ensures a blank id is rejected before any store call.
func TestApproveDraftHandlerRequiresID(t *testing.T) {
	reviewer := &fakeReviewer{}
	handler := approveDraftHandler(reviewer)

	result, err := handler(context.Background(), newCallToolRequest("zuvp_draft_approve", map[string]any{
		"draft_id": "   ",
	}))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected error result")
	}
	if reviewer.approvedID != "" {
		t.Fatal("expected no store call on invalid input")
	}
}

// TestApproveDraftHandlerMapsDecision ensures the decided draft is mapped to the output.
func TestApproveDraftHandlerMapsDecision(t *testing.T) {
	decided := time.Date(2026, 3, 9, 9, 15, 0, 0, time.UTC)
	reviewer := &fakeReviewer{
		draft: &domain.Draft{
			ID:        "draft-1",
			State:     domain.DraftApproved,
			DecidedAt: &decided,
		},
	}
	handler := approveDraftHandler(reviewer)

	result, err := handler(context.Background(), newCallToolRequest("zuvp_draft_approve", map[string]any{
		"draft_id": "draft-1",
	}))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result == nil || result.IsError {
		t.Fatal("expected success result")
	}
	if reviewer.approvedID != "draft-1" {
		t.Fatalf("expected approve on draft-1, got %q", reviewer.approvedID)
	}

	structured, ok := result.StructuredContent.(DecisionResult)
	if !ok {
		t.Fatalf("expected DecisionResult, got %T", result.StructuredContent)
	}
	if structured.State != "approved" {
		t.Fatalf("expected approved, got %q", structured.State)
	}
	if structured.DecidedAt != "2026-03-09T09:15:00Z" {
		t.Fatalf("unexpected decided_at: %q", structured.DecidedAt)
	}
}

// TestApproveDraftHandlerReturnsReviewerError ensures transition failures become tool errors.
func TestApproveDraftHandlerReturnsReviewerError(t *testing.T) {
	reviewer := &fakeReviewer{err: domain.ErrInvalidTransition}
	handler := approveDraftHandler(reviewer)

	result, err := handler(context.Background(), newCallToolRequest("zuvp_draft_approve", map[string]any{
		"draft_id": "draft-1",
	}))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected error result")
	}
}

// TestRejectDraftHandlerForwardsReason ensures the trimmed reason reaches the store.
func TestRejectDraftHandlerForwardsReason(t *testing.T) {
	reviewer := &fakeReviewer{
		draft: &domain.Draft{
			ID:           "draft-2",
			State:        domain.DraftRejected,
			RejectReason: "zabor zasahuje do vozovky",
		},
	}
	handler := rejectDraftHandler(reviewer)

	result, err := handler(context.Background(), newCallToolRequest("zuvp_draft_reject", map[string]any{
		"draft_id": "draft-2",
		"reason":   "  zabor zasahuje do vozovky  ",
	}))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result == nil || result.IsError {
		t.Fatal("expected success result")
	}
	if reviewer.rejectedID != "draft-2" {
		t.Fatalf("expected reject on draft-2, got %q", reviewer.rejectedID)
	}
	if reviewer.rejectedReason != "zabor zasahuje do vozovky" {
		t.Fatalf("expected trimmed reason, got %q", reviewer.rejectedReason)
	}

	structured, ok := result.StructuredContent.(DecisionResult)
	if !ok {
		t.Fatalf("expected DecisionResult, got %T", result.StructuredContent)
	}
	if structured.Reason != "zabor zasahuje do vozovky" {
		t.Fatalf("unexpected reason: %q", structured.Reason)
	}
}

// TestPurgeDraftsHandlerReportsCount ensures the purge total is surfaced.
func TestPurgeDraftsHandlerReportsCount(t *testing.T) {
	reviewer := &fakeReviewer{purged: 5}
	handler := purgeDraftsHandler(reviewer)

	result, err := handler(context.Background(), newCallToolRequest("zuvp_drafts_purge", nil))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result == nil || result.IsError {
		t.Fatal("expected success result")
	}

	structured, ok := result.StructuredContent.(PurgeDraftsResult)
	if !ok {
		t.Fatalf("expected PurgeDraftsResult, got %T", result.StructuredContent)
	}
	if structured.Purged != 5 {
		t.Fatalf("expected 5 purged, got %d", structured.Purged)
	}
}
