package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

func newDraftRepoWithMock(t *testing.T) (*DraftRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DraftRepository{db: db}, mock, func() { _ = db.Close() }
}

func draftRows(t *testing.T, state string, decidedAt any) *sqlmock.Rows {
	t.Helper()
	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "state", "needs_review", "review_reason", "fields", "fee", "bundle",
		"source_filename", "reject_reason", "created_at", "decided_at",
	}).AddRow(
		"draft-1", state, false, "",
		[]byte(`{"applicant_name":"Jan Novak","area_m2":20,"confidence":0.9}`),
		[]byte(`{"area_m2":20,"duration_days":5,"rate_czk_per_m2_day":10,"total_czk":1000,"variable_symbol":"1234567890"}`),
		[]byte(`[{"kind":"permit","format":"text/plain","filename":"povoleni_draft-1.txt","content":"b2s="}]`),
		"zadost.pdf", "", created, decidedAt,
	)
}

func TestDraftCreateReturnsDuplicateWhilePending(t *testing.T) {
	repo, mock, done := newDraftRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO drafts").
		WithArgs("draft-1", string(domain.DraftPending), false, "",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "zadost.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &domain.Draft{
		ID:             "draft-1",
		SourceFilename: "zadost.pdf",
		CreatedAt:      time.Now().UTC(),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDuplicateDraft) {
		t.Fatalf("expected ErrDuplicateDraft, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDraftCreateReplacesTerminalDraft(t *testing.T) {
	repo, mock, done := newDraftRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO drafts").
		WithArgs("draft-1", string(domain.DraftPending), true, "missing fields: area_m2",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "zadost.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &domain.Draft{
		ID:             "draft-1",
		NeedsReview:    true,
		ReviewReason:   "missing fields: area_m2",
		SourceFilename: "zadost.pdf",
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDraftApproveReturnsUpdatedRow(t *testing.T) {
	repo, mock, done := newDraftRepoWithMock(t)
	defer done()

	decided := time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("UPDATE drafts").
		WithArgs("draft-1", string(domain.DraftApproved), "", sqlmock.AnyArg()).
		WillReturnRows(draftRows(t, "approved", decided))

	draft, err := repo.Approve(context.Background(), "draft-1")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if draft.State != domain.DraftApproved {
		t.Fatalf("expected approved state, got %s", draft.State)
	}
	if draft.DecidedAt == nil || !draft.DecidedAt.Equal(decided) {
		t.Fatalf("expected decided_at %v, got %v", decided, draft.DecidedAt)
	}
	if draft.Fee == nil || draft.Fee.TotalCZK != 1000 {
		t.Fatalf("expected fee total 1000, got %+v", draft.Fee)
	}
	if len(draft.Bundle) != 1 || draft.Bundle[0].Kind != domain.ArtifactPermit {
		t.Fatalf("expected permit artifact in bundle, got %+v", draft.Bundle)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDraftApproveMissingIsNotFound(t *testing.T) {
	repo, mock, done := newDraftRepoWithMock(t)
	defer done()

	mock.ExpectQuery("UPDATE drafts").
		WithArgs("missing", string(domain.DraftApproved), "", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT state FROM drafts").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Approve(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDraftRejectOnDecidedDraftIsInvalidTransition(t *testing.T) {
	repo, mock, done := newDraftRepoWithMock(t)
	defer done()

	mock.ExpectQuery("UPDATE drafts").
		WithArgs("draft-1", string(domain.DraftRejected), "wrong applicant", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT state FROM drafts").
		WithArgs("draft-1").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow("approved"))

	_, err := repo.Reject(context.Background(), "draft-1", "wrong applicant")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDraftListFiltersByState(t *testing.T) {
	repo, mock, done := newDraftRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, state, needs_review").
		WithArgs(string(domain.DraftPending)).
		WillReturnRows(draftRows(t, "pending", nil))

	drafts, err := repo.List(context.Background(), domain.DraftPending)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if drafts[0].State != domain.DraftPending {
		t.Fatalf("expected pending state, got %s", drafts[0].State)
	}
	if drafts[0].DecidedAt != nil {
		t.Fatalf("expected nil decided_at for pending draft, got %v", drafts[0].DecidedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDraftPurgeAllReturnsDeletedCount(t *testing.T) {
	repo, mock, done := newDraftRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM drafts").
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.PurgeAll(context.Background())
	if err != nil {
		t.Fatalf("PurgeAll() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 purged drafts, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
