package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// DraftRepository owns the review state machine. Transitions are
// single guarded statements: the WHERE clause carries the legality
// check, so two concurrent approvals cannot both succeed.
type DraftRepository struct {
	db *sql.DB
}

func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS drafts (
	id TEXT PRIMARY KEY,
	state TEXT NOT NULL,
	needs_review BOOLEAN NOT NULL DEFAULT FALSE,
	review_reason TEXT NOT NULL DEFAULT '',
	fields JSONB NOT NULL,
	fee JSONB,
	bundle JSONB NOT NULL DEFAULT '[]'::jsonb,
	source_filename TEXT NOT NULL,
	reject_reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	decided_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_drafts_state ON drafts(state);
CREATE INDEX IF NOT EXISTS idx_drafts_created_at ON drafts(created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const draftColumns = `id, state, needs_review, review_reason, fields, fee, bundle, source_filename, reject_reason, created_at, decided_at`

// Create inserts a pending draft. An existing non-terminal draft with
// the same id is a duplicate; a terminal one is replaced wholesale,
// because regeneration must replace stale artifacts, never append.
func (r *DraftRepository) Create(ctx context.Context, draft *domain.Draft) error {
	fieldsJSON, err := json.Marshal(draft.Fields)
	if err != nil {
		return fmt.Errorf("marshal draft fields: %w", err)
	}
	var feeJSON []byte
	if draft.Fee != nil {
		feeJSON, err = json.Marshal(draft.Fee)
		if err != nil {
			return fmt.Errorf("marshal draft fee: %w", err)
		}
	}
	bundleJSON, err := json.Marshal(draft.Bundle)
	if err != nil {
		return fmt.Errorf("marshal draft bundle: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO drafts (
	id, state, needs_review, review_reason, fields, fee, bundle, source_filename, reject_reason, created_at, decided_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'',$9,NULL)
ON CONFLICT (id) DO UPDATE
SET state = EXCLUDED.state,
	needs_review = EXCLUDED.needs_review,
	review_reason = EXCLUDED.review_reason,
	fields = EXCLUDED.fields,
	fee = EXCLUDED.fee,
	bundle = EXCLUDED.bundle,
	source_filename = EXCLUDED.source_filename,
	reject_reason = '',
	created_at = EXCLUDED.created_at,
	decided_at = NULL
WHERE drafts.state IN ('approved','rejected')
`,
		draft.ID, string(domain.DraftPending), draft.NeedsReview, draft.ReviewReason,
		fieldsJSON, nullableJSON(feeJSON), bundleJSON, draft.SourceFilename, draft.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert draft rows: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDuplicateDraft, "create draft", fmt.Errorf("id %s is pending", draft.ID))
	}
	return nil
}

func (r *DraftRepository) GetByID(ctx context.Context, id string) (*domain.Draft, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+draftColumns+`
FROM drafts
WHERE id = $1
`, id)

	draft, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDraftNotFound, "get draft", fmt.Errorf("id %s", id))
		}
		return nil, err
	}
	return draft, nil
}

func (r *DraftRepository) List(ctx context.Context, state domain.DraftState) ([]domain.Draft, error) {
	query := `
SELECT ` + draftColumns + `
FROM drafts
`
	var args []any
	if state != "" {
		query += `WHERE state = $1
`
		args = append(args, string(state))
	}
	query += `ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []domain.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}
	return drafts, nil
}

func (r *DraftRepository) Approve(ctx context.Context, id string) (*domain.Draft, error) {
	return r.transition(ctx, id, domain.DraftApproved, "")
}

func (r *DraftRepository) Reject(ctx context.Context, id, reason string) (*domain.Draft, error) {
	return r.transition(ctx, id, domain.DraftRejected, reason)
}

// transition moves a pending draft to a terminal state. The guarded
// UPDATE is the atomicity point; losing racers fall through to the
// probe that tells not-found apart from an illegal transition.
func (r *DraftRepository) transition(ctx context.Context, id string, to domain.DraftState, reason string) (*domain.Draft, error) {
	row := r.db.QueryRowContext(ctx, `
UPDATE drafts
SET state = $2, reject_reason = $3, decided_at = $4
WHERE id = $1 AND state = 'pending'
RETURNING `+draftColumns+`
`, id, string(to), reason, time.Now().UTC())

	draft, err := scanDraft(row)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var current string
	probeErr := r.db.QueryRowContext(ctx, `SELECT state FROM drafts WHERE id = $1`, id).Scan(&current)
	if errors.Is(probeErr, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrDraftNotFound, "transition draft", fmt.Errorf("id %s", id))
	}
	if probeErr != nil {
		return nil, fmt.Errorf("probe draft state: %w", probeErr)
	}
	return nil, domain.WrapError(domain.ErrInvalidTransition, "transition draft",
		fmt.Errorf("id %s is %s, not pending", id, current))
}

func (r *DraftRepository) PurgeAll(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drafts`)
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge drafts rows: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (*domain.Draft, error) {
	var draft domain.Draft
	var state string
	var fieldsRaw, feeRaw, bundleRaw []byte
	var decidedAt sql.NullTime

	err := row.Scan(
		&draft.ID, &state, &draft.NeedsReview, &draft.ReviewReason,
		&fieldsRaw, &feeRaw, &bundleRaw, &draft.SourceFilename, &draft.RejectReason,
		&draft.CreatedAt, &decidedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan draft: %w", err)
	}

	if err := json.Unmarshal(fieldsRaw, &draft.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal draft fields: %w", err)
	}
	if len(feeRaw) > 0 {
		var fee domain.FeeAssessment
		if err := json.Unmarshal(feeRaw, &fee); err != nil {
			return nil, fmt.Errorf("unmarshal draft fee: %w", err)
		}
		draft.Fee = &fee
	}
	if len(bundleRaw) > 0 {
		if err := json.Unmarshal(bundleRaw, &draft.Bundle); err != nil {
			return nil, fmt.Errorf("unmarshal draft bundle: %w", err)
		}
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		draft.DecidedAt = &t
	}
	draft.State = domain.DraftState(state)
	return &draft, nil
}

// nullableJSON maps an absent payload to SQL NULL instead of the
// empty string, which jsonb would reject.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
