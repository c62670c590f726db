package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DraftState string

const (
	DraftPending  DraftState = "pending"
	DraftApproved DraftState = "approved"
	DraftRejected DraftState = "rejected"
)

// Terminal reports whether a draft can no longer change state.
func (s DraftState) Terminal() bool {
	return s == DraftApproved || s == DraftRejected
}

type ArtifactKind string

const (
	ArtifactPermit             ArtifactKind = "permit"
	ArtifactPaymentInstruction ArtifactKind = "payment_instruction"
)

// Artifact is one generated human-readable document.
type Artifact struct {
	Kind     ArtifactKind `json:"kind"`
	Format   string       `json:"format"`
	Filename string       `json:"filename"`
	Content  []byte       `json:"content"`
	Path     string       `json:"path,omitempty"`
}

// DocumentBundle keeps the generated artifacts in issue order.
type DocumentBundle []Artifact

// Find returns the artifact of the given kind, if present.
func (b DocumentBundle) Find(kind ArtifactKind) (Artifact, bool) {
	for _, a := range b {
		if a.Kind == kind {
			return a, true
		}
	}
	return Artifact{}, false
}

// Draft is a permit decision candidate awaiting a clerk. A draft either
// carries a fee and a full bundle, or is flagged for manual review with
// neither. It never exists half-built.
type Draft struct {
	ID             string          `json:"id"`
	State          DraftState      `json:"state"`
	NeedsReview    bool            `json:"needs_review"`
	ReviewReason   string          `json:"review_reason,omitempty"`
	Fields         ExtractedFields `json:"fields"`
	Fee            *FeeAssessment  `json:"fee,omitempty"`
	Bundle         DocumentBundle  `json:"bundle,omitempty"`
	SourceFilename string          `json:"source_filename"`
	CreatedAt      time.Time       `json:"created_at"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty"`
	RejectReason   string          `json:"reject_reason,omitempty"`
}

// draftNamespace scopes the deterministic v5 ids minted for drafts.
var draftNamespace = uuid.MustParse("7c9e2f0a-41d3-4b8a-9f6e-2d5a8c1b3e70")

// NewDraftID derives a stable id from the source filename and the
// moment of ingestion, so reprocessing the same intake event lands on
// the same draft instead of minting a sibling.
func NewDraftID(filename string, receivedAt time.Time) string {
	seed := fmt.Sprintf("%s|%s", filename, receivedAt.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(draftNamespace, []byte(seed)).String()
}
