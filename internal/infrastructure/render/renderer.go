package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// GeneratedAtPrefix marks the single line that carries the render
// timestamp. Everything else in an artifact is a pure function of the
// draft, so equality checks strip lines with this prefix.
const GeneratedAtPrefix = "Vygenerováno:"

const paymentDueDays = 30

// Renderer produces the permit and payment-instruction artifacts for
// a complete draft. It refuses drafts that lack the legally required
// fields rather than fabricating a document around the gaps.
type Renderer struct {
	issuer  string
	account string
	now     func() time.Time

	templates *template.Template
}

type Options struct {
	Now func() time.Time
}

func New(issuer, account string) (*Renderer, error) {
	return NewWithOptions(issuer, account, Options{})
}

func NewWithOptions(issuer, account string, options Options) (*Renderer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	return &Renderer{
		issuer:    issuer,
		account:   account,
		now:       now,
		templates: templates,
	}, nil
}

func (r *Renderer) Render(_ context.Context, draft *domain.Draft) (domain.DocumentBundle, error) {
	if draft == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "render", errors.New("nil draft"))
	}
	if missing := draft.Fields.MissingRequired(); len(missing) > 0 {
		return nil, domain.WrapError(domain.ErrMissingRequiredField, "render",
			fmt.Errorf("cannot issue permit without: %s", strings.Join(missing, ", ")))
	}
	if draft.Fee == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "render", errors.New("draft carries no fee assessment"))
	}

	data := r.templateData(draft)

	shortID := draft.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	permit, err := r.execute("permit.tmpl", data)
	if err != nil {
		return nil, err
	}
	payment, err := r.execute("payment.tmpl", data)
	if err != nil {
		return nil, err
	}

	return domain.DocumentBundle{
		{
			Kind:     domain.ArtifactPermit,
			Format:   "txt",
			Filename: fmt.Sprintf("povoleni_%s.txt", shortID),
			Content:  permit,
		},
		{
			Kind:     domain.ArtifactPaymentInstruction,
			Format:   "txt",
			Filename: fmt.Sprintf("platba_%s.txt", shortID),
			Content:  payment,
		},
	}, nil
}

type documentData struct {
	Issuer         string
	DraftID        string
	ApplicantName  string
	CompanyID      string
	Address        string
	Contact        string
	Location       string
	Purpose        string
	AreaM2         string
	StartDate      string
	EndDate        string
	DurationDays   int
	Rate           string
	TotalCZK       int64
	VariableSymbol string
	Account        string
	DueDate        string
	GeneratedAt    string
}

func (r *Renderer) templateData(draft *domain.Draft) documentData {
	fee := draft.Fee
	symbol := fee.VariableSymbol
	if symbol == "" {
		symbol = domain.VariableSymbolFor(draft.ID)
	}

	// Due date hangs off the draft's creation, not the render clock,
	// so regeneration cannot silently move a deadline.
	dueDate := draft.CreatedAt.AddDate(0, 0, paymentDueDays)

	return documentData{
		Issuer:         r.issuer,
		DraftID:        draft.ID,
		ApplicantName:  draft.Fields.ApplicantName,
		CompanyID:      draft.Fields.CompanyID,
		Address:        draft.Fields.Address,
		Contact:        draft.Fields.Contact,
		Location:       draft.Fields.Location,
		Purpose:        draft.Fields.Purpose,
		AreaM2:         formatArea(fee.AreaM2),
		StartDate:      formatDate(draft.Fields.StartDate),
		EndDate:        formatDate(draft.Fields.EndDate),
		DurationDays:   fee.DurationDays,
		Rate:           formatArea(fee.RateCZKPerM2Day),
		TotalCZK:       fee.TotalCZK,
		VariableSymbol: symbol,
		Account:        r.account,
		DueDate:        dueDate.Format("02.01.2006"),
		GeneratedAt:    r.now().UTC().Format(time.RFC3339),
	}
}

func (r *Renderer) execute(name string, data documentData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// StripGeneratedAt removes the timestamp line so two renders of the
// same draft compare byte-identical.
func StripGeneratedAt(artifact []byte) []byte {
	lines := strings.Split(string(artifact), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), GeneratedAtPrefix) {
			continue
		}
		kept = append(kept, line)
	}
	return []byte(strings.Join(kept, "\n"))
}

func formatArea(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02.01.2006")
}
