package extraction

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

//go:embed fields_schema.json
var fieldsSchemaJSON []byte

var fieldsSchema = mustCompileFieldsSchema()

func mustCompileFieldsSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields_schema.json", bytes.NewReader(fieldsSchemaJSON)); err != nil {
		panic(fmt.Sprintf("extraction: add schema resource: %v", err))
	}
	schema, err := compiler.Compile("fields_schema.json")
	if err != nil {
		panic(fmt.Sprintf("extraction: compile schema: %v", err))
	}
	return schema
}

// wireFields is the JSON contract the model is prompted to honor.
// Every key is nullable: the model reports what it read, nothing more.
type wireFields struct {
	ApplicantName *string  `json:"applicant_name"`
	CompanyID     *string  `json:"company_id"`
	Contact       *string  `json:"contact"`
	Address       *string  `json:"address"`
	Purpose       *string  `json:"purpose"`
	Location      *string  `json:"location"`
	AreaM2        *float64 `json:"area_m2"`
	StartDate     *string  `json:"start_date"`
	EndDate       *string  `json:"end_date"`
	Confidence    *float64 `json:"confidence"`
}

// parseModelResponse turns the model's free-form reply into typed
// fields. The reply is schema-validated first: a response that does
// not conform is an unparseable-response failure, never a best-effort
// merge of whatever keys happen to look right.
func parseModelResponse(raw string) (domain.ExtractedFields, error) {
	payload := extractJSONObject(stripCodeFences(raw))

	var generic any
	if err := json.Unmarshal([]byte(payload), &generic); err != nil {
		return domain.ExtractedFields{}, domain.WrapError(domain.ErrUnparseableResponse, "extract.parse",
			fmt.Errorf("invalid json: %w", err))
	}
	if err := fieldsSchema.Validate(generic); err != nil {
		return domain.ExtractedFields{}, domain.WrapError(domain.ErrUnparseableResponse, "extract.parse",
			fmt.Errorf("schema violation: %w", err))
	}

	var wire wireFields
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return domain.ExtractedFields{}, domain.WrapError(domain.ErrUnparseableResponse, "extract.parse", err)
	}

	fields := domain.ExtractedFields{
		ApplicantName: deref(wire.ApplicantName),
		CompanyID:     deref(wire.CompanyID),
		Contact:       deref(wire.Contact),
		Address:       deref(wire.Address),
		Purpose:       deref(wire.Purpose),
		Location:      deref(wire.Location),
		AreaM2:        wire.AreaM2,
		RawResponse:   []byte(raw),
	}
	if wire.Confidence != nil {
		fields.Confidence = *wire.Confidence
	}

	start, err := parseWireDate(wire.StartDate)
	if err != nil {
		return domain.ExtractedFields{}, domain.WrapError(domain.ErrUnparseableResponse, "extract.parse",
			fmt.Errorf("start_date: %w", err))
	}
	end, err := parseWireDate(wire.EndDate)
	if err != nil {
		return domain.ExtractedFields{}, domain.WrapError(domain.ErrUnparseableResponse, "extract.parse",
			fmt.Errorf("end_date: %w", err))
	}
	fields.StartDate = start
	fields.EndDate = end

	return fields, nil
}

func parseWireDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// stripCodeFences removes a surrounding markdown fence. Models wrap
// JSON in ```json blocks no matter how firmly the prompt says not to.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
