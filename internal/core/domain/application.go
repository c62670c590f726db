package domain

import "time"

// Modality selects which extraction path a document takes.
type Modality string

const (
	ModalityText   Modality = "text"
	ModalityVision Modality = "vision"
)

// RawDocument is an ingested permit application exactly as received.
type RawDocument struct {
	Content    []byte    `json:"-"`
	MediaType  string    `json:"media_type"`
	Filename   string    `json:"filename"`
	ReceivedAt time.Time `json:"received_at"`
}

// ExtractedFields holds whatever the model could read out of an
// application. Fee-bearing quantities are pointers: absent stays absent
// and is never coerced to a zero value.
type ExtractedFields struct {
	ApplicantName string     `json:"applicant_name,omitempty"`
	CompanyID     string     `json:"company_id,omitempty"`
	Contact       string     `json:"contact,omitempty"`
	Address       string     `json:"address,omitempty"`
	Purpose       string     `json:"purpose,omitempty"`
	Location      string     `json:"location,omitempty"`
	AreaM2        *float64   `json:"area_m2,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Confidence    float64    `json:"confidence,omitempty"`
	Model         string     `json:"model,omitempty"`
	Modality      Modality   `json:"modality,omitempty"`
	RawResponse   []byte     `json:"raw_response,omitempty"`
}

// MissingRequired lists the fields a permit cannot be issued without.
func (f ExtractedFields) MissingRequired() []string {
	var missing []string
	if f.ApplicantName == "" {
		missing = append(missing, "applicant_name")
	}
	if f.AreaM2 == nil {
		missing = append(missing, "area_m2")
	}
	if f.StartDate == nil {
		missing = append(missing, "start_date")
	}
	if f.EndDate == nil {
		missing = append(missing, "end_date")
	}
	return missing
}

// FeeReady reports whether the fee calculator has enough to run.
func (f ExtractedFields) FeeReady() bool {
	return f.AreaM2 != nil && f.StartDate != nil && f.EndDate != nil
}

// Empty reports whether the model read nothing usable at all, which
// tells a wrong document type apart from an incomplete application.
func (f ExtractedFields) Empty() bool {
	return f.ApplicantName == "" && f.CompanyID == "" && f.Contact == "" &&
		f.Address == "" && f.Purpose == "" && f.Location == "" &&
		f.AreaM2 == nil && f.StartDate == nil && f.EndDate == nil
}
