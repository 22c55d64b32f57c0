package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provenance tells genuine extractions apart from generated placeholders.
type Provenance string

const (
	ProvenanceLive      Provenance = "live"
	ProvenanceSynthetic Provenance = "synthetic"
)

// Role of a party in a case.
type Role string

const (
	RolePetitioner          Role = "Petitioner"
	RoleRespondent          Role = "Respondent"
	RoleAppellant           Role = "Appellant"
	RolePetitionerAppellant Role = "Petitioner/Appellant"
)

var ErrInvalidQueryKey = errors.New("invalid query key")

// QueryKey identifies a case. Construct it with NewQueryKey.
type QueryKey struct {
	CaseType   string `json:"case_type"`
	CaseNumber string `json:"case_number"`
	FilingYear string `json:"filing_year"`
}

// NewQueryKey trims the parts and rejects empty ones.
func NewQueryKey(caseType, caseNumber, filingYear string) (QueryKey, error) {
	k := QueryKey{
		CaseType:   strings.TrimSpace(caseType),
		CaseNumber: strings.TrimSpace(caseNumber),
		FilingYear: strings.TrimSpace(filingYear),
	}
	switch {
	case k.CaseType == "":
		return QueryKey{}, fmt.Errorf("%w: case type is required", ErrInvalidQueryKey)
	case k.CaseNumber == "":
		return QueryKey{}, fmt.Errorf("%w: case number is required", ErrInvalidQueryKey)
	case k.FilingYear == "":
		return QueryKey{}, fmt.Errorf("%w: filing year is required", ErrInvalidQueryKey)
	}
	return k, nil
}

func (k QueryKey) String() string {
	return fmt.Sprintf("%s %s/%s", k.CaseType, k.CaseNumber, k.FilingYear)
}

type Party struct {
	Role Role   `json:"role"`
	Name string `json:"name"`
}

type Order struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	DocumentRef string `json:"document_url"`
}

// CaseRecord is the structured result of an acquisition.
type CaseRecord struct {
	Parties         []Party    `json:"parties"`
	FilingDate      string     `json:"filing_date"`
	NextHearingDate string     `json:"next_hearing_date"`
	Orders          []Order    `json:"orders"`
	CaseStatus      string     `json:"case_status"`
	Provenance      Provenance `json:"provenance"`
}

// HasSubstance reports whether the record carries any of parties, orders or a
// filing date. A live record without substance is not a valid extraction.
func (r *CaseRecord) HasSubstance() bool {
	if r == nil {
		return false
	}
	return len(r.Parties) > 0 || len(r.Orders) > 0 || r.FilingDate != ""
}

// StoredCase is the latest record kept for a key.
type StoredCase struct {
	Key       QueryKey    `json:"query"`
	Record    *CaseRecord `json:"record"`
	UpdatedAt time.Time   `json:"updated_at"`
}
