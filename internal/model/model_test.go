package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryKey(t *testing.T) {
	k, err := NewQueryKey(" CRL.A. ", "1234", " 2023")
	require.NoError(t, err)
	assert.Equal(t, QueryKey{CaseType: "CRL.A.", CaseNumber: "1234", FilingYear: "2023"}, k)
	assert.Equal(t, "CRL.A. 1234/2023", k.String())

	tests := []struct {
		name                string
		caseType, num, year string
	}{
		{"empty case type", "", "1234", "2023"},
		{"blank case number", "FAO", "  ", "2023"},
		{"empty year", "FAO", "1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQueryKey(tt.caseType, tt.num, tt.year)
			assert.True(t, errors.Is(err, ErrInvalidQueryKey))
		})
	}
}

func TestHasSubstance(t *testing.T) {
	var nilRecord *CaseRecord
	assert.False(t, nilRecord.HasSubstance())
	assert.False(t, (&CaseRecord{CaseStatus: "Pending", NextHearingDate: "01/01/2024"}).HasSubstance())
	assert.True(t, (&CaseRecord{FilingDate: "01/01/2023"}).HasSubstance())
	assert.True(t, (&CaseRecord{Parties: []Party{{Role: RoleRespondent, Name: "X"}}}).HasSubstance())
	assert.True(t, (&CaseRecord{Orders: []Order{{Description: "o"}}}).HasSubstance())
}

func TestCaseTypes(t *testing.T) {
	assert.True(t, IsKnownCaseType("CRL.A."))
	assert.True(t, IsKnownCaseType("W.P.(C)"))
	assert.False(t, IsKnownCaseType("crl.a."))

	assert.True(t, IsCriminal("CRL.A."))
	assert.True(t, IsCriminal("CRL.BAIL"))
	assert.False(t, IsCriminal("W.P.(CRL)"))
	assert.False(t, IsCriminal("CS(OS)"))
}

func TestQueryStatusValid(t *testing.T) {
	assert.True(t, QuerySucceeded.Valid())
	assert.False(t, QueryStatus("SIMULATED").Valid())
}

func TestSyntheticRef(t *testing.T) {
	k := QueryKey{CaseType: "W.P.(C)", CaseNumber: "12/A", FilingYear: "2021"}
	ref := SyntheticRef(k, "interim")
	assert.Equal(t, "synthetic://orders/W.P.%28C%29/12%2FA/2021/interim.pdf", ref)
	assert.True(t, IsSyntheticRef(ref))
	assert.False(t, IsSyntheticRef("https://delhihighcourt.nic.in/orders/1.pdf"))
}
