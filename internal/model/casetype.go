package model

import "strings"

// CaseTypes is the accepted case-type vocabulary of the Delhi High Court.
var CaseTypes = []string{
	"CRL.A.", "CRL.REV.P.", "CRL.M.C.", "W.P.(C)", "W.P.(CRL)",
	"FAO", "RFA", "CS(OS)", "CS(COMM)", "ARB.P.", "CONT.CAS(C)",
	"CRL.O.P.", "BAIL APPLN.", "CRL.BAIL", "CRL.MISC.", "MAT.APP.",
}

// criminalPrefixes mark case types whose appellant faces the State.
var criminalPrefixes = []string{"CRL"}

func IsKnownCaseType(caseType string) bool {
	for _, ct := range CaseTypes {
		if ct == caseType {
			return true
		}
	}
	return false
}

func IsCriminal(caseType string) bool {
	for _, p := range criminalPrefixes {
		if strings.HasPrefix(caseType, p) {
			return true
		}
	}
	return false
}
