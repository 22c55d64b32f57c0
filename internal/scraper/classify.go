package scraper

import "strings"

// PageClass is the verdict on a result page before structural extraction.
type PageClass int

const (
	PageCaseData PageClass = iota
	PageNoRecord
	PageCaptcha
	PageNoData
)

// Field is the record field a table label maps to.
type Field int

const (
	FieldNone Field = iota
	FieldPetitioner
	FieldRespondent
	FieldFilingDate
	FieldNextDate
	FieldStatus
)

// Keyword sets are matched against lowercased text, in the order below.
var (
	noRecordPhrases = []string{"no record found", "no case found", "invalid captcha", "captcha mismatch"}

	caseDataKeywords = []string{
		"petitioner", "respondent", "appellant", "case no", "filing date",
		"next date", "hearing", "order", "judgment",
	}

	documentExtensions = []string{".pdf", ".doc", ".docx"}
)

// ClassifyPage decides what kind of page text the source returned.
// hasCaptchaWidget reports a CAPTCHA image or input found in the markup.
func ClassifyPage(text string, hasCaptchaWidget bool) PageClass {
	lower := strings.ToLower(text)

	if containsAny(lower, noRecordPhrases) {
		return PageNoRecord
	}
	if strings.Contains(lower, "captcha") && strings.Contains(lower, "enter") {
		return PageCaptcha
	}

	hasData := containsAny(lower, caseDataKeywords)
	if hasCaptchaWidget && !hasData {
		return PageCaptcha
	}
	if !hasData {
		return PageNoData
	}
	return PageCaseData
}

// ClassifyLabel maps a table label to a record field.
func ClassifyLabel(label string) Field {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "petitioner") || strings.Contains(l, "appellant"):
		return FieldPetitioner
	case strings.Contains(l, "respondent"):
		return FieldRespondent
	case strings.Contains(l, "filing") && strings.Contains(l, "date"):
		return FieldFilingDate
	case strings.Contains(l, "next") && strings.Contains(l, "date"):
		return FieldNextDate
	case strings.Contains(l, "status"):
		return FieldStatus
	}
	return FieldNone
}

// acceptValue rejects empty cells and single-character placeholders like "-".
func acceptValue(v string) bool {
	return len([]rune(v)) > 1
}

// IsOrderDocument reports whether a link points at an order document.
func IsOrderDocument(href, text string) bool {
	target := strings.ToLower(href)
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	isDoc := false
	for _, ext := range documentExtensions {
		if strings.HasSuffix(target, ext) {
			isDoc = true
			break
		}
	}
	if !isDoc {
		return false
	}
	return strings.Contains(strings.ToLower(href), "order") || strings.Contains(strings.ToLower(text), "order")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
