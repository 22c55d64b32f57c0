package model

import (
	"net/url"
	"strings"
)

// SyntheticRefScheme prefixes document references of generated orders.
const SyntheticRefScheme = "synthetic://"

// SyntheticRef builds the locator of a generated order document.
func SyntheticRef(key QueryKey, tag string) string {
	return SyntheticRefScheme + "orders/" +
		url.PathEscape(key.CaseType) + "/" +
		url.PathEscape(key.CaseNumber) + "/" +
		url.PathEscape(key.FilingYear) + "/" +
		tag + ".pdf"
}

func IsSyntheticRef(ref string) bool {
	return strings.HasPrefix(ref, SyntheticRefScheme)
}
