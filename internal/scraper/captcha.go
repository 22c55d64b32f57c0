package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// captchaSelectors locate challenge widgets commonly used by e-Courts pages.
var captchaSelectors = []string{
	"img#captcha_image",
	"img[id*='captcha']",
	"img[src*='captcha']",
	"img[src*='Captcha']",
	"input[name='captcha']",
	"input[id*='captcha']",
	"#captcha-code",
}

// hasCaptchaWidget reports whether the page carries a CAPTCHA challenge.
// Challenges are never solved, only detected.
func hasCaptchaWidget(doc *goquery.Document) bool {
	for _, sel := range captchaSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	found := false
	doc.Find("input[type='text']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		placeholder, _ := s.Attr("placeholder")
		if strings.Contains(strings.ToLower(placeholder), "captcha") {
			found = true
			return false
		}
		return true
	})
	return found
}
