package scraper

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"github.com/PuerkitoBio/goquery"
)

// RawDocument is a response body together with the URL it was served from.
type RawDocument struct {
	URL        string
	StatusCode int
	Body       []byte
}

var rowDatePattern = regexp.MustCompile(`(?:^|\D)(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4})(?:\D|$)`)

// Parser turns a court result page into a case record.
type Parser struct {
	logger *logger.Logger
}

// NewParser creates a new parser instance
func NewParser(logger *logger.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse classifies the page and extracts a live case record from it. It fails
// with NoRecordFound, CaptchaBlocked or NoExtractableData.
func (p *Parser) Parse(raw RawDocument, key model.QueryKey) (*model.CaseRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		return nil, &Failure{Kind: KindNoData, Detail: "unreadable document", Err: err}
	}

	switch ClassifyPage(doc.Text(), hasCaptchaWidget(doc)) {
	case PageNoRecord:
		return nil, fail(KindNoRecord, "no case found for %s", key)
	case PageCaptcha:
		return nil, fail(KindCaptcha, "CAPTCHA challenge is blocking the result page")
	case PageNoData:
		return nil, fail(KindNoData, "page carries no case data keywords")
	}

	record := &model.CaseRecord{Provenance: model.ProvenanceLive}
	found := p.parseTables(doc, record)
	if p.parseOrderLinks(doc, raw.URL, record) {
		found = true
	}

	if !found {
		return nil, fail(KindNoData, "no case fields extracted")
	}
	if !record.HasSubstance() {
		return nil, fail(KindNoData, "no parties, orders or filing date extracted")
	}

	p.logger.Debug("Parsed case record",
		"case", key.String(),
		"parties", len(record.Parties),
		"orders", len(record.Orders),
	)
	return record, nil
}

// parseTables walks every label/value row. Rows matching the same field are
// all kept in document order.
func (p *Parser) parseTables(doc *goquery.Document, record *model.CaseRecord) bool {
	found := false
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() < 2 {
			return
		}
		label := cleanText(cells.Eq(0).Text())
		value := cleanText(cells.Eq(1).Text())
		if !acceptValue(value) {
			return
		}
		found = true

		switch ClassifyLabel(label) {
		case FieldPetitioner:
			record.Parties = append(record.Parties, model.Party{Role: model.RolePetitionerAppellant, Name: value})
		case FieldRespondent:
			record.Parties = append(record.Parties, model.Party{Role: model.RoleRespondent, Name: value})
		case FieldFilingDate:
			record.FilingDate = value
		case FieldNextDate:
			record.NextHearingDate = value
		case FieldStatus:
			record.CaseStatus = value
		}
	})
	return found
}

// parseOrderLinks collects links to order documents as absolute references.
func (p *Parser) parseOrderLinks(doc *goquery.Document, pageURL string, record *model.CaseRecord) bool {
	found := false
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		text := cleanText(link.Text())
		if !IsOrderDocument(href, text) {
			return
		}
		found = true

		description := text
		if description == "" {
			description = "Court Order"
		}
		record.Orders = append(record.Orders, model.Order{
			Date:        rowDate(link),
			Description: description,
			DocumentRef: makeAbsoluteURL(pageURL, href),
		})
	})
	return found
}

// rowDate returns the first date-like text in the table row holding link.
func rowDate(link *goquery.Selection) string {
	m := rowDatePattern.FindStringSubmatch(link.Closest("tr").Text())
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// makeAbsoluteURL resolves a link against the page it was found on.
func makeAbsoluteURL(pageURL, ref string) string {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
