// Package extract turns the court site's inconsistent results HTML into
// structured case and order records. It never touches the browser; the
// pipeline hands it raw page source, which keeps every heuristic
// testable against fixture HTML.
package extract

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/JustJay7/hc-case-tracker/internal/database"
	"github.com/JustJay7/hc-case-tracker/pkg/logger"
)

// Placeholders used when a court-detail marker is absent. Absence is
// routine on this site and never an error.
const (
	PlaceholderNextDate = "Not Scheduled"
	PlaceholderLastDate = "Not Available"
	PlaceholderCourtNo  = "Not Assigned"
)

// caseTableSelectors are tried in order until one matches
var caseTableSelectors = []string{
	"table#caseTable",
	"table.case-table",
	"table.result-table",
}

var ordersTableSelectors = []string{
	"table#caseTable",
	"table.order-table",
}

// ordersLinkKeywords mark anchors that lead to the orders page
var ordersLinkKeywords = []string{"order", "status", "detail"}

var bracketRe = regexp.MustCompile(`\[([^\]]+)\]`)

// MarkerRule slices one labeled value out of the court-info text. The
// search is case-folded; End markers terminate the value in order. The
// rule set encodes one site's HTML conventions and is expected to change
// independently of the extraction logic.
type MarkerRule struct {
	Field       string
	Start       string
	Ends        []string
	Placeholder string
}

func defaultMarkerRules() []MarkerRule {
	return []MarkerRule{
		{Field: "next_date", Start: "next date:", Ends: []string{"last date:"}, Placeholder: PlaceholderNextDate},
		{Field: "last_date", Start: "last date:", Ends: []string{"court no:"}, Placeholder: PlaceholderLastDate},
		{Field: "court_no", Start: "court no:", Placeholder: PlaceholderCourtNo},
	}
}

// Extractor parses results and orders pages
type Extractor struct {
	baseURL string
	markers []MarkerRule
	log     *logger.Logger
}

func New(baseURL string, log *logger.Logger) *Extractor {
	return &Extractor{
		baseURL: baseURL,
		markers: defaultMarkerRules(),
		log:     log,
	}
}

// ExtractCase parses the results page into a CaseRecord. It returns nil
// when no results table, no rows, or no parsable row exists; at most one
// row is expected per query, so the first parsable row wins.
func (e *Extractor) ExtractCase(html, caseType, caseNumber string, filingYear int) *database.CaseRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.log.Error("failed to parse results page", "error", err)
		return nil
	}

	table := e.findTable(doc, caseTableSelectors)
	if table == nil {
		e.log.Error("no results table found")
		return nil
	}

	rows := tableRows(table)
	if rows.Length() == 0 {
		e.log.Error("no data rows found in results table")
		return nil
	}

	var record *database.CaseRecord
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		// Header rows carry th cells only and fall through here.
		cells := row.Find("td")
		if cells.Length() < 3 {
			return true
		}
		if rec := e.parseCaseRow(cells, caseType, caseNumber, filingYear); rec != nil {
			record = rec
			return false
		}
		return true
	})

	if record == nil {
		e.log.Error("no matching case row found")
	}
	return record
}

// parseCaseRow derives a CaseRecord from one results row. Missing cells
// degrade to empty or placeholder values rather than failing the row.
func (e *Extractor) parseCaseRow(cells *goquery.Selection, caseType, caseNumber string, filingYear int) *database.CaseRecord {
	caseText := cellText(cells, 1)
	parties := cellText(cells, 2)
	courtText := cellText(cells, 3)

	details := e.extractCourtDetails(courtText)

	rec := &database.CaseRecord{
		CaseNumber:      database.ComposeCaseNumber(caseType, caseNumber, filingYear),
		CaseType:        caseType,
		FilingYear:      filingYear,
		Status:          ExtractStatus(caseText),
		Parties:         parties,
		NextHearingDate: details["next_date"],
		LastHearingDate: details["last_date"],
		CourtNumber:     details["court_no"],
		OrdersLink:      e.extractOrdersLink(cells.Eq(1)),
		ExtractedAt:     time.Now(),
		RawCaseText:     caseText,
		RawCourtText:    courtText,
	}

	e.log.Info("parsed case row", "case", rec.CaseNumber, "status", rec.Status)
	return rec
}

// ExtractStatus reads the bracketed status label from the case-info
// text. DISPOSED, CLOSED and PENDING are special-cased as exact
// substring tests; any other bracketed label is taken verbatim; no
// brackets means the case is active.
func ExtractStatus(caseText string) string {
	switch {
	case strings.Contains(caseText, "[DISPOSED]"):
		return "DISPOSED"
	case strings.Contains(caseText, "[CLOSED]"):
		return "CLOSED"
	case strings.Contains(caseText, "[PENDING]"):
		return "PENDING"
	}
	if m := bracketRe.FindStringSubmatch(caseText); m != nil {
		if label := strings.TrimSpace(m[1]); label != "" {
			return label
		}
	}
	return "ACTIVE"
}

// extractCourtDetails applies the marker rules to the court-info cell
func (e *Extractor) extractCourtDetails(courtText string) map[string]string {
	out := make(map[string]string, len(e.markers))
	for _, rule := range e.markers {
		out[rule.Field] = extractBetweenMarkers(courtText, rule)
	}
	return out
}

// extractBetweenMarkers returns the substring after the last occurrence
// of the start marker, cut at the first end marker that follows. Marker
// matching is case-insensitive; the value keeps its original casing.
func extractBetweenMarkers(text string, rule MarkerRule) string {
	folded := strings.ToLower(text)
	idx := strings.LastIndex(folded, rule.Start)
	if idx < 0 {
		return rule.Placeholder
	}

	value := text[idx+len(rule.Start):]
	for _, end := range rule.Ends {
		if cut := strings.Index(strings.ToLower(value), end); cut >= 0 {
			value = value[:cut]
		}
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return rule.Placeholder
	}
	return value
}

// extractOrdersLink finds the first anchor in the case-info cell whose
// href points at order, status or detail pages
func (e *Extractor) extractOrdersLink(cell *goquery.Selection) string {
	var link string
	cell.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return true
		}
		lower := strings.ToLower(href)
		for _, kw := range ordersLinkKeywords {
			if strings.Contains(lower, kw) {
				link = e.ResolveURL(href)
				return false
			}
		}
		return true
	})
	return link
}

// ResolveURL makes a document link absolute against the site's base
// URL. Absolute links pass through unchanged; unparsable ones resolve
// to empty.
func (e *Extractor) ResolveURL(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		e.log.Warn("unparsable link", "href", href, "error", err)
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(e.baseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// findTable tries each selector in order
func (e *Extractor) findTable(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if t := doc.Find(sel).First(); t.Length() > 0 {
			return t
		}
	}
	return nil
}

// tableRows returns the table's body rows minus a leading th-only
// header row. The HTML parser synthesizes a tbody around bare tr
// elements, so header detection has to look at the cells, not at
// whether the markup wrote a tbody.
func tableRows(table *goquery.Selection) *goquery.Selection {
	rows := table.Find("tbody tr")
	if rows.Length() > 0 && isHeaderRow(rows.First()) {
		return rows.Slice(1, rows.Length())
	}
	return rows
}

func isHeaderRow(row *goquery.Selection) bool {
	return row.Find("td").Length() == 0 && row.Find("th").Length() > 0
}

func cellText(cells *goquery.Selection, i int) string {
	if i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}
