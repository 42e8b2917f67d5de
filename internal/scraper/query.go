package scraper

import (
	"fmt"
	"regexp"
	"time"

	"github.com/JustJay7/hc-case-tracker/internal/database"
)

// CaseTypes is the controlled vocabulary of Delhi High Court case-type
// codes accepted by the search form
var CaseTypes = []string{
	"W.P.(C)", "W.P.(CRL)", "CRL.A", "CRL.M.C", "CRL.REV.P",
	"BAIL APPLN", "CS(OS)", "CS(COMM)", "FAO", "RFA", "RSA",
	"LPA", "MAT.APP", "ARB.P", "EX.P", "CO.PET", "CONT.CAS(C)", "CM(M)",
}

const minFilingYear = 1950

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// SearchQuery identifies one case to look up. Immutable once built.
type SearchQuery struct {
	CaseType   string `json:"case_type" binding:"required"`
	CaseNumber string `json:"case_number" binding:"required"`
	FilingYear int    `json:"filing_year" binding:"required"`
}

// Composite returns the display case number, e.g. "W.P.(C) 1234/2023"
func (q SearchQuery) Composite() string {
	return database.ComposeCaseNumber(q.CaseType, q.CaseNumber, q.FilingYear)
}

// ValidateQuery rejects malformed input before any browser session is
// created. Violations produce no side effects and no persisted attempt.
func ValidateQuery(q SearchQuery) error {
	if !validCaseType(q.CaseType) {
		return fmt.Errorf("%w: unknown case type %q", ErrInvalidQuery, q.CaseType)
	}
	if q.CaseNumber == "" || !digitsRe.MatchString(q.CaseNumber) {
		return fmt.Errorf("%w: case number must be digits only", ErrInvalidQuery)
	}
	if q.FilingYear < minFilingYear || q.FilingYear > time.Now().Year() {
		return fmt.Errorf("%w: filing year %d out of range", ErrInvalidQuery, q.FilingYear)
	}
	return nil
}

func validCaseType(caseType string) bool {
	for _, t := range CaseTypes {
		if t == caseType {
			return true
		}
	}
	return false
}
