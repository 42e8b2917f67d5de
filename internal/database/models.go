package database

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SearchAttempt is the persisted outcome of one end-to-end retrieval
// invocation. Exactly one row is written per pipeline run, success or not.
type SearchAttempt struct {
	gorm.Model
	CaseType     string    `json:"case_type"`
	CaseNumber   string    `json:"case_number"`
	FilingYear   int       `json:"filing_year"`
	QueryTime    time.Time `json:"query_time"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message"`
	CaseData     string    `json:"case_data" gorm:"type:text"`
	ClientIP     string    `json:"ip_address"`
}

func (SearchAttempt) TableName() string {
	return "search_history"
}

// Record decodes the stored case payload. Returns nil for failed attempts.
func (a *SearchAttempt) Record() (*CaseRecord, error) {
	if a.CaseData == "" {
		return nil, nil
	}
	var rec CaseRecord
	if err := json.Unmarshal([]byte(a.CaseData), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CaseRecord is the structured result of one successful retrieval.
// It is built once by the extractor and never mutated afterwards;
// repeat searches for the same case produce fresh records.
type CaseRecord struct {
	CaseNumber      string        `json:"case_number"`
	CaseType        string        `json:"case_type"`
	FilingYear      int           `json:"filing_year"`
	Status          string        `json:"status"`
	Parties         string        `json:"parties"`
	NextHearingDate string        `json:"next_hearing_date"`
	LastHearingDate string        `json:"last_hearing_date"`
	CourtNumber     string        `json:"court_number"`
	OrdersLink      string        `json:"orders_link,omitempty"`
	Orders          []OrderRecord `json:"orders,omitempty"`
	ExtractedAt     time.Time     `json:"extracted_at"`
	RawCaseText     string        `json:"raw_case_text"`
	RawCourtText    string        `json:"raw_court_text"`
}

// ComposeCaseNumber builds the display identity of a case, e.g.
// "W.P.(C) 1234/2023"
func ComposeCaseNumber(caseType, caseNumber string, filingYear int) string {
	return fmt.Sprintf("%s %s/%d", caseType, caseNumber, filingYear)
}

// OrderRecord is a single dated entry in a case's procedural history.
// It exists only within its parent CaseRecord.
type OrderRecord struct {
	Index        int    `json:"order_index"`
	Date         string `json:"date"`
	Description  string `json:"description"`
	DocumentLink string `json:"document_link,omitempty"`
}

// Statistics summarizes the search history for the dashboard
type Statistics struct {
	Total       int64   `json:"total_searches"`
	Succeeded   int64   `json:"successful_searches"`
	Failed      int64   `json:"failed_searches"`
	SuccessRate float64 `json:"success_rate"`
}
