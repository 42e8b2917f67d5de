package scraper

import "errors"

// Failure classes for one retrieval attempt. Individual locator
// strategies and row parses are absorbed and logged; only exhausting
// every strategy for a required step escalates to one of these.
var (
	// ErrInvalidQuery rejects bad input before any browser session exists
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrSessionCreation means no compatible browser could be launched.
	// Environment-level and fatal for the invocation.
	ErrSessionCreation = errors.New("browser session could not be created")

	// ErrFormFill means a required form field could not be located or
	// filled after all locator strategies were exhausted
	ErrFormFill = errors.New("unable to fill search form")

	// ErrVerification means the on-page verification code could not be
	// read or entered
	ErrVerification = errors.New("security verification failed")

	// ErrSubmission means no clickable submit control was found
	ErrSubmission = errors.New("search submission failed")

	// ErrCaseNotFound is a legitimate negative result, not a defect
	ErrCaseNotFound = errors.New("no case found with the provided details")

	// ErrExtraction covers unexpected parse failures distinct from
	// "not found"
	ErrExtraction = errors.New("failed to extract case data")
)

// Guidance returns the user-facing advice for a pipeline error. Callers
// rely on the three-way split between "verify your inputs", "retry
// later", and generic retry.
func Guidance(err error) string {
	switch {
	case errors.Is(err, ErrCaseNotFound):
		return "No case found with the provided details. Please verify the case number, type, and filing year are correct."
	case errors.Is(err, ErrVerification):
		return "Security verification failed. Please try again in a few minutes."
	case errors.Is(err, ErrInvalidQuery):
		return "The search request is invalid. Please check the case number, type, and filing year."
	default:
		return "The search could not be completed. Please try again."
	}
}
