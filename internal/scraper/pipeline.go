package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/JustJay7/hc-case-tracker/internal/browser"
	"github.com/JustJay7/hc-case-tracker/internal/config"
	"github.com/JustJay7/hc-case-tracker/internal/database"
	"github.com/JustJay7/hc-case-tracker/internal/extract"
	"github.com/JustJay7/hc-case-tracker/pkg/logger"
)

// ProgressFunc receives milestone labels with a non-decreasing
// percentage. Optional; a nil callback changes nothing.
type ProgressFunc func(stage string, percent int)

type clientIPKey struct{}

// WithClientIP tags the context with the requesting client's address so
// the persisted attempt can record who asked
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// Narrow seams over the collaborators so the state machine is testable
// without a live browser.
type sessionSource interface {
	Acquire(ctx context.Context) (*browser.Session, error)
	Release(s *browser.Session)
}

type formDriver interface {
	Navigate(s *browser.Session, url string) error
	SelectField(s *browser.Session, field, value string) bool
	FillTextField(s *browser.Session, field, value string) bool
	SolveVerificationCode(s *browser.Session) bool
	Submit(s *browser.Session) bool
	PageHTML(s *browser.Session) (string, error)
}

type caseExtractor interface {
	ExtractCase(html, caseType, caseNumber string, filingYear int) *database.CaseRecord
	ExtractOrders(html string) []database.OrderRecord
}

type attemptStore interface {
	RecordAttempt(attempt *database.SearchAttempt, record *database.CaseRecord) error
}

// Pipeline runs one retrieval end to end: acquire a session, fill and
// submit the form, extract the record, persist the outcome. Strictly
// sequential; each step depends on the browser state left by the
// previous one. Safe for concurrent use since every Run owns its
// session exclusively.
type Pipeline struct {
	cfg       *config.Config
	log       *logger.Logger
	sessions  sessionSource
	form      formDriver
	extractor caseExtractor
	store     attemptStore
}

func NewPipeline(cfg *config.Config, log *logger.Logger, store *database.Store) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		log:       log,
		sessions:  browser.NewManager(cfg, log),
		form:      NewLocator(cfg, log),
		extractor: extract.New(cfg.CourtBaseURL, log),
		store:     store,
	}
}

// Run executes one search. Every invocation past validation persists
// exactly one attempt outcome and releases its session exactly once,
// persistence first, release last, on every path.
func (p *Pipeline) Run(ctx context.Context, query SearchQuery, progress ProgressFunc) (*database.CaseRecord, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	report(progress, "Initializing browser session", 10)
	session, err := p.sessions.Acquire(ctx)
	if err != nil {
		runErr := fmt.Errorf("%w: %v", ErrSessionCreation, err)
		p.persist(ctx, query, nil, runErr)
		return nil, runErr
	}
	defer p.sessions.Release(session)

	record, runErr := p.execute(ctx, session, query, progress)
	p.persist(ctx, query, record, runErr)

	if runErr != nil {
		p.log.Error("search failed", "case", query.Composite(), "error", runErr)
		return nil, runErr
	}
	return record, nil
}

// execute walks the linear state machine; the first failed guard aborts
// the remaining states
func (p *Pipeline) execute(ctx context.Context, session *browser.Session, query SearchQuery, progress ProgressFunc) (*database.CaseRecord, error) {
	report(progress, "Loading court website", 25)
	searchURL := p.cfg.SearchURL()
	if err := p.form.Navigate(session, searchURL); err != nil {
		return nil, fmt.Errorf("%w: unable to load search page: %v", ErrFormFill, err)
	}
	p.settle(ctx, 2*time.Second)

	report(progress, "Filling case search form", 40)
	if !p.form.SelectField(session, "case_type", query.CaseType) {
		return nil, fmt.Errorf("%w: case type", ErrFormFill)
	}
	if !p.form.FillTextField(session, "case_number", query.CaseNumber) {
		return nil, fmt.Errorf("%w: case number", ErrFormFill)
	}
	if !p.form.SelectField(session, "filing_year", fmt.Sprintf("%d", query.FilingYear)) {
		return nil, fmt.Errorf("%w: filing year", ErrFormFill)
	}

	report(progress, "Processing security verification", 60)
	if !p.form.SolveVerificationCode(session) {
		return nil, ErrVerification
	}

	report(progress, "Submitting search request", 70)
	if !p.form.Submit(session) {
		return nil, ErrSubmission
	}
	p.settle(ctx, p.cfg.ResultSettle)

	report(progress, "Extracting case information", 85)
	html, err := p.form.PageHTML(session)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	record := p.extractor.ExtractCase(html, query.CaseType, query.CaseNumber, query.FilingYear)
	if record == nil {
		return nil, ErrCaseNotFound
	}

	// Orders are best effort: a failed fetch leaves the case with an
	// empty orders list instead of failing the lookup.
	if record.OrdersLink != "" {
		report(progress, "Retrieving order documents", 95)
		p.attachOrders(ctx, session, record)
	}

	report(progress, "Search completed successfully", 100)
	return record, nil
}

func (p *Pipeline) attachOrders(ctx context.Context, session *browser.Session, record *database.CaseRecord) {
	if err := p.form.Navigate(session, record.OrdersLink); err != nil {
		p.log.Warn("failed to open orders page", "url", record.OrdersLink, "error", err)
		return
	}
	p.settle(ctx, p.cfg.ResultSettle)

	html, err := p.form.PageHTML(session)
	if err != nil {
		p.log.Warn("failed to read orders page", "url", record.OrdersLink, "error", err)
		return
	}
	record.Orders = p.extractor.ExtractOrders(html)
}

// persist writes the single attempt outcome for this invocation.
// Persistence failures are logged, never propagated, so the session
// release that follows is unconditional.
func (p *Pipeline) persist(ctx context.Context, query SearchQuery, record *database.CaseRecord, runErr error) {
	attempt := &database.SearchAttempt{
		CaseType:   query.CaseType,
		CaseNumber: query.CaseNumber,
		FilingYear: query.FilingYear,
		QueryTime:  time.Now(),
		Success:    runErr == nil,
		ClientIP:   clientIPFrom(ctx),
	}
	if runErr != nil {
		attempt.ErrorMessage = runErr.Error()
	}
	if err := p.store.RecordAttempt(attempt, record); err != nil {
		p.log.Error("failed to persist search attempt", "case", query.Composite(), "error", err)
	}
}

// settle is the bounded blind wait the target site forces on us between
// steps; it still honors context cancellation
func (p *Pipeline) settle(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func report(progress ProgressFunc, stage string, percent int) {
	if progress != nil {
		progress(stage, percent)
	}
}
