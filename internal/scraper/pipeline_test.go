package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JustJay7/hc-case-tracker/internal/browser"
	"github.com/JustJay7/hc-case-tracker/internal/config"
	"github.com/JustJay7/hc-case-tracker/internal/database"
	"github.com/JustJay7/hc-case-tracker/pkg/logger"
)

type fakeSessions struct {
	acquireErr error
	acquired   int
	released   int
}

func (f *fakeSessions) Acquire(ctx context.Context) (*browser.Session, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return &browser.Session{}, nil
}

func (f *fakeSessions) Release(s *browser.Session) {
	f.released++
}

type fakeForm struct {
	navigateErr error
	selectOK    bool
	fillOK      bool
	verifyOK    bool
	submitOK    bool
	html        string
	htmlErr     error
	navigated   []string
	selectCalls []string
}

func (f *fakeForm) Navigate(s *browser.Session, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navigateErr
}

func (f *fakeForm) SelectField(s *browser.Session, field, value string) bool {
	f.selectCalls = append(f.selectCalls, field)
	return f.selectOK
}

func (f *fakeForm) FillTextField(s *browser.Session, field, value string) bool {
	return f.fillOK
}

func (f *fakeForm) SolveVerificationCode(s *browser.Session) bool {
	return f.verifyOK
}

func (f *fakeForm) Submit(s *browser.Session) bool {
	return f.submitOK
}

func (f *fakeForm) PageHTML(s *browser.Session) (string, error) {
	return f.html, f.htmlErr
}

type fakeExtractor struct {
	record *database.CaseRecord
	orders []database.OrderRecord
}

func (f *fakeExtractor) ExtractCase(html, caseType, caseNumber string, filingYear int) *database.CaseRecord {
	return f.record
}

func (f *fakeExtractor) ExtractOrders(html string) []database.OrderRecord {
	return f.orders
}

type fakeStore struct {
	attempts []*database.SearchAttempt
	records  []*database.CaseRecord
	err      error
}

func (f *fakeStore) RecordAttempt(attempt *database.SearchAttempt, record *database.CaseRecord) error {
	f.attempts = append(f.attempts, attempt)
	f.records = append(f.records, record)
	return f.err
}

func testConfig() *config.Config {
	return &config.Config{
		CourtBaseURL:    "https://delhihighcourt.nic.in",
		CourtSearchPath: "/app/get-case-type-status",
		ScraperTimeout:  time.Second,
		LocatorTimeout:  time.Millisecond,
		SubmitSettle:    time.Millisecond,
		ResultSettle:    time.Millisecond,
	}
}

func validQuery() SearchQuery {
	return SearchQuery{CaseType: "W.P.(C)", CaseNumber: "1234", FilingYear: 2023}
}

func happyForm() *fakeForm {
	return &fakeForm{selectOK: true, fillOK: true, verifyOK: true, submitOK: true, html: "<html></html>"}
}

func newTestPipeline(sessions *fakeSessions, form *fakeForm, ext *fakeExtractor, store *fakeStore) *Pipeline {
	return &Pipeline{
		cfg:       testConfig(),
		log:       logger.NewNop(),
		sessions:  sessions,
		form:      form,
		extractor: ext,
		store:     store,
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   SearchQuery
		wantErr bool
	}{
		{"valid", SearchQuery{CaseType: "W.P.(C)", CaseNumber: "1234", FilingYear: 2023}, false},
		{"unknown case type", SearchQuery{CaseType: "NOPE", CaseNumber: "1234", FilingYear: 2023}, true},
		{"empty case number", SearchQuery{CaseType: "FAO", CaseNumber: "", FilingYear: 2023}, true},
		{"non-numeric case number", SearchQuery{CaseType: "FAO", CaseNumber: "12AB", FilingYear: 2023}, true},
		{"year too old", SearchQuery{CaseType: "FAO", CaseNumber: "1", FilingYear: 1949}, true},
		{"year in the future", SearchQuery{CaseType: "FAO", CaseNumber: "1", FilingYear: time.Now().Year() + 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("validation error %v is not ErrInvalidQuery", err)
			}
		})
	}
}

func TestRunRejectsInvalidQueryWithoutSideEffects(t *testing.T) {
	sessions := &fakeSessions{}
	store := &fakeStore{}
	p := newTestPipeline(sessions, happyForm(), &fakeExtractor{}, store)

	_, err := p.Run(context.Background(), SearchQuery{CaseType: "W.P.(C)", CaseNumber: "12x4", FilingYear: 2023}, nil)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if sessions.acquired != 0 {
		t.Error("browser session created for invalid input")
	}
	if len(store.attempts) != 0 {
		t.Error("attempt persisted for invalid input")
	}
}

func TestRunSuccess(t *testing.T) {
	sessions := &fakeSessions{}
	form := happyForm()
	store := &fakeStore{}
	record := &database.CaseRecord{CaseNumber: "W.P.(C) 1234/2023", Status: "ACTIVE"}
	p := newTestPipeline(sessions, form, &fakeExtractor{record: record}, store)

	got, err := p.Run(context.Background(), validQuery(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != record {
		t.Error("returned record is not the extracted one")
	}

	if len(store.attempts) != 1 {
		t.Fatalf("expected exactly 1 persisted attempt, got %d", len(store.attempts))
	}
	if !store.attempts[0].Success {
		t.Error("attempt not marked successful")
	}
	if store.records[0] != record {
		t.Error("case record not handed to the store")
	}
	if sessions.released != 1 {
		t.Errorf("expected exactly 1 release, got %d", sessions.released)
	}
	if len(form.navigated) != 1 || form.navigated[0] != "https://delhihighcourt.nic.in/app/get-case-type-status" {
		t.Errorf("navigated to %v", form.navigated)
	}
}

func TestRunFailureAtEachStage(t *testing.T) {
	record := &database.CaseRecord{CaseNumber: "W.P.(C) 1234/2023"}

	tests := []struct {
		name    string
		mutate  func(f *fakeForm, e *fakeExtractor)
		wantErr error
	}{
		{"navigation fails", func(f *fakeForm, e *fakeExtractor) { f.navigateErr = errors.New("dns") }, ErrFormFill},
		{"select fails", func(f *fakeForm, e *fakeExtractor) { f.selectOK = false }, ErrFormFill},
		{"text fill fails", func(f *fakeForm, e *fakeExtractor) { f.fillOK = false }, ErrFormFill},
		{"verification fails", func(f *fakeForm, e *fakeExtractor) { f.verifyOK = false }, ErrVerification},
		{"submit fails", func(f *fakeForm, e *fakeExtractor) { f.submitOK = false }, ErrSubmission},
		{"page read fails", func(f *fakeForm, e *fakeExtractor) { f.htmlErr = errors.New("gone") }, ErrExtraction},
		{"no case row", func(f *fakeForm, e *fakeExtractor) { e.record = nil }, ErrCaseNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &fakeSessions{}
			form := happyForm()
			ext := &fakeExtractor{record: record}
			store := &fakeStore{}
			tt.mutate(form, ext)
			p := newTestPipeline(sessions, form, ext, store)

			_, err := p.Run(context.Background(), validQuery(), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if len(store.attempts) != 1 {
				t.Fatalf("expected exactly 1 persisted attempt, got %d", len(store.attempts))
			}
			if store.attempts[0].Success {
				t.Error("failed attempt marked successful")
			}
			if store.attempts[0].ErrorMessage == "" {
				t.Error("failed attempt has no error message")
			}
			if sessions.released != 1 {
				t.Errorf("expected exactly 1 release, got %d", sessions.released)
			}
		})
	}
}

func TestRunSessionCreationFailure(t *testing.T) {
	sessions := &fakeSessions{acquireErr: errors.New("no chrome binary")}
	store := &fakeStore{}
	p := newTestPipeline(sessions, happyForm(), &fakeExtractor{}, store)

	_, err := p.Run(context.Background(), validQuery(), nil)
	if !errors.Is(err, ErrSessionCreation) {
		t.Fatalf("expected ErrSessionCreation, got %v", err)
	}
	if len(store.attempts) != 1 {
		t.Fatalf("expected the failed attempt to be persisted, got %d", len(store.attempts))
	}
	if sessions.released != 0 {
		t.Error("released a session that was never acquired")
	}
}

func TestRunPersistFailureStillReleases(t *testing.T) {
	sessions := &fakeSessions{}
	store := &fakeStore{err: errors.New("disk full")}
	record := &database.CaseRecord{}
	p := newTestPipeline(sessions, happyForm(), &fakeExtractor{record: record}, store)

	if _, err := p.Run(context.Background(), validQuery(), nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sessions.released != 1 {
		t.Errorf("expected release despite persistence failure, got %d", sessions.released)
	}
}

func TestRunAttachesOrdersBestEffort(t *testing.T) {
	orders := []database.OrderRecord{{Index: 1, Date: "01.02.2024"}}
	record := &database.CaseRecord{OrdersLink: "https://delhihighcourt.nic.in/app/orders?case=1"}

	sessions := &fakeSessions{}
	form := happyForm()
	store := &fakeStore{}
	p := newTestPipeline(sessions, form, &fakeExtractor{record: record, orders: orders}, store)

	got, err := p.Run(context.Background(), validQuery(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got.Orders) != 1 {
		t.Fatalf("expected 1 attached order, got %d", len(got.Orders))
	}
	if len(form.navigated) != 2 || form.navigated[1] != record.OrdersLink {
		t.Errorf("expected a second navigation to the orders link, got %v", form.navigated)
	}
}

func TestRunOrdersNavigationFailureKeepsCase(t *testing.T) {
	record := &database.CaseRecord{OrdersLink: "https://delhihighcourt.nic.in/app/orders?case=1"}

	sessions := &fakeSessions{}
	form := happyForm()
	store := &fakeStore{}
	p := newTestPipeline(sessions, form, &fakeExtractor{record: record}, store)

	// Make only the second navigation fail.
	calls := 0
	p.form = &ordersFailingForm{fakeForm: form, failFrom: 2, calls: &calls}

	got, err := p.Run(context.Background(), validQuery(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v, orders failure must not fail the case", err)
	}
	if len(got.Orders) != 0 {
		t.Errorf("expected empty orders, got %d", len(got.Orders))
	}
	if len(store.attempts) != 1 || !store.attempts[0].Success {
		t.Error("attempt should still be recorded as successful")
	}
}

type ordersFailingForm struct {
	*fakeForm
	failFrom int
	calls    *int
}

func (f *ordersFailingForm) Navigate(s *browser.Session, url string) error {
	*f.calls++
	if *f.calls >= f.failFrom {
		return errors.New("orders page unreachable")
	}
	return f.fakeForm.Navigate(s, url)
}

func TestRunProgressMilestones(t *testing.T) {
	sessions := &fakeSessions{}
	store := &fakeStore{}
	record := &database.CaseRecord{OrdersLink: "https://delhihighcourt.nic.in/app/orders?case=1"}
	p := newTestPipeline(sessions, happyForm(), &fakeExtractor{record: record}, store)

	var percents []int
	progress := func(stage string, percent int) {
		if stage == "" {
			t.Error("empty progress stage label")
		}
		percents = append(percents, percent)
	}

	if _, err := p.Run(context.Background(), validQuery(), progress); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress went backwards: %v", percents)
		}
	}
	if percents[0] != 10 {
		t.Errorf("first milestone = %d, want 10", percents[0])
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("last milestone = %d, want 100", percents[len(percents)-1])
	}
}

func TestGuidanceThreeWaySplit(t *testing.T) {
	notFound := Guidance(ErrCaseNotFound)
	verification := Guidance(ErrVerification)
	generic := Guidance(ErrSubmission)

	if notFound == verification || notFound == generic || verification == generic {
		t.Error("guidance messages must distinguish not-found, verification, and other failures")
	}
	if Guidance(ErrSessionCreation) != generic {
		t.Error("session creation should get the generic retry guidance")
	}
}
