package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/JustJay7/hc-case-tracker/internal/browser"
	"github.com/JustJay7/hc-case-tracker/internal/config"
	"github.com/JustJay7/hc-case-tracker/pkg/logger"
)

// locatorKind selects how a candidate query is evaluated
type locatorKind int

const (
	byCSS locatorKind = iota
	byXPath
)

// candidate is one locator strategy for a logical field. Candidates are
// tried strictly in list order, specific selectors before generic ones;
// the ordering decides which markup variant wins and must not be
// shuffled when new variants are added.
type candidate struct {
	kind  locatorKind
	query string
}

var fieldCandidates = map[string][]candidate{
	"case_type": {
		{byCSS, "select[name='case_type']"},
		{byCSS, "select#case_type"},
		{byXPath, "//select[contains(@name, 'case') and contains(@name, 'type')]"},
		{byXPath, "//select[contains(@id, 'case_type')]"},
	},
	"case_number": {
		{byCSS, "input[name='case_no']"},
		{byCSS, "input[name='case_number']"},
		{byCSS, "input#case_no"},
		{byCSS, "input#case_number"},
		{byXPath, "//input[contains(@name, 'case') and contains(@name, 'no')]"},
		{byXPath, "//input[contains(@placeholder, 'case')]"},
	},
	"filing_year": {
		{byCSS, "select[name='case_year']"},
		{byCSS, "select[name='year']"},
		{byCSS, "select[name='filing_year']"},
		{byCSS, "select#case_year"},
		{byCSS, "select#year"},
		{byXPath, "//select[contains(@name, 'year')]"},
	},
}

// The verification code is rendered as visible text on the page, so
// solving it is a matter of finding the right element, not OCR.
var verificationCodeCandidates = []candidate{
	{byCSS, "#captcha-code"},
	{byCSS, ".captcha-code"},
	{byXPath, "//span[contains(@class, 'captcha')]"},
	{byXPath, "//div[contains(@class, 'captcha')]//span"},
	{byXPath, "//*[contains(text(), 'CAPTCHA') or contains(@id, 'captcha')]"},
}

var verificationInputCandidates = []candidate{
	{byCSS, "input[name='captchaInput']"},
	{byCSS, "input[name='captcha']"},
	{byCSS, "input#captchaInput"},
	{byCSS, "input#captcha"},
	{byXPath, "//input[contains(@name, 'captcha')]"},
	{byXPath, "//input[contains(@placeholder, 'captcha')]"},
}

var submitCandidates = []candidate{
	{byXPath, "//button[@id='search']"},
	{byXPath, "//button[contains(@class, 'yellow-btn')]"},
	{byXPath, "//button[contains(@class, 'search-btn')]"},
	{byXPath, "//input[@type='submit']"},
	{byXPath, "//button[@type='submit']"},
	{byXPath, "//button[contains(text(), 'Search')]"},
	{byXPath, "//button[contains(text(), 'Submit')]"},
	{byXPath, "//input[contains(@value, 'Search')]"},
}

var alphanumericRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Locator drives the search form despite unknown attribute names by
// trying ordered fallback strategies per field
type Locator struct {
	cfg *config.Config
	log *logger.Logger
}

func NewLocator(cfg *config.Config, log *logger.Logger) *Locator {
	return &Locator{cfg: cfg, log: log}
}

// Navigate loads a URL in the session
func (l *Locator) Navigate(s *browser.Session, url string) error {
	return s.Navigate(url)
}

// PageHTML returns the session's current page source
func (l *Locator) PageHTML(s *browser.Session) (string, error) {
	return s.HTML()
}

// element finds one element for a candidate, bounded by the per-strategy
// locator timeout
func (l *Locator) element(s *browser.Session, c candidate) (*rod.Element, error) {
	page := s.Page.Timeout(l.cfg.LocatorTimeout)
	if c.kind == byXPath {
		return page.ElementX(c.query)
	}
	return page.Element(c.query)
}

// elements returns all current matches for a candidate without waiting
func (l *Locator) elements(s *browser.Session, c candidate) (rod.Elements, error) {
	if c.kind == byXPath {
		return s.Page.ElementsX(c.query)
	}
	return s.Page.Elements(c.query)
}

// tryCandidates walks an ordered strategy list: locate each candidate,
// attempt the action on whatever was found, and fall through to the
// next strategy on any miss or failed attempt. Returns false only when
// every strategy is exhausted.
func tryCandidates[T any](cands []candidate, locate func(candidate) (T, error), attempt func(T) bool) bool {
	for _, c := range cands {
		el, err := locate(c)
		if err != nil {
			continue
		}
		if attempt(el) {
			return true
		}
	}
	return false
}

func (l *Locator) locateLogged(s *browser.Session, field string) func(candidate) (*rod.Element, error) {
	return func(c candidate) (*rod.Element, error) {
		el, err := l.element(s, c)
		if err != nil {
			l.log.Debug("field locator missed", "field", field, "query", c.query, "error", err)
		}
		return el, err
	}
}

// SelectField fills a dropdown-like field, trying exact option text
// first and then substring match. Returns false when every strategy is
// exhausted; the caller decides whether that is fatal.
func (l *Locator) SelectField(s *browser.Session, field, value string) bool {
	ok := tryCandidates(fieldCandidates[field], l.locateLogged(s, field), func(el *rod.Element) bool {
		return l.selectOption(el, value)
	})
	if !ok {
		l.log.Error("all locator strategies exhausted for field", "field", field)
		return false
	}
	l.log.Info("selected field value", "field", field, "value", value)
	time.Sleep(time.Second)
	return true
}

// selectOption picks the option whose text equals value, falling back
// to the first option containing it
func (l *Locator) selectOption(el *rod.Element, value string) bool {
	options, err := el.Elements("option")
	if err != nil {
		return false
	}

	match := func(test func(string) bool) *rod.Element {
		for _, opt := range options {
			text, err := opt.Text()
			if err != nil {
				continue
			}
			if test(strings.TrimSpace(text)) {
				return opt
			}
		}
		return nil
	}

	opt := match(func(t string) bool { return t == value })
	if opt == nil {
		opt = match(func(t string) bool { return strings.Contains(t, value) })
	}
	if opt == nil {
		return false
	}

	optValue, err := opt.Property("value")
	if err != nil {
		return false
	}
	_, err = el.Eval(`(v) => {
		this.value = v;
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`, optValue.Str())
	return err == nil
}

// FillTextField types a value into a free-text input and re-reads the
// field to confirm the value stuck, guarding against read-only or
// JS-intercepted inputs. A failed confirmation moves on to the next
// candidate.
func (l *Locator) FillTextField(s *browser.Session, field, value string) bool {
	ok := tryCandidates(fieldCandidates[field], l.locateLogged(s, field), func(el *rod.Element) bool {
		return l.typeAndConfirm(el, value)
	})
	if !ok {
		l.log.Error("all locator strategies exhausted for field", "field", field)
		return false
	}
	l.log.Info("entered field value", "field", field, "value", value)
	time.Sleep(time.Second)
	return true
}

func (l *Locator) typeAndConfirm(el *rod.Element, value string) bool {
	if err := el.SelectAllText(); err != nil {
		return false
	}
	if err := el.Input(value); err != nil {
		return false
	}
	got, err := el.Property("value")
	if err != nil {
		return false
	}
	return got.Str() == value
}

// SolveVerificationCode reads the plain-text verification code off the
// page and types it into the matching input. Returns false when no code
// element or no input field can be found.
func (l *Locator) SolveVerificationCode(s *browser.Session) bool {
	var code string
	for _, c := range verificationCodeCandidates {
		els, err := l.elements(s, c)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, err := el.Text()
			if err != nil {
				continue
			}
			text = strings.TrimSpace(text)
			if len(text) >= 3 && alphanumericRe.MatchString(text) {
				code = text
				break
			}
		}
		if code != "" {
			l.log.Info("found verification code", "query", c.query)
			break
		}
	}
	if code == "" {
		l.log.Warn("no verification code found on page")
		return false
	}

	ok := tryCandidates(verificationInputCandidates, l.locateLogged(s, "verification_input"), func(el *rod.Element) bool {
		return l.typeAndConfirm(el, code)
	})
	if !ok {
		l.log.Error("failed to enter verification code")
		return false
	}
	l.log.Info("verification code entered")
	time.Sleep(2 * time.Second)
	return true
}

// Submit clicks the search control and then waits a fixed settle
// interval for the results page; the site offers no load-completion
// signal to poll on, so the wait is blind but bounded.
func (l *Locator) Submit(s *browser.Session) bool {
	ok := tryCandidates(submitCandidates, l.locateLogged(s, "submit"), func(el *rod.Element) bool {
		if err := el.ScrollIntoView(); err != nil {
			l.log.Debug("scroll to submit failed", "error", err)
			return false
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			l.log.Debug("submit click failed", "error", err)
			return false
		}
		return true
	})
	if !ok {
		l.log.Error("no clickable submit control found")
		return false
	}
	l.log.Info("search form submitted")
	time.Sleep(l.cfg.SubmitSettle)
	return true
}
