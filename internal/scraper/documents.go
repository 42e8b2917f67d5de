package scraper

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/JustJay7/hc-case-tracker/internal/database"
	"github.com/JustJay7/hc-case-tracker/pkg/logger"
)

var unsafePathRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DocumentFetcher downloads order documents linked from a case record
type DocumentFetcher struct {
	log       *logger.Logger
	savePath  string
	userAgent string
	client    *http.Client
}

func NewDocumentFetcher(log *logger.Logger, savePath, userAgent string) *DocumentFetcher {
	return &DocumentFetcher{
		log:       log,
		savePath:  savePath,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Download fetches every order document the record links to, returning
// the local paths of the files it saved. A failed order is logged and
// skipped; partial success is the expected mode here too.
func (d *DocumentFetcher) Download(record *database.CaseRecord) ([]string, error) {
	now := time.Now()
	dirPath := filepath.Join(d.savePath,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()))

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}

	caseSlug := unsafePathRe.ReplaceAllString(record.CaseNumber, "_")

	var saved []string
	for _, order := range record.Orders {
		if order.DocumentLink == "" {
			continue
		}
		filename := fmt.Sprintf("%s_order_%d.pdf", caseSlug, order.Index)
		fullPath := filepath.Join(dirPath, filename)

		if err := d.downloadFile(order.DocumentLink, fullPath); err != nil {
			d.log.Error("failed to download order document",
				"case", record.CaseNumber, "order", order.Index, "error", err)
			continue
		}
		saved = append(saved, fullPath)

		// Rate limiting
		time.Sleep(2 * time.Second)
	}

	d.log.Info("downloaded order documents", "case", record.CaseNumber, "count", len(saved))
	return saved, nil
}

func (d *DocumentFetcher) downloadFile(url, fullPath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(fullPath) // Clean up on error
		return fmt.Errorf("failed to save file: %w", err)
	}
	return nil
}
