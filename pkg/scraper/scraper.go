// Package scraper polls regulatory pages, detects content changes by
// hash comparison and raises alerts with an LLM-written summary.
package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/internal/models"
	"github.com/pharmintel/core/internal/types"
)

// ChangeSummarizer produces a short human-readable summary of the
// difference between two versions of a page.
type ChangeSummarizer interface {
	SummarizeChange(ctx context.Context, oldContent, newContent string) (string, error)
}

type ScannerConfig struct {
	UserAgent    string
	RequestDelay time.Duration
	Timeout      time.Duration
	Sources      []models.Source
	OnProgress   func(url string)
}

type Scanner struct {
	config     ScannerConfig
	client     *http.Client
	limiter    *rate.Limiter
	store      types.SourceStore
	summarizer ChangeSummarizer
	logger     *zap.Logger

	// running guards against overlapping scan cycles.
	running sync.Mutex
}

func NewWithConfig(config ScannerConfig, store types.SourceStore, summarizer ChangeSummarizer, logger *zap.Logger) *Scanner {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestDelay == 0 {
		config.RequestDelay = 2 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "PharmaIntel-Bot/1.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scanner{
		config:     config,
		client:     &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Every(config.RequestDelay), 1),
		store:      store,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Report is the outcome of one scan cycle.
type Report struct {
	Checked         int                  `json:"checked"`
	Failed          int                  `json:"failed"`
	ChangesDetected int                  `json:"changes_detected"`
	Changes         []models.ChangeEvent `json:"changes"`
}

// ScanAll runs one cycle over all configured sources. At most one cycle
// runs at a time; a second caller gets a Conflict error instead of a
// queued scan. A failing source is logged and skipped, never aborting
// the cycle.
func (s *Scanner) ScanAll(ctx context.Context) (Report, error) {
	if !s.running.TryLock() {
		return Report{}, apperr.New(apperr.Conflict, "a scan cycle is already running")
	}
	defer s.running.Unlock()

	report := Report{Changes: []models.ChangeEvent{}}
	for _, source := range s.config.Sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if s.config.OnProgress != nil {
			s.config.OnProgress(source.URL)
		}

		event, err := s.scanSource(ctx, source)
		if err != nil {
			report.Failed++
			s.logger.Warn("source scan failed",
				zap.String("authority", source.Authority),
				zap.String("url", source.URL),
				zap.Error(err))
			continue
		}
		report.Checked++
		if event != nil {
			report.ChangesDetected++
			report.Changes = append(report.Changes, *event)
		}
	}

	s.logger.Info("scan cycle finished",
		zap.Int("checked", report.Checked),
		zap.Int("changed", report.ChangesDetected),
		zap.Int("failed", report.Failed))

	return report, nil
}

func (s *Scanner) scanSource(ctx context.Context, source models.Source) (*models.ChangeEvent, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	content, err := s.fetchContent(ctx, source)
	if err != nil {
		return nil, err
	}
	hash := hashContent(content)

	tracked, err := s.store.GetSourceByURL(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	// First sighting: record the baseline, no alert.
	if tracked == nil {
		return nil, s.store.InsertSource(ctx, models.TrackedSource{
			Authority:   source.Authority,
			URL:         source.URL,
			Selector:    source.Selector,
			ContentHash: hash,
			LastContent: content,
		})
	}

	if tracked.ContentHash == hash {
		return nil, s.store.TouchSource(ctx, source.URL)
	}

	event := models.ChangeEvent{
		Authority:  source.Authority,
		URL:        source.URL,
		OldContent: tracked.LastContent,
		NewContent: content,
	}

	if err := s.store.UpdateSourceContent(ctx, source.URL, hash, content); err != nil {
		return nil, err
	}

	summary, err := s.summarizer.SummarizeChange(ctx, event.OldContent, event.NewContent)
	if err != nil {
		// The alert still goes out; the summary is best-effort.
		s.logger.Warn("change summary failed", zap.String("url", source.URL), zap.Error(err))
		summary = fmt.Sprintf("Content change detected on the %s page.", source.Authority)
	}

	if err := s.store.InsertAlert(ctx, models.Alert{
		Authority: source.Authority,
		Title:     "Update detected on " + source.Authority,
		Summary:   summary,
		URL:       source.URL,
	}); err != nil {
		return nil, err
	}

	return &event, nil
}

// fetchContent pulls the page and reduces it to the normalized text of
// the configured selector.
func (s *Scanner) fetchContent(ctx context.Context, source models.Source) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.UpstreamFetchFailure, err, "invalid source url %s", source.URL)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.UpstreamFetchFailure, err, "failed to fetch %s", source.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.New(apperr.UpstreamFetchFailure, "fetch %s returned status %d", source.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.UpstreamFetchFailure, err, "failed to parse %s", source.URL)
	}

	return extractText(doc, source.Selector), nil
}

// extractText strips boilerplate elements, then reads the configured
// selector, falling back to the whole body, and collapses whitespace.
func extractText(doc *goquery.Document, selector string) string {
	doc.Find("script, style, nav, header, footer").Remove()

	sel := doc.Find(selector)
	if selector == "" || sel.Length() == 0 {
		sel = doc.Find("body")
	}

	return strings.Join(strings.Fields(sel.Text()), " ")
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
