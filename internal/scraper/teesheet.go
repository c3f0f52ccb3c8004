// Package scraper pulls the facility's tee sheet and turns it into raw
// TimeSlot records. It deliberately knows nothing about eligibility; it just
// reports what the site shows.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"teewatch/internal/model"
)

// Config holds connection settings for the tee sheet site.
type Config struct {
	BaseURL   string
	LoginPath string // e.g. "/login"; empty disables the login step
	SheetPath string // e.g. "/teetimes"
	Username  string
	Password  string
	Timeout   time.Duration
}

// TeeSheetScraper fetches and parses the tee sheet over HTTP with a
// session-cookie login.
type TeeSheetScraper struct {
	client *resty.Client
	cfg    Config
	logger *zerolog.Logger
}

// New creates a scraper. A zero timeout defaults to 30 seconds.
func New(cfg Config, logger *zerolog.Logger) *TeeSheetScraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "teewatch/1.0")

	return &TeeSheetScraper{client: client, cfg: cfg, logger: logger}
}

// Fetch logs in (when credentials are configured) and returns the slots
// currently listed on the tee sheet, in page order.
func (s *TeeSheetScraper) Fetch(ctx context.Context) ([]model.TimeSlot, error) {
	if s.cfg.LoginPath != "" && s.cfg.Username != "" {
		if err := s.login(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := s.client.R().
		SetContext(ctx).
		Get(s.cfg.SheetPath)
	if err != nil {
		return nil, fmt.Errorf("fetching tee sheet: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("tee sheet returned status %d", resp.StatusCode())
	}

	slots, err := ParseTeeSheet(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("count", len(slots)).Msg("scraped tee sheet")
	return slots, nil
}

func (s *TeeSheetScraper) login(ctx context.Context) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": s.cfg.Username,
			"password": s.cfg.Password,
		}).
		Post(s.cfg.LoginPath)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("login returned status %d", resp.StatusCode())
	}
	return nil
}

// ParseTeeSheet extracts slots from tee sheet HTML. Each row of the tee
// times table carries date, start time, open player count and hole count
// cells; rows with missing cells are skipped.
func ParseTeeSheet(r io.Reader) ([]model.TimeSlot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing tee sheet html: %w", err)
	}

	var slots []model.TimeSlot
	doc.Find("table.teetimes tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		slot := model.TimeSlot{
			Date:    cleanCell(cells.Eq(0)),
			Time:    cleanCell(cells.Eq(1)),
			Players: cleanCell(cells.Eq(2)),
			Holes:   cleanCell(cells.Eq(3)),
		}
		if slot.Date == "" || slot.Time == "" {
			return
		}
		slots = append(slots, slot)
	})
	return slots, nil
}

func cleanCell(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
