package service

import (
	"context"
	"time"

	"teewatch/internal/model"
	"teewatch/internal/storage"
)

// Scraper fetches the current tee sheet.
type Scraper interface {
	Fetch(ctx context.Context) ([]model.TimeSlot, error)
}

// Store is the persistence the pipeline needs.
type Store interface {
	ListUserEmails() ([]string, error)
	GetUserConfig(email string) (model.UserConfig, bool, error)
	LatestFiltered() (map[string][]model.TimeSlot, error)
	PublishRun(run storage.RunRecord) error
	CleanupRuns(before time.Time) (int, error)
}

// Notifier delivers alerts to users and failure reports to the operator.
type Notifier interface {
	NotifyNewSlots(ctx context.Context, userEmail string, slots []model.TimeSlot) error
	SendOperatorAlert(ctx context.Context, operator string, runErr error) error
}
