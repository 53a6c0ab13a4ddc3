// Package repository exposes the one query the service answers: fetch the
// matched dataset for a set of contracts over a date range. Callers depend on
// the LogRepository interface, so tests can swap in a double that returns
// fixed datasets without touching the filesystem.
package repository

import (
	"context"
	"time"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

// FetchParams are the query parameters. ContractIDs and Start are mandatory;
// a nil End leaves the range open toward the latest data.
type FetchParams struct {
	ContractIDs []string
	Start       time.Time
	End         *time.Time
}

// LogRepository resolves a fetch request into a complete matched dataset.
// Fetch either returns the full dataset or fails; it never truncates
// silently.
type LogRepository interface {
	Fetch(ctx context.Context, params FetchParams) (*models.MatchedDataset, error)
}
