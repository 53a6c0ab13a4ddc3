// Package testutil provides test doubles for handler and pipeline tests.
package testutil

import (
	"context"
	"sync"

	"github.com/fujit1113/ValueFromLog/internal/models"
	"github.com/fujit1113/ValueFromLog/internal/repository"
)

// StubRepository implements repository.LogRepository with a fixed dataset and
// error, recording the calls it receives. No file I/O is involved.
type StubRepository struct {
	mu      sync.Mutex
	Dataset *models.MatchedDataset
	Err     error
	Calls   []repository.FetchParams
}

// NewStubRepository returns a stub that serves the given dataset.
func NewStubRepository(ds *models.MatchedDataset) *StubRepository {
	if ds == nil {
		ds = models.NewMatchedDataset()
	}
	return &StubRepository{Dataset: ds}
}

// Fetch records the call and returns the configured dataset or error.
func (s *StubRepository) Fetch(_ context.Context, params repository.FetchParams) (*models.MatchedDataset, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, params)
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	return s.Dataset, nil
}

// CallCount returns how many fetches the stub has served.
func (s *StubRepository) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
