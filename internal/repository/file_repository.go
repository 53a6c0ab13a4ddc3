package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fujit1113/ValueFromLog/internal/cache"
	"github.com/fujit1113/ValueFromLog/internal/config"
	"github.com/fujit1113/ValueFromLog/internal/loader"
	"github.com/fujit1113/ValueFromLog/internal/matcher"
	"github.com/fujit1113/ValueFromLog/internal/models"
)

// FileRepository is the file-backed LogRepository: it reads the latest CSV
// export pair, caches the filtered raw events by request fingerprint, and
// re-runs the matcher on every fetch.
type FileRepository struct {
	cfg    *config.Config
	loader *loader.Loader
	cache  *cache.Cache
	log    zerolog.Logger
}

// NewFileRepository wires the loader and cache from the given configuration.
func NewFileRepository(cfg *config.Config, log zerolog.Logger) (*FileRepository, error) {
	l, err := loader.New(cfg, log)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cfg.CacheDir, log)
	if err != nil {
		return nil, err
	}
	return &FileRepository{
		cfg:    cfg,
		loader: l,
		cache:  c,
		log:    log.With().Str("component", "repository").Logger(),
	}, nil
}

// Fetch resolves one request end to end: validate, discover the latest
// source, consult the cache, parse and filter on a miss, then match.
func (r *FileRepository) Fetch(ctx context.Context, params FetchParams) (*models.MatchedDataset, error) {
	if len(params.ContractIDs) == 0 {
		return nil, fmt.Errorf("%w: contract_ids", models.ErrMissingArgument)
	}
	if params.Start.IsZero() {
		return nil, fmt.Errorf("%w: start", models.ErrMissingArgument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Large ID lists only slow the pipeline down; advise, do not block.
	if len(params.ContractIDs) > r.cfg.ContractWarnThreshold {
		r.log.Warn().
			Int("count", len(params.ContractIDs)).
			Int("threshold", r.cfg.ContractWarnThreshold).
			Msg("large contract id list, fetch may be slow")
	}

	tolerance, err := r.cfg.Tolerance()
	if err != nil {
		return nil, err
	}

	src, err := r.loader.DiscoverLatest()
	if err != nil {
		return nil, err
	}

	key := cache.Fingerprint(cache.Request{
		OperationPath:    src.OperationPath,
		StatePath:        src.StatePath,
		OperationModTime: src.OperationModTime,
		StateModTime:     src.StateModTime,
		OperationCols:    r.cfg.OperationCols,
		StateCols:        r.cfg.StateCols,
		ContractIDs:      params.ContractIDs,
		Start:            params.Start,
		End:              params.End,
	})

	ops, states, hit := r.cache.Load(key)
	if !hit {
		rawOps, rawStates, err := r.loader.Load(src)
		if err != nil {
			return nil, err
		}
		ops = filterOperations(rawOps, params)
		states = filterStates(rawStates, params)

		// The cache is an optimization; a failed store must not fail the
		// fetch that produced the data.
		if err := r.cache.Store(key, ops, states); err != nil {
			r.log.Warn().Err(err).Msg("failed to store cache entry")
		}
	}

	matched, err := matcher.Match(ops, states, tolerance)
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Str("stamp", src.Stamp).
		Bool("cacheHit", hit).
		Int("records", matched.Len()).
		Msg("fetch resolved")
	return matched, nil
}

// filterOperations keeps operations for the requested contracts inside the
// date range. Rows whose timestamp failed to parse have no position in time
// and fall outside any range.
func filterOperations(events []models.OperationEvent, params FetchParams) []models.OperationEvent {
	want := contractSet(params.ContractIDs)
	out := make([]models.OperationEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := want[ev.ContractID]; !ok {
			continue
		}
		if !inRange(ev.Timestamp, params.Start, params.End) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func filterStates(events []models.StateChangeEvent, params FetchParams) []models.StateChangeEvent {
	want := contractSet(params.ContractIDs)
	out := make([]models.StateChangeEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := want[ev.ContractID]; !ok {
			continue
		}
		if !inRange(ev.Timestamp, params.Start, params.End) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func contractSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func inRange(ts time.Time, start time.Time, end *time.Time) bool {
	if ts.IsZero() || ts.Before(start) {
		return false
	}
	if end != nil && ts.After(*end) {
		return false
	}
	return true
}
