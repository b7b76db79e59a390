package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/stock-optimizer/internal/store"
)

// CacheWarmJob refreshes the store's in-memory series cache so the first
// optimization of the day does not pay the sqlite read cost.
type CacheWarmJob struct {
	store *store.Store
	log   zerolog.Logger
}

// NewCacheWarmJob creates a cache warm job.
func NewCacheWarmJob(s *store.Store, log zerolog.Logger) *CacheWarmJob {
	return &CacheWarmJob{
		store: s,
		log:   log.With().Str("job", "cache_warm").Logger(),
	}
}

// Name returns the job name
func (j *CacheWarmJob) Name() string {
	return "cache_warm"
}

// Run drops and rebuilds the series cache
func (j *CacheWarmJob) Run() error {
	j.store.InvalidateCache()
	return j.store.WarmCache()
}
