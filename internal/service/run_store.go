package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/exam-scheduler/internal/dto"
)

const runCacheKeyPrefix = "run:"

// RunStore keeps run responses addressable by id until they expire.
type RunStore interface {
	Save(ctx context.Context, run *dto.ExamScheduleRunResponse) error
	Get(ctx context.Context, id string) (*dto.ExamScheduleRunResponse, bool, error)
}

// NewRunStore returns a redis-backed store when the cache is enabled and a process-local one otherwise.
func NewRunStore(cache *CacheService, ttl time.Duration) RunStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cache.Enabled() {
		return &cacheRunStore{cache: cache, ttl: ttl}
	}
	return newMemoryRunStore(ttl)
}

type cacheRunStore struct {
	cache *CacheService
	ttl   time.Duration
}

func (s *cacheRunStore) Save(ctx context.Context, run *dto.ExamScheduleRunResponse) error {
	return s.cache.Set(ctx, runCacheKeyPrefix+run.RunID, run, s.ttl)
}

func (s *cacheRunStore) Get(ctx context.Context, id string) (*dto.ExamScheduleRunResponse, bool, error) {
	var run dto.ExamScheduleRunResponse
	found, err := s.cache.Get(ctx, runCacheKeyPrefix+id, &run)
	if err != nil || !found {
		return nil, false, err
	}
	return &run, true, nil
}

type memoryRunStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]dto.ExamScheduleRunResponse
}

func newMemoryRunStore(ttl time.Duration) *memoryRunStore {
	return &memoryRunStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]dto.ExamScheduleRunResponse),
	}
}

func (s *memoryRunStore) Save(_ context.Context, run *dto.ExamScheduleRunResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[run.RunID] = *run
	return nil
}

func (s *memoryRunStore) Get(_ context.Context, id string) (*dto.ExamScheduleRunResponse, bool, error) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(run.SubmittedAt) > s.ttl {
		s.delete(id)
		return nil, false, nil
	}
	return &run, true, nil
}

func (s *memoryRunStore) delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
