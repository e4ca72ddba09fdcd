package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
)

// FlagRepository defines the interface for feature flag storage
type FlagRepository interface {
	Create(ctx context.Context, f *model.FeatureFlag) error
	GetByKey(ctx context.Context, key string) (*model.FeatureFlag, error)
	List(ctx context.Context) ([]*model.FeatureFlag, error)
	Update(ctx context.Context, key string, updates map[string]interface{}) (*model.FeatureFlag, error)
	Toggle(ctx context.Context, key string) (*model.FeatureFlag, error)
	Delete(ctx context.Context, key string) error
}

// FlagService manages feature flags and answers lookups from a cache.
// A flag that cannot be read counts as enabled.
type FlagService struct {
	repo FlagRepository
	ttl  time.Duration
	now  func() time.Time

	mu         sync.RWMutex
	cache      map[string]bool
	loadedAt   time.Time
	haveCache  bool
	generation uint64 // bumped by every write
}

// FlagServiceConfig holds configuration for the flag service
type FlagServiceConfig struct {
	Repo     FlagRepository
	CacheTTL time.Duration
	Now      func() time.Time
}

// NewFlagService creates a new flag service
func NewFlagService(cfg FlagServiceConfig) *FlagService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &FlagService{
		repo: cfg.Repo,
		ttl:  cfg.CacheTTL,
		now:  cfg.Now,
	}
}

// IsEnabled reports whether the feature behind key is on. Unknown keys and
// store failures answer true so an outage never hides a feature.
func (s *FlagService) IsEnabled(ctx context.Context, key string) bool {
	flags, err := s.snapshot(ctx)
	if err != nil {
		slog.Warn("feature flag lookup failed, defaulting to enabled",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return true
	}
	enabled, ok := flags[key]
	if !ok {
		return true
	}
	return enabled
}

// Map returns every flag as key -> enabled
func (s *FlagService) Map(ctx context.Context) (map[string]bool, error) {
	flags, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(flags))
	for k, v := range flags {
		out[k] = v
	}
	return out, nil
}

// snapshot returns the cached flags, reloading them once the TTL passed.
// A failed reload keeps serving the previous snapshot for another TTL when
// there is one. A reload that raced a write is returned but not cached.
func (s *FlagService) snapshot(ctx context.Context) (map[string]bool, error) {
	s.mu.RLock()
	if s.haveCache && s.now().Sub(s.loadedAt) < s.ttl {
		flags := s.cache
		s.mu.RUnlock()
		return flags, nil
	}
	generation := s.generation
	s.mu.RUnlock()

	list, err := s.repo.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.haveCache {
			s.loadedAt = s.now()
			return s.cache, nil
		}
		return nil, err
	}
	flags := make(map[string]bool, len(list))
	for _, f := range list {
		flags[f.Key] = f.Enabled
	}
	if generation != s.generation {
		return flags, nil
	}
	s.cache = flags
	s.loadedAt = s.now()
	s.haveCache = true
	return flags, nil
}

// invalidate forces the next lookup to reload and discards any reload
// already in flight
func (s *FlagService) invalidate() {
	s.mu.Lock()
	s.haveCache = false
	s.generation++
	s.mu.Unlock()
}

// List returns every flag ordered by key
func (s *FlagService) List(ctx context.Context) ([]*model.FeatureFlag, error) {
	return s.repo.List(ctx)
}

// Get returns a flag by key
func (s *FlagService) Get(ctx context.Context, key string) (*model.FeatureFlag, error) {
	flag, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, ErrFlagNotFound
	}
	return flag, nil
}

// Create adds a flag
func (s *FlagService) Create(ctx context.Context, req *model.CreateFlagRequest) (*model.FeatureFlag, error) {
	req.Key = strings.TrimSpace(req.Key)
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	flag := &model.FeatureFlag{
		Key:         req.Key,
		Enabled:     req.Enabled,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, flag); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrFlagExists
		}
		return nil, err
	}
	s.invalidate()
	return flag, nil
}

// Update changes a flag's state or description
func (s *FlagService) Update(ctx context.Context, key string, req *model.UpdateFlagRequest) (*model.FeatureFlag, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	flag, err := s.repo.Update(ctx, key, updates)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, ErrFlagNotFound
	}
	s.invalidate()
	return flag, nil
}

// Toggle flips a flag
func (s *FlagService) Toggle(ctx context.Context, key string) (*model.FeatureFlag, error) {
	flag, err := s.repo.Toggle(ctx, key)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		return nil, ErrFlagNotFound
	}
	s.invalidate()
	return flag, nil
}

// Delete removes a flag. Lookups of a deleted key answer enabled again.
func (s *FlagService) Delete(ctx context.Context, key string) error {
	if _, err := s.Get(ctx, key); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate()
	return nil
}
