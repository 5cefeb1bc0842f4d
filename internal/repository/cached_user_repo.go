package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/nmarofsky/DatingApp/pkg/cache"
	"github.com/nmarofsky/DatingApp/pkg/logger"
)

// CachedUserRepository serves user lookups from Redis before the database.
// Sends resolve both participants on every message, so the lookup is hot.
type CachedUserRepository struct {
	repo  UserRepository
	cache cache.Service
}

// NewCachedUserRepository wraps repo with a read-through cache
func NewCachedUserRepository(repo UserRepository, cacheService cache.Service) UserRepository {
	if cacheService == nil || !cacheService.IsAvailable() {
		return repo
	}
	return &CachedUserRepository{repo: repo, cache: cacheService}
}

// FindByUsername checks the cache first. Misses for unknown users are not cached.
func (r *CachedUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.cache.GetUser(ctx, username, &user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.GetLogger().Warn().Err(err).Str("username", username).Msg("user cache read failed")
	}

	found, err := r.repo.FindByUsername(ctx, username)
	if err != nil || found == nil {
		return found, err
	}

	if err := r.cache.SetUser(ctx, username, found); err != nil {
		logger.GetLogger().Warn().Err(err).Str("username", username).Msg("user cache write failed")
	}
	return found, nil
}

// TouchLastActive writes through and drops the cached copy
func (r *CachedUserRepository) TouchLastActive(ctx context.Context, username string, at time.Time) error {
	if err := r.repo.TouchLastActive(ctx, username, at); err != nil {
		return err
	}
	return r.cache.InvalidateUser(ctx, username)
}
