package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/logger"
)

const cacheScope = "settings"

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(scope, id string) string
}

// Service reads store-wide settings with a redis read-through cache. A nil
// cache degrades to straight DB reads; cache failures never fail a read.
type Service interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	StockManagementEnabled(ctx context.Context) (bool, error)
	SetStockManagementEnabled(ctx context.Context, enabled bool) error
}

type service struct {
	repo     Repository
	cache    cache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds a settings service. cache and logg may be nil.
func NewService(repo Repository, c cache, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &service{repo: repo, cache: c, cacheTTL: cacheTTL, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "setting key is required")
	}
	if s.cache != nil {
		if value, err := s.cache.Get(ctx, s.cache.CacheKey(cacheScope, key)); err == nil {
			return value, nil
		}
	}

	setting, err := s.repo.Find(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.Newf(pkgerrors.CodeNotFound, "setting %q not found", key)
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load setting")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.CacheKey(cacheScope, key), setting.Value, s.cacheTTL); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "settings cache write failed: "+err.Error())
		}
	}
	return setting.Value, nil
}

func (s *service) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "setting key is required")
	}
	if err := s.repo.Upsert(ctx, key, value); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save setting")
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, s.cache.CacheKey(cacheScope, key)); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "settings cache invalidation failed: "+err.Error())
		}
	}
	return nil
}

// StockManagementEnabled gates every inventory check and mutation. A missing
// or unparseable row counts as enabled.
func (s *service) StockManagementEnabled(ctx context.Context) (bool, error) {
	value, err := s.Get(ctx, models.SettingStockManagementEnabled)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return true, nil
		}
		return false, err
	}
	enabled, perr := strconv.ParseBool(value)
	if perr != nil {
		return true, nil
	}
	return enabled, nil
}

func (s *service) SetStockManagementEnabled(ctx context.Context, enabled bool) error {
	return s.Set(ctx, models.SettingStockManagementEnabled, strconv.FormatBool(enabled))
}
