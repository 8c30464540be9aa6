package statistics

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/internal/pkg/cache"
)

const (
	CacheKeyImagesTotal     = "statistics:images:total"
	CacheKeyImagesDaily     = "statistics:images:daily:%s" // YYYY-MM-DD
	CacheKeyCategoriesTotal = "statistics:categories:total"
	CacheKeyUsers           = "statistics:users:total"
	CacheExpiration         = 5 * time.Minute
)

// StatisticsData holds the counters shown on the index page.
type StatisticsData struct {
	TodayImages     int64 `json:"today_images"`
	TotalImages     int64 `json:"total_images"`
	TotalCategories int64 `json:"total_categories"`
	TotalUsers      int64 `json:"total_users"`
}

// Collector counts rows, reading through the cache when one is configured.
type Collector struct {
	db *gorm.DB
}

func NewCollector(db *gorm.DB) *Collector {
	return &Collector{db: db}
}

// Get returns the current statistics.
func (c *Collector) Get(ctx context.Context) StatisticsData {
	now := time.Now().UTC()
	dayStart := now.Truncate(24 * time.Hour)

	return StatisticsData{
		TodayImages: c.count(ctx, fmt.Sprintf(CacheKeyImagesDaily, dayStart.Format("2006-01-02")),
			c.db.Model(&models.Image{}).Where("stamp >= ?", dayStart)),
		TotalImages:     c.count(ctx, CacheKeyImagesTotal, c.db.Model(&models.Image{})),
		TotalCategories: c.count(ctx, CacheKeyCategoriesTotal, c.db.Model(&models.Category{})),
		TotalUsers:      c.count(ctx, CacheKeyUsers, c.db.Model(&models.User{}).Where("username IS NOT NULL")),
	}
}

// Invalidate drops the cached totals, e.g. after an upload or delete.
func (c *Collector) Invalidate(ctx context.Context) {
	day := time.Now().UTC().Format("2006-01-02")
	if err := cache.Delete(ctx, CacheKeyImagesTotal, CacheKeyCategoriesTotal, CacheKeyUsers,
		fmt.Sprintf(CacheKeyImagesDaily, day)); err != nil {
		log.Warnf("[Statistics] Failed to invalidate cache: %v", err)
	}
}

func (c *Collector) count(ctx context.Context, key string, query *gorm.DB) int64 {
	if v, err := cache.GetInt64(ctx, key); err == nil {
		return v
	}
	var n int64
	if err := query.WithContext(ctx).Count(&n).Error; err != nil {
		log.Errorf("[Statistics] Error counting %s: %v", key, err)
		return 0
	}
	if err := cache.Set(ctx, key, n, CacheExpiration); err != nil {
		log.Warnf("[Statistics] Error caching %s: %v", key, err)
	}
	return n
}
