package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ufsoft/screener/app/repository"
	"github.com/ufsoft/screener/internal/pkg/metrics"
)

const imageViewsKey = "images:counters:views"

// ViewCounter buffers image view increments in a redis hash and flushes them
// to the database in batches. Without redis every view is written directly.
type ViewCounter struct {
	rdb    *redis.Client
	images repository.ImageRepository
}

// NewViewCounter creates a counter; rdb may be nil.
func NewViewCounter(rdb *redis.Client, images repository.ImageRepository) *ViewCounter {
	return &ViewCounter{rdb: rdb, images: images}
}

// AddView records one view of the image.
func (c *ViewCounter) AddView(ctx context.Context, imageID string) error {
	if c.rdb == nil {
		return c.images.AddViews(imageID, 1)
	}
	return c.rdb.HIncrBy(ctx, imageViewsKey, imageID, 1).Err()
}

// Flush drains the pending counters into the database and returns how many
// images were updated. The hash is renamed first so concurrent increments
// land in a fresh hash. Counts that could not be written are merged back.
func (c *ViewCounter) Flush(ctx context.Context) (int, error) {
	if c.rdb == nil {
		return 0, nil
	}

	tmpKey := fmt.Sprintf("%s:tmp:%d", imageViewsKey, time.Now().UnixNano())
	if err := c.rdb.Rename(ctx, imageViewsKey, tmpKey).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return 0, nil
		}
		return 0, err
	}

	data, err := c.rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return 0, err
	}
	defer c.rdb.Del(ctx, tmpKey)

	pending := make(map[string]int64, len(data))
	for id, v := range data {
		if inc, perr := strconv.ParseInt(v, 10, 64); perr == nil && inc != 0 {
			pending[id] = inc
		}
	}

	updated := 0
	for id, inc := range pending {
		if err := c.images.AddViews(id, inc); err != nil {
			if merr := c.requeue(ctx, pending); merr != nil {
				log.Errorf("[Counter] Could not requeue %d view counters: %v", len(pending), merr)
			}
			return updated, err
		}
		delete(pending, id)
		updated++
	}
	return updated, nil
}

// requeue adds unwritten counts back onto the live hash.
func (c *ViewCounter) requeue(ctx context.Context, pending map[string]int64) error {
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, inc := range pending {
			pipe.HIncrBy(ctx, imageViewsKey, id, inc)
		}
		return nil
	})
	return err
}

// Run flushes every interval until ctx is cancelled, with a final flush on
// the way out.
func (c *ViewCounter) Run(ctx context.Context, interval time.Duration) {
	if c.rdb == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if _, err := c.Flush(context.Background()); err != nil {
				log.Errorf("[Counter] Final flush failed: %v", err)
			}
			return
		case <-ticker.C:
			if n, err := c.Flush(ctx); err != nil {
				log.Errorf("[Counter] Flush failed: %v", err)
			} else if n > 0 {
				metrics.Get().ViewFlushTotal.Add(float64(n))
				log.Debugf("[Counter] Flushed views for %d images", n)
			}
		}
	}
}
