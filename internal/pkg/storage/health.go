package storage

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Health is the last observed state of the storage backend.
type Health struct {
	Backend   string    `json:"backend"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthMonitor pings the backend periodically and keeps the last result.
type HealthMonitor struct {
	manager  *Manager
	interval time.Duration

	mu   sync.RWMutex
	last Health
	stop chan struct{}
	once sync.Once
}

func NewHealthMonitor(manager *Manager, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{manager: manager, interval: interval, stop: make(chan struct{})}
}

// Start runs a check immediately and then every interval until Stop.
func (h *HealthMonitor) Start() {
	h.CheckOnce(context.Background())
	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		log.Infof("[StorageHealth] Monitor started (interval: %v)", h.interval)
		for {
			select {
			case <-h.stop:
				log.Info("[StorageHealth] Monitor stopped")
				return
			case <-ticker.C:
				h.CheckOnce(context.Background())
			}
		}
	}()
}

// Stop ends the monitor loop.
func (h *HealthMonitor) Stop() {
	h.once.Do(func() { close(h.stop) })
}

// CheckOnce pings the backend and records the result.
func (h *HealthMonitor) CheckOnce(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := Health{Backend: h.manager.Backend().Name(), Healthy: true, CheckedAt: time.Now().UTC()}
	if err := h.manager.Ping(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
		log.Warnf("[StorageHealth] %s backend unhealthy: %v", res.Backend, err)
	}

	h.mu.Lock()
	h.last = res
	h.mu.Unlock()
	return res
}

// Last returns the most recent result.
func (h *HealthMonitor) Last() Health {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}
