package health

import (
	"context"
	"fmt"
	"time"
)

// DefaultPoolCheckerName is used when PoolCheckerConfig.Name is empty.
const DefaultPoolCheckerName = "flyweight_pool"

// Sizer reports the number of distinct instances held by a pool.
type Sizer interface {
	Len() int
}

// PoolCheckerConfig configures the pool health checker.
type PoolCheckerConfig struct {
	// Name identifies the checker. Default: DefaultPoolCheckerName
	Name string

	// WarnSize is the size at which the pool reports degraded. Zero disables it.
	WarnSize int

	// CriticalSize is the size at which the pool reports unhealthy. Zero disables it.
	CriticalSize int
}

// PoolChecker reports pool growth against soft thresholds.
type PoolChecker struct {
	pool   Sizer
	config PoolCheckerConfig
}

// NewPoolChecker creates a checker for pool. Negative thresholds are treated
// as disabled, and a warning size above the critical size is lowered to it.
func NewPoolChecker(pool Sizer, config PoolCheckerConfig) *PoolChecker {
	if config.Name == "" {
		config.Name = DefaultPoolCheckerName
	}
	if config.WarnSize < 0 {
		config.WarnSize = 0
	}
	if config.CriticalSize < 0 {
		config.CriticalSize = 0
	}
	if config.CriticalSize > 0 && config.WarnSize > config.CriticalSize {
		config.WarnSize = config.CriticalSize
	}
	return &PoolChecker{pool: pool, config: config}
}

// Name returns the name of this checker.
func (c *PoolChecker) Name() string {
	return c.config.Name
}

// Check performs the pool size check.
func (c *PoolChecker) Check(ctx context.Context) Result {
	start := time.Now()

	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.pool == nil {
		return Unhealthy("pool is nil", ErrCheckFailed)
	}

	size := c.pool.Len()
	details := map[string]any{
		"size":          size,
		"warn_size":     c.config.WarnSize,
		"critical_size": c.config.CriticalSize,
	}

	var r Result
	switch {
	case c.config.CriticalSize > 0 && size >= c.config.CriticalSize:
		r = Unhealthy(fmt.Sprintf("pool size critical: %d instances", size), ErrPoolTooLarge)
	case c.config.WarnSize > 0 && size >= c.config.WarnSize:
		r = Degraded(fmt.Sprintf("pool size high: %d instances", size))
	default:
		r = Healthy(fmt.Sprintf("pool size normal: %d instances", size))
	}
	return r.WithDetails(details).WithDuration(time.Since(start))
}

var _ Checker = (*PoolChecker)(nil)
