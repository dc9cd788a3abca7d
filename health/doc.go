// Package health provides health checking primitives for flyweight pools.
//
// A flyweight pool never evicts, so its size only grows. PoolChecker turns
// that growth into a health signal: a pool is Degraded once it reaches a
// warning size and Unhealthy at a critical size. The thresholds are advisory;
// the pool itself keeps working.
//
//	checker := health.NewPoolChecker(factory, health.PoolCheckerConfig{
//	    WarnSize:     10_000,
//	    CriticalSize: 100_000,
//	})
//	result := checker.Check(ctx)
//	if result.Status != health.StatusHealthy {
//	    log.Printf("pool %s: %s", checker.Name(), result.Message)
//	}
package health
