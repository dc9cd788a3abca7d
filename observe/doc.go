// Package observe provides observability primitives for flyweight pools.
//
// It is a pure instrumentation library: spans, metrics and structured logs for
// get-or-create lookups, plus exporter setup. The flyweight package accepts a
// Middleware and reports every lookup through it.
package observe
