// Package middleware decorates a ports.SchemaStore with cross-cutting behavior:
// Prometheus metrics, validation before save and encryption at rest.
//
//	store := middleware.Chain(base,
//		metrics.Middleware(),
//		middleware.NewValidationMiddleware(reg),
//	)
package middleware
