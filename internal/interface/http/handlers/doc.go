// Package handlers contains the handlers and middleware of the ops HTTP
// server.
//
// # Health
//
// HealthChecker runs named checks in parallel. Required checks decide
// readiness, optional ones (Redis) only mark the worker degraded:
//
//	checker := handlers.NewHealthChecker(version)
//	checker.AddCheck("postgres", handlers.PingCheck(conn))
//	checker.AddOptionalCheck("redis", handlers.PingCheck(cache))
//
// # Ops
//
// OpsHandler exposes pending auto-cancel tasks, periodic jobs, undeliverable
// mail and the monthly settlement workbook. Admin routes are guarded by
// APIKeyAuth.
package handlers
