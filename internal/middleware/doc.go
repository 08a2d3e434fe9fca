// Package middleware provides request logging for the operational HTTP
// server. Prometheus scrapes and health probes are skipped by default.
package middleware
