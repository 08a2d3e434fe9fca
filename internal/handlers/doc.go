// Package handlers serves the operational HTTP endpoints exposed next to the
// indexer: Prometheus metrics, health, liveness, readiness and build version.
//
// Readiness flips to ready after the first successful scan. Health reports
// "degraded" when a later scan failed, and includes the latest progress
// snapshot and index statistics.
package handlers
