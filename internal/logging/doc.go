// Package logging provides the leveled, printf-style logging used across the
// photo indexer.
//
// Messages are written through a zap SugaredLogger. The level is taken from
// DEBUG (any truthy value forces debug) or LOG_LEVEL, and LOG_FORMAT selects
// "console" (default) or "json" output. Call [Init] from main to apply values
// read from configuration; packages that log before Init fall back to the
// environment.
//
// Supported levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
package logging
