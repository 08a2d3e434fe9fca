// Package database stores the photo index and folder scan state in SQLite.
//
// It provides the persistence gateway and the settings provider the
// indexer consumes:
//   - photos: one row per photo path with its timestamp and dimensions
//   - folder_scan_states: the digest and scan time of every known folder
//   - metadata: small key/value records such as the last scan time
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package database
