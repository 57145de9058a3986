// Package storage provides persistence backends for simulation run records.
//
// Two backends implement the Storage interface:
//
//   - MemoryStorage: an in-process map, for tests and ephemeral use.
//   - SQLiteStorage: a SQLite database, usable with either the pure-Go
//     "sqlite" driver or the cgo "sqlite3" driver.
//
// Both backends are safe for concurrent use. Result vectors are stored as a
// JSON column; queries filter on status and creation time only.
package storage
