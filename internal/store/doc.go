// Package store provides SQLite-backed storage for solve records.
//
// Every solve run through the CLI with --db is appended to the solves table,
// successful or not. Records are keyed by a caller-supplied ID (UUIDv7 in
// production) and grouped by stack hash (see stackfile.Hash).
//
// # Ordering
//
// All ordering uses the seq column (logical clock), never timestamps.
// History queries return newest first; per-stack queries oldest first so that
// replaying them reproduces the order they were run in.
//
// # Database Configuration
//
// Pragmas are passed in the go-sqlite3 DSN so every connection gets them:
// WAL journal, synchronous=NORMAL, a 5s busy timeout and foreign keys on.
// The schema version lives in PRAGMA user_version; Open applies pending
// migrations and refuses files written by a newer schema.
package store
