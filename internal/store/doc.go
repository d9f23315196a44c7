// Package store provides SQLite-backed storage for capture sessions.
//
// A session is a named, append-only log of the calls one recorder saw.
// Stored sessions can be replayed into a recorder and asserted on later,
// for example by fixture files run from the CLI.
//
// # Ordering
//
// Calls are ordered by their recorder sequence number (seq), never by
// timestamps, so a replayed session yields calls in recording order:
//
//	ORDER BY seq ASC
//
// Sessions are listed by ID. IDs are UUIDv7 and therefore sort by creation
// time.
//
// # Bindings
//
// Bound values are stored as a JSON array. []byte values are stored as
// strings and time.Time values as RFC 3339 strings. Numbers are read back as
// json.Number so large integers keep their precision; matching compares
// string forms, so a replayed 5 still matches an expected 5.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
