// Package models defines the domain models for weighbill.
//
// # Models
//
//   - LineItem: one committed entry of the working bill
//   - Bill: the working bill snapshot (lines plus derived total)
//   - Receipt: an immutable saved bill kept in the capped history
//   - Item: a catalog entry priced per kilogram
//   - Settings and Theme: user preferences
//   - Lock: the optional till passcode
//
// # Persisted shapes
//
// Every model is stored as a JSON document under one key of the key-value
// store (see package storage). The JSON field names are part of the durable
// contract shared with export files and the browser UI, so they use the
// camelCase names the UI already understands (itemName, lineTotal, ts, ...).
//
// Amounts that have been committed to a bill are whole currency units
// (int64). Raw operands such as a typed price are float64 and optional.
package models
