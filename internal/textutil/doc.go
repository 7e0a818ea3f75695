// Package textutil provides text normalization helpers for contact records.
//
// The primary use cases are:
//   - Normalizing phone numbers to their trailing ten digits for dedup
//   - Reducing websites to a bare lowercase host for dedup and cache keys
//   - Building cache-safe tokens from free-form input
//   - Truncating stored messages to a fixed rune budget
package textutil
