// Package store keeps the history of finished characterization runs in
// SQLite. Each row carries summary columns for listing and the full report
// as a CBOR blob, optionally zstd compressed.
package store
