// Package report turns a characterized source tree into a serializable
// document and encodes it as text, JSON, YAML, or CBOR.
package report
