// Package reporter holds the capability model and the Reporter base shared
// by every module: identity, declared capabilities, and accumulated messages.
package reporter
