// Package message models the severity-tagged, localized diagnostics that
// modules and sources accumulate during characterization.
//
// Messages are immutable values. Their text is resolved once, at
// construction, through a Resolver; the bundled Catalog resolver reads TOML
// format tables and renders them with golang.org/x/text/message. A missing
// catalog entry is a configuration error, never a per-source condition.
//
// Set keeps messages ordered and de-duplicated by full value, and counts the
// Error-severity entries that drive fail-fast decisions.
package message
