// Package testutil provides fluent builders for constructing metrics and
// snapshots in tests. Chain only the parts you need; sensible defaults are
// applied.
package testutil
