// Package aggregates owns transaction boundaries for invariant-critical
// writes. Table-level repos from internal/data/repos run inside them.
package aggregates
