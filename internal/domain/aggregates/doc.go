// Package aggregates defines storage-facing write boundaries and the coded
// errors they return. Implementations live in internal/data/aggregates.
package aggregates
