// Package aggregates defines domain-facing aggregate contracts.
//
// Contracts avoid persistence and transport details. Each one is a write
// boundary whose invariants are enforced atomically.
package aggregates
