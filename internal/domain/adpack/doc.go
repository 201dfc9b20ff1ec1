// Package adpack holds the ad pack domain: entities, closed enums, and the pure
// rules for shot completion, variant transitions, pack rollup, winner
// eligibility and FAST to FINAL promotion.
package adpack
