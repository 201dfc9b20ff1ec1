// Package aggregates implements the ad pack write boundaries declared in
// internal/domain/aggregates on top of the gorm table repos. Each exported
// write runs in its own transaction and reports its outcome through Hooks.
package aggregates
