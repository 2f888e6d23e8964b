// Package agent is the runtime that owns the action registry. It resolves an
// action by name or simile, runs one action at a time, and records the outcome
// in the history store, the audit log and the metrics.
package agent
