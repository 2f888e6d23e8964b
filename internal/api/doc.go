// Package api exposes the agent runtime over HTTP: the action catalogue,
// action dispatch, the action history, health and metrics.
package api
