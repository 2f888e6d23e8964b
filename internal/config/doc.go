// Package config loads the runtime configuration: a JSON file, an optional
// .env file next to it and process environment overrides.
package config
