// Package llm contains adapters for the models that turn a user message into
// action parameters. Provider specific APIs stay behind the Client interface;
// callers only see the raw model output, which is decoded by the extractor.
package llm
