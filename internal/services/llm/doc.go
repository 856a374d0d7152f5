// Package llm implements the text-generation collaborator over a
// chat-completions HTTP API with bounded retry.
package llm
