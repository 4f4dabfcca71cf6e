// Package openai implements the ai service interfaces against
// OpenAI-compatible HTTP APIs (OpenAI, Ollama, LocalAI, vLLM, ...).
//
// The embedding and chat clients are built on langchaingo and configured
// from ai.Config. Both services may point at the same host or at two
// different ones.
package openai
