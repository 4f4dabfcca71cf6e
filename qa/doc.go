// Package qa answers natural-language questions over ingested logs.
//
// The Engine embeds the question, retrieves the most relevant documents from
// the repository, and synthesizes an answer grounded in their content. Hybrid
// retrieval is preferred; when the repository reports it unsupported, the
// engine degrades to vector-only retrieval instead of failing the question.
// Every answer carries the sources that informed it.
package qa
