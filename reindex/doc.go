// Package reindex re-embeds every stored document with the currently
// configured embedding model. It is a maintenance operation for when the
// embedding model or dimensionality changes: documents are streamed out of
// the store in batches, embedded again, and written back with retry and
// progress reporting.
package reindex
