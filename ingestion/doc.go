// Package ingestion turns raw log payloads into embedded documents.
//
// The Pipeline runs each payload through a fixed stage sequence:
//
//  1. decode - reject bytes that are not valid UTF-8 text
//  2. detect - count incident patterns (Exception, Timeout, ERROR)
//  3. embed  - obtain a vector through the embedding gateway
//  4. store  - upsert the document into the repository
//
// Document identity is derived from the payload's base filename, so
// re-ingesting a file replaces the stored document instead of duplicating it.
// Failures carry the stage they occurred in via StageError.
package ingestion
