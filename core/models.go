package core

import (
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is the opaque unique identifier of a stored document.
// IDs are derived deterministically from the source filename so that
// re-ingesting the same file replaces the prior entry instead of
// accumulating duplicates.
type ID string

// IDFromName generates a deterministic ID from a filename using BLAKE2b
// hashing. The name is reduced to its base name first, so IDs are stable
// regardless of how the original path was constructed.
func IDFromName(name string) ID {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(filepath.Base(name)))
	return ID(hex.EncodeToString(h.Sum(nil)))
}

// Document is the unit of storage and retrieval. The JSON field names are
// the wire contract with the index schema.
type Document struct {
	Id        ID        `json:"id"`
	Content   string    `json:"content"`
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	Vector    []float32 `json:"content_vector"`
}

// ScoredDocument pairs a retrieved document with its relevance score.
type ScoredDocument struct {
	Document *Document
	Score    float32
}
