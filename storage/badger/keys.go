package badger

import "github.com/poiesic/logsight/core"

// Key prefixes for different data types
const (
	documentPrefix = "logdoc"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	prefix := documentPrefix + ":"
	buf := make([]byte, len(prefix)+len(id))
	offset := copy(buf, prefix)
	copy(buf[offset:], string(id))
	return buf
}
