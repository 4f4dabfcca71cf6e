package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentMUSRoundtrip(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		doc := Document{
			Id:        IDFromName("app.log"),
			Content:   "Exception: timeout\nretrying...",
			Filename:  "app.log",
			Timestamp: time.Date(2025, 9, 25, 10, 2, 0, 0, time.UTC),
			Vector:    []float32{0.25, -1.5, 0, 3.75},
		}

		buf := make([]byte, DocumentMUS.Size(doc))
		n := DocumentMUS.Marshal(doc, buf)
		assert.Equal(t, len(buf), n)

		got, m, err := DocumentMUS.Unmarshal(buf)
		require.NoError(t, err)
		assert.Equal(t, n, m)
		assert.Equal(t, doc, got)
	})

	t.Run("empty vector", func(t *testing.T) {
		doc := Document{
			Id:        "id",
			Content:   "",
			Filename:  "x.log",
			Timestamp: time.Unix(0, 0).UTC(),
		}

		buf := make([]byte, DocumentMUS.Size(doc))
		DocumentMUS.Marshal(doc, buf)

		got, _, err := DocumentMUS.Unmarshal(buf)
		require.NoError(t, err)
		assert.Nil(t, got.Vector)
		assert.Equal(t, doc.Filename, got.Filename)
	})

	t.Run("truncated data", func(t *testing.T) {
		doc := Document{Id: "id", Content: "content", Filename: "x.log", Timestamp: time.Now().UTC()}
		buf := make([]byte, DocumentMUS.Size(doc))
		DocumentMUS.Marshal(doc, buf)

		_, _, err := DocumentMUS.Unmarshal(buf[:len(buf)/2])
		assert.Error(t, err)
	})

	t.Run("skip covers whole record", func(t *testing.T) {
		doc := Document{
			Id:        "id",
			Content:   "content",
			Filename:  "x.log",
			Timestamp: time.Now().UTC().Truncate(time.Microsecond),
			Vector:    []float32{1, 2, 3},
		}
		buf := make([]byte, DocumentMUS.Size(doc))
		n := DocumentMUS.Marshal(doc, buf)

		skipped, err := DocumentMUS.Skip(buf)
		require.NoError(t, err)
		assert.Equal(t, n, skipped)
	})
}

func TestIDMUSRoundtrip(t *testing.T) {
	id := IDFromName("2025-09-25.log")

	buf := make([]byte, IDMUS.Size(id))
	n := IDMUS.Marshal(id, buf)
	assert.Equal(t, len(buf), n)

	got, m, err := IDMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, id, got)
}
