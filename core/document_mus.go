package core

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	muss "github.com/mus-format/mus-go"
)

// Hand-written MUS serializers for the persisted types. The repository has a
// single record type, so the serializers are maintained by hand instead of
// generated.

var (
	// IDMUS serializes document IDs.
	IDMUS = idMUS{}

	// DocumentMUS serializes documents for storage.
	DocumentMUS = documentMUS{}
)

var (
	_ muss.Serializer[ID]       = IDMUS
	_ muss.Serializer[Document] = DocumentMUS
)

var errMalformedData = errors.New("malformed document data")

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return marshalString(string(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	s, n, err := unmarshalString(bs)
	return ID(s), n, err
}

func (idMUS) Size(id ID) int {
	return sizeString(string(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return skipString(bs)
}

type documentMUS struct{}

func (documentMUS) Marshal(doc Document, bs []byte) int {
	n := marshalString(string(doc.Id), bs)
	n += marshalString(doc.Content, bs[n:])
	n += marshalString(doc.Filename, bs[n:])
	// Timestamps are stored as unix microseconds, UTC.
	binary.LittleEndian.PutUint64(bs[n:], uint64(doc.Timestamp.UnixMicro()))
	n += 8
	n += binary.PutUvarint(bs[n:], uint64(len(doc.Vector)))
	for _, v := range doc.Vector {
		binary.LittleEndian.PutUint32(bs[n:], math.Float32bits(v))
		n += 4
	}
	return n
}

func (documentMUS) Unmarshal(bs []byte) (Document, int, error) {
	var doc Document

	id, n, err := unmarshalString(bs)
	if err != nil {
		return doc, n, err
	}
	doc.Id = ID(id)

	content, m, err := unmarshalString(bs[n:])
	n += m
	if err != nil {
		return doc, n, err
	}
	doc.Content = content

	filename, m, err := unmarshalString(bs[n:])
	n += m
	if err != nil {
		return doc, n, err
	}
	doc.Filename = filename

	if len(bs[n:]) < 8 {
		return doc, n, errMalformedData
	}
	doc.Timestamp = time.UnixMicro(int64(binary.LittleEndian.Uint64(bs[n:]))).UTC()
	n += 8

	count, m := binary.Uvarint(bs[n:])
	if m <= 0 {
		return doc, n, errMalformedData
	}
	n += m
	if uint64(len(bs[n:])) < count*4 {
		return doc, n, errMalformedData
	}
	if count > 0 {
		doc.Vector = make([]float32, count)
		for i := range doc.Vector {
			doc.Vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(bs[n:]))
			n += 4
		}
	}

	return doc, n, nil
}

func (documentMUS) Size(doc Document) int {
	size := sizeString(string(doc.Id))
	size += sizeString(doc.Content)
	size += sizeString(doc.Filename)
	size += 8 // timestamp
	size += uvarintLen(uint64(len(doc.Vector)))
	size += 4 * len(doc.Vector)
	return size
}

func (documentMUS) Skip(bs []byte) (int, error) {
	n := 0
	for i := 0; i < 3; i++ {
		m, err := skipString(bs[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	if len(bs[n:]) < 8 {
		return n, errMalformedData
	}
	n += 8
	count, m := binary.Uvarint(bs[n:])
	if m <= 0 {
		return n, errMalformedData
	}
	n += m
	if uint64(len(bs[n:])) < count*4 {
		return n, errMalformedData
	}
	n += int(count) * 4
	return n, nil
}

func marshalString(s string, bs []byte) int {
	n := binary.PutUvarint(bs, uint64(len(s)))
	return n + copy(bs[n:], s)
}

func unmarshalString(bs []byte) (string, int, error) {
	length, n := binary.Uvarint(bs)
	if n <= 0 {
		return "", 0, errMalformedData
	}
	if uint64(len(bs[n:])) < length {
		return "", n, errMalformedData
	}
	return string(bs[n : n+int(length)]), n + int(length), nil
}

func sizeString(s string) int {
	return uvarintLen(uint64(len(s))) + len(s)
}

func skipString(bs []byte) (int, error) {
	length, n := binary.Uvarint(bs)
	if n <= 0 {
		return 0, errMalformedData
	}
	if uint64(len(bs[n:])) < length {
		return n, errMalformedData
	}
	return n + int(length), nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
