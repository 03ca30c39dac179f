package models

import (
	"fmt"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
)

// TimestampLayout is the sortable UTC layout timestamps are stored in.
const TimestampLayout = "2006-01-02 15:04:05Z"

var timestampParseLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// EncodeEmbedding renders an embedding as a JSON array of numbers.
func EncodeEmbedding(v []float32) (string, error) {
	if v == nil {
		v = []float32{}
	}
	b, err := gojson.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode embedding: %w", err)
	}
	return string(b), nil
}

// DecodeEmbedding parses the JSON array produced by EncodeEmbedding. An empty string
// decodes to an empty vector.
func DecodeEmbedding(s string) ([]float32, error) {
	if strings.TrimSpace(s) == "" {
		return []float32{}, nil
	}
	var v []float32
	if err := gojson.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if v == nil {
		v = []float32{}
	}
	return v, nil
}

// FormatTimestamp returns the stored form of t, or nil when t is nil.
func FormatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(TimestampLayout)
	return &s
}

// ParseTimestamp parses a stored timestamp. Values without an offset are taken as UTC.
// Empty or unparseable input yields nil.
func ParseTimestamp(s *string) *time.Time {
	if s == nil {
		return nil
	}
	str := strings.TrimSpace(*s)
	if str == "" {
		return nil
	}
	for _, layout := range timestampParseLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// SerializedMetadata returns the JSON form of the record metadata.
func (r *MemoryRecord) SerializedMetadata() (string, error) {
	b, err := gojson.Marshal(r.Metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// FromJSONMetadata builds a record from serialized metadata.
func FromJSONMetadata(metadata string, embedding []float32, key string, ts *time.Time) (*MemoryRecord, error) {
	var md MemoryRecordMetadata
	if strings.TrimSpace(metadata) != "" {
		if err := gojson.Unmarshal([]byte(metadata), &md); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if embedding == nil {
		embedding = []float32{}
	}
	return &MemoryRecord{Metadata: md, Embedding: embedding, Key: key, Timestamp: ts}, nil
}

// ToEntry converts r to its stored form under r.Key.
func (r *MemoryRecord) ToEntry() (*Entry, error) {
	md, err := r.SerializedMetadata()
	if err != nil {
		return nil, err
	}
	emb, err := EncodeEmbedding(r.Embedding)
	if err != nil {
		return nil, err
	}
	return &Entry{Key: r.Key, Metadata: md, Embedding: emb, Timestamp: FormatTimestamp(r.Timestamp)}, nil
}

// FromEntry decodes a stored entry. When withEmbedding is false the embedding is not
// decoded and the record carries an empty vector.
func FromEntry(e *Entry, withEmbedding bool) (*MemoryRecord, error) {
	emb := []float32{}
	if withEmbedding {
		var err error
		if emb, err = DecodeEmbedding(e.Embedding); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Key, err)
		}
	}
	return FromJSONMetadata(e.Metadata, emb, e.Key, ParseTimestamp(e.Timestamp))
}
