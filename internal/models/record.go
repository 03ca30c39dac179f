// Package models defines the stored entry and memory record shapes exchanged between the
// snapshot store, the search engine and callers.
package models

import (
	"time"
)

// Entry is the stored form of a record inside a collection. Metadata and Embedding are
// opaque serialized text; Timestamp is nil when the caller supplied none.
type Entry struct {
	Key       string
	Metadata  string
	Embedding string
	Timestamp *string
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Timestamp != nil {
		ts := *e.Timestamp
		c.Timestamp = &ts
	}
	return &c
}

// MemoryRecordMetadata is the identifying and descriptive part of a memory record.
// ID is the storage key of the record.
type MemoryRecordMetadata struct {
	IsReference        bool   `json:"is_reference"`
	ExternalSourceName string `json:"external_source_name"`
	ID                 string `json:"id"`
	Description        string `json:"description"`
	Text               string `json:"text"`
	AdditionalMetadata string `json:"additional_metadata"`
}

// MemoryRecord is a record as callers see it: decoded metadata, a float embedding and
// an optional timestamp.
type MemoryRecord struct {
	Metadata  MemoryRecordMetadata `json:"metadata"`
	Embedding []float32            `json:"embedding"`
	Key       string               `json:"key"`
	Timestamp *time.Time           `json:"timestamp,omitempty"`
}

// ScoredRecord pairs a record with its cosine similarity to a query.
type ScoredRecord struct {
	Record *MemoryRecord `json:"record"`
	Score  float64       `json:"score"`
}

// NewReferenceRecord builds a record pointing at an external resource (URL, file, ...).
func NewReferenceRecord(externalID, sourceName, description string, embedding []float32, additionalMetadata string, ts *time.Time) *MemoryRecord {
	return &MemoryRecord{
		Metadata: MemoryRecordMetadata{
			IsReference:        true,
			ExternalSourceName: sourceName,
			ID:                 externalID,
			Description:        description,
			AdditionalMetadata: additionalMetadata,
		},
		Embedding: embedding,
		Timestamp: ts,
	}
}

// NewInformationRecord builds a record holding the text itself.
func NewInformationRecord(id, text, description string, embedding []float32, additionalMetadata string, ts *time.Time) *MemoryRecord {
	return &MemoryRecord{
		Metadata: MemoryRecordMetadata{
			ID:                 id,
			Text:               text,
			Description:        description,
			AdditionalMetadata: additionalMetadata,
		},
		Embedding: embedding,
		Timestamp: ts,
	}
}

// WithoutEmbedding returns a shallow copy of r with an empty embedding.
func (r *MemoryRecord) WithoutEmbedding() *MemoryRecord {
	c := *r
	c.Embedding = []float32{}
	return &c
}
