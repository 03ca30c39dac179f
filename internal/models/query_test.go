package models

import (
	"errors"
	"testing"
)

func TestMatchQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     *MatchQuery
		wantErr   bool
		wantLimit int
	}{
		{"empty query", &MatchQuery{}, true, 0},
		{"embedding only", &MatchQuery{Embedding: []float32{1, 0}}, false, 10},
		{"text only", &MatchQuery{Text: "hello"}, false, 10},
		{"caps limit", &MatchQuery{Text: "x", Limit: 500}, false, 100},
		{"keeps negative limit", &MatchQuery{Text: "x", Limit: -3}, false, -3},
		{"min score out of range", &MatchQuery{Text: "x", MinScore: 1.5}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(10, 100)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("Validate() error = %v, want ErrInvalidQuery", err)
			}
			if !tt.wantErr && tt.query.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.query.Limit, tt.wantLimit)
			}
		})
	}
}
