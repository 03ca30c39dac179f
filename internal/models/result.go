package models

// SearchResponse is the response for a nearest-match request.
type SearchResponse struct {
	Collection string          `json:"collection"`
	Results    []*ScoredRecord `json:"results"`
	Total      int             `json:"total"`
	QueryTime  int64           `json:"query_time_ms"`
}
