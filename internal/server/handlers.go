package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/merkon/pkg/merkon"
)

type createCollectionRequest struct {
	Name string `json:"name"`
}

type recordRequest struct {
	ID                 string     `json:"id"`
	IsReference        bool       `json:"is_reference"`
	ExternalSourceName string     `json:"external_source_name"`
	Description        string     `json:"description"`
	Text               string     `json:"text"`
	AdditionalMetadata string     `json:"additional_metadata"`
	Embedding          []float32  `json:"embedding"`
	Timestamp          *time.Time `json:"timestamp,omitempty"`
}

type keysRequest struct {
	Keys           []string `json:"keys"`
	WithEmbeddings bool     `json:"with_embeddings"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	resp := map[string]interface{}{
		"stats":          stats,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if loadErr := s.store.LoadErr(); loadErr != nil {
		resp["load_error"] = loadErr.Error()
	}
	if s.embedder != nil {
		resp["embedding_dimensions"] = s.embedder.Dimensions()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	names := slices.Collect(s.store.GetCollections(r.Context()))
	if names == nil {
		names = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"collections": names})
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := gojson.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.logger.Debug("create collection request", zap.String("collection", req.Name))
	if err := s.store.CreateCollection(r.Context(), req.Name); err != nil {
		s.logger.Error("create collection failed", zap.Error(err))
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"name": req.Name, "status": "created"})
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.logger.Debug("delete collection request", zap.String("collection", name))
	if err := s.store.DeleteCollection(r.Context(), name); err != nil {
		s.logger.Error("delete collection failed", zap.Error(err))
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleUpsertRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	collection := chi.URLParam(r, "name")
	var req recordRequest
	if err := gojson.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if len(req.Embedding) == 0 {
		emb, err := s.embedText(ctx, &req)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Embedding = emb
	}

	var record *merkon.MemoryRecord
	if req.IsReference {
		record = merkon.NewReferenceRecord(req.ID, req.ExternalSourceName, req.Description, req.Embedding, req.AdditionalMetadata, req.Timestamp)
	} else {
		record = merkon.NewInformationRecord(req.ID, req.Text, req.Description, req.Embedding, req.AdditionalMetadata, req.Timestamp)
		record.Metadata.ExternalSourceName = req.ExternalSourceName
	}
	s.logger.Debug("upsert request", zap.String("collection", collection), zap.String("id", req.ID))
	key, err := s.store.Upsert(ctx, collection, record)
	if err != nil {
		s.logger.Error("upsert failed", zap.Error(err))
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"key": key})
}

// embedText embeds the record text, falling back to its description.
func (s *Server) embedText(ctx context.Context, req *recordRequest) ([]float32, error) {
	text := req.Text
	if text == "" {
		text = req.Description
	}
	if s.embedder == nil || text == "" {
		return nil, errors.New("embedding is required")
	}
	return s.embedder.Embed(ctx, text)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "name")
	key := chi.URLParam(r, "key")
	withEmbedding, _ := strconv.ParseBool(r.URL.Query().Get("with_embedding"))
	record, err := s.store.Get(r.Context(), collection, key, withEmbedding)
	if err != nil {
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	if record == nil {
		s.respondError(w, http.StatusNotFound, "record not found")
		return
	}
	s.respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "name")
	key := chi.URLParam(r, "key")
	s.logger.Debug("delete record request", zap.String("collection", collection), zap.String("key", key))
	if err := s.store.Remove(r.Context(), collection, key); err != nil {
		s.logger.Error("delete record failed", zap.Error(err))
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleBatchGet returns records for keys in order, stopping at the first missing key.
func (s *Server) handleBatchGet(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "name")
	var req keysRequest
	if err := gojson.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	records := []*merkon.MemoryRecord{}
	for rec, err := range s.store.GetBatch(r.Context(), collection, req.Keys, req.WithEmbeddings) {
		if err != nil {
			s.respondError(w, errorStatus(err), err.Error())
			return
		}
		records = append(records, rec)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "name")
	var req keysRequest
	if err := gojson.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("batch delete request", zap.String("collection", collection), zap.Int("keys", len(req.Keys)))
	if err := s.store.RemoveBatch(r.Context(), collection, req.Keys); err != nil {
		s.logger.Error("batch delete failed", zap.Error(err))
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "deleted", "keys": len(req.Keys)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "name")
	var query merkon.MatchQuery
	if err := gojson.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("collection", collection), zap.Int("limit", query.Limit))
	response, err := s.store.Search(r.Context(), collection, &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, errorStatus(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, merkon.ErrInvalidQuery),
		errors.Is(err, merkon.ErrNoEmbedder),
		errors.Is(err, merkon.ErrDimensionMismatch),
		errors.Is(err, merkon.ErrNilRecord):
		return http.StatusBadRequest
	case errors.Is(err, merkon.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, merkon.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = gojson.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
