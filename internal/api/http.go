package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// MaxBodyBytes caps the size of a POST /post body.
const MaxBodyBytes = 1 << 20

// SuccessBody is the acknowledgement returned by a successful write.
const SuccessBody = "Success"

// Server exposes a Handler over HTTP.
type Server struct {
	Handler *Handler
	logger  hclog.Logger
}

// NewServer creates a new HTTP server around the given handler.
func NewServer(handler *Handler, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		Handler: handler,
		logger:  logger,
	}
}

// RegisterRoutes registers the key-value routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /get/{key}", s.handleGet)
	mux.HandleFunc("POST /post", s.handleSet)
}

// handleGet handles GET /get/{key} requests.
// Returns {"key": ..., "value": ...} or 404 when the key is absent.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	pair, err := s.Handler.Get(r.PathValue("key"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// handleSet handles POST /post requests with JSON body.
// Expects: {"key": "foo", "value": "bar"}
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	pair, err := DecodeKeyValue(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.logger.Debug("rejected write", "error", err)
		s.writeError(w, err)
		return
	}

	if err := s.Handler.Set(pair); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, SuccessBody)
}

// keyValueRequest distinguishes absent fields from empty strings.
type keyValueRequest struct {
	Key   *string `json:"key"`
	Value *string `json:"value"`
}

// DecodeKeyValue parses a JSON body into a KeyValue. The body must be a
// single JSON object with key and value present as strings, each given once;
// anything else is kv.ErrMalformedInput.
func DecodeKeyValue(r io.Reader) (kv.KeyValue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return kv.KeyValue{}, fmt.Errorf("%w: %v", kv.ErrMalformedInput, err)
	}

	// Unmarshal rejects trailing data after the object.
	var req keyValueRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return kv.KeyValue{}, fmt.Errorf("%w: %v", kv.ErrMalformedInput, err)
	}
	if name, ok := duplicateField(data, "key", "value"); ok {
		return kv.KeyValue{}, fmt.Errorf("%w: duplicate %s field", kv.ErrMalformedInput, name)
	}
	if req.Key == nil {
		return kv.KeyValue{}, fmt.Errorf("%w: missing key field", kv.ErrMalformedInput)
	}
	if req.Value == nil {
		return kv.KeyValue{}, fmt.Errorf("%w: missing value field", kv.ErrMalformedInput)
	}
	return kv.KeyValue{Key: *req.Key, Value: *req.Value}, nil
}

// duplicateField reports the first of names that appears more than once at
// the top level of the JSON object in data. data must already be valid JSON.
func duplicateField(data []byte, names ...string) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", false
	}

	seen := make(map[string]bool, len(names))
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		name, _ := tok.(string)
		if slices.Contains(names, name) {
			if seen[name] {
				return name, true
			}
			seen[name] = true
		}

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return "", false
		}
	}
	return "", false
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, kv.ErrNotFound):
		http.Error(w, "Key not found", http.StatusNotFound)
	case errors.Is(err, kv.ErrMalformedInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, kv.ErrStoreUnavailable):
		http.Error(w, "Store unavailable", http.StatusServiceUnavailable)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one debug line per request.
func AccessLog(logger hclog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
