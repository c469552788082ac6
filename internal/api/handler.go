package api

import (
	"errors"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// Handler translates decoded requests into store operations. It is shared by
// the HTTP and gRPC boundaries; both hand it values that are already
// validated.
type Handler struct {
	store  kv.Store
	logger hclog.Logger
}

// NewHandler creates a handler around an explicitly owned store.
func NewHandler(store kv.Store, logger hclog.Logger) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Get looks up key. A miss returns kv.ErrNotFound.
func (h *Handler) Get(key string) (kv.KeyValue, error) {
	value, err := h.store.Get(key)
	switch {
	case err == nil:
		h.logger.Info("key read", "key", key, "found", true)
		return kv.KeyValue{Key: key, Value: value}, nil
	case errors.Is(err, kv.ErrNotFound):
		h.logger.Info("key read", "key", key, "found", false)
		return kv.KeyValue{}, err
	default:
		h.logger.Error("key read failed", "key", key, "error", err)
		return kv.KeyValue{}, err
	}
}

// Set inserts or overwrites the pair.
func (h *Handler) Set(pair kv.KeyValue) error {
	if err := h.store.Set(pair.Key, pair.Value); err != nil {
		h.logger.Error("key-value write failed", "key", pair.Key, "error", err)
		return err
	}
	h.logger.Info("key-value written", "key", pair.Key, "value_bytes", len(pair.Value))
	return nil
}
