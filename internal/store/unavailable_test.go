package store_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/pyazkv/internal/api"
	"github.com/heysubinoy/pyazkv/internal/store"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortedCriticalSectionServes503(t *testing.T) {
	mem := store.NewMemStore()
	reg := prometheus.NewRegistry()
	instrumented := store.NewInstrumentedStore(mem, reg)
	logger := hclog.NewNullLogger()

	mux := http.NewServeMux()
	api.NewServer(api.NewHandler(instrumented, logger), logger).RegisterRoutes(mux)
	api.RegisterOps(mux, instrumented, reg)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	do := func(method, path, body string) (int, string) {
		t.Helper()
		req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}

	code, _ := do(http.MethodPost, "/post", `{"key":"a","value":"1"}`)
	require.Equal(t, http.StatusOK, code)

	err := store.AbortCriticalSection(mem, "boom")
	require.ErrorIs(t, err, kv.ErrStoreUnavailable)

	code, _ = do(http.MethodGet, "/get/a", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = do(http.MethodPost, "/post", `{"key":"b","value":"2"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, body := do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body)

	code, body = do(http.MethodGet, "/stats", "")
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, `"keys"`)
	assert.Equal(t, uint64(2), instrumented.GetMetrics().Unavailable)
}
