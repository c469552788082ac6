package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/heysubinoy/pyazkv/internal/api"
	"github.com/heysubinoy/pyazkv/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--addr", url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLISetGet(t *testing.T) {
	mux := http.NewServeMux()
	api.NewServer(api.NewHandler(store.NewMemStore(), nil), nil).RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	out, err := runCLI(t, ts.URL, "set", "a", "1")
	require.NoError(t, err)
	assert.Equal(t, "Set 'a' = '1'\n", out)

	out, err = runCLI(t, ts.URL, "get", "a")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = runCLI(t, ts.URL, "get", "missing")
	assert.EqualError(t, err, "key 'missing' not found")
}

func TestCLIArgs(t *testing.T) {
	_, err := runCLI(t, "http://127.0.0.1:0", "set", "only-key")
	assert.Error(t, err)
}
