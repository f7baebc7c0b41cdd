package api

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coiserve/src/internal/domain"
)

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	withIsolationHeaders(h).ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestWithIsolationHeaders(t *testing.T) {
	t.Run("overrides handler values", func(t *testing.T) {
		rec := serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "https://example.com")
			w.Header().Add("Access-Control-Allow-Methods", "DELETE")
			w.Header().Set("Cross-Origin-Embedder-Policy", "unsafe-none")
			w.Write([]byte("ok"))
		}), http.MethodGet, "/")

		assert.Equal(t, http.StatusOK, rec.Code)
		assertIsolationHeaders(t, rec.Header())
	})

	t.Run("restores deleted headers", func(t *testing.T) {
		rec := serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			domain.SetIsolationHeaders(w.Header())
			w.Header().Del("Cross-Origin-Opener-Policy")
			w.WriteHeader(http.StatusNoContent)
		}), http.MethodGet, "/")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assertIsolationHeaders(t, rec.Header())
	})

	t.Run("error response", func(t *testing.T) {
		rec := serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}), http.MethodGet, "/")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "boom\n", rec.Body.String())
		assertIsolationHeaders(t, rec.Header())
	})

	t.Run("redirect", func(t *testing.T) {
		rec := serve(http.RedirectHandler("/elsewhere", http.StatusFound), http.MethodGet, "/")

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/elsewhere", rec.Header().Get("Location"))
		assertIsolationHeaders(t, rec.Header())
	})

	t.Run("empty handler", func(t *testing.T) {
		rec := serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), http.MethodGet, "/")

		assert.Equal(t, http.StatusOK, rec.Code)
		assertIsolationHeaders(t, rec.Header())
	})

	t.Run("flush before write", func(t *testing.T) {
		rec := serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NewResponseController(w).Flush()
			w.Write([]byte("chunk"))
		}), http.MethodGet, "/")

		assert.True(t, rec.Flushed)
		assert.Equal(t, "chunk", rec.Body.String())
		assertIsolationHeaders(t, rec.Header())
	})

	t.Run("read from", func(t *testing.T) {
		rec := serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n, err := w.(interface {
				ReadFrom(r io.Reader) (int64, error)
			}).ReadFrom(strings.NewReader("streamed"))
			assert.NoError(t, err)
			assert.Equal(t, int64(8), n)
		}), http.MethodGet, "/")

		assert.Equal(t, "streamed", rec.Body.String())
		assertIsolationHeaders(t, rec.Header())
	})
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}
	assert.Same(t, rec, rw.Unwrap())
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	require.Error(t, err)
	assert.False(t, rw.hijacked)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	req := httptest.NewRequest(http.MethodGet, "/missing.wasm?v=1", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	withIsolationHeaders(h).ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `192.0.2.7 - - "GET /missing.wasm?v=1 HTTP/1.1" 404 19`)
}
