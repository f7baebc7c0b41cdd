package api

import (
	"bufio"
	"io"
	"log"
	"net"
	"net/http"

	"coiserve/src/internal/domain"
)

// responseWriter injects the isolation headers right before the status line
// is committed, and records what was sent for the access log.
type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
	hijacked    bool
	status      int
	bytes       int64
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		w.ResponseWriter.WriteHeader(code)
		return
	}

	domain.SetIsolationHeaders(w.Header())

	// 1xx other than 101 may be followed by the real status.
	if code >= 200 || code == http.StatusSwitchingProtocols {
		w.wroteHeader = true
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

// ReadFrom keeps the sendfile path of the underlying writer available.
func (w *responseWriter) ReadFrom(r io.Reader) (int64, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := io.Copy(w.ResponseWriter, r)
	w.bytes += n
	return n, err
}

func (w *responseWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(w.ResponseWriter).Hijack()
	if err == nil {
		w.hijacked = true
		if !w.wroteHeader {
			w.status = http.StatusSwitchingProtocols
		}
	}
	return conn, rw, err
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// withIsolationHeaders wraps next so every response it produces carries
// domain.IsolationHeaders, whatever next set or removed beforehand.
func withIsolationHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		// A handler that writes nothing still gets an implicit 200.
		if !rw.wroteHeader && !rw.hijacked {
			rw.WriteHeader(http.StatusOK)
		}
		logRequest(r, rw)
	})
}

func logRequest(r *http.Request, rw *responseWriter) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	log.Printf("%s - - \"%s %s %s\" %d %d", host, r.Method, r.RequestURI, r.Proto, rw.status, rw.bytes)
}
