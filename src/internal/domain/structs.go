package domain

import "net/http"

// Constants
const (
	DefaultPort = 8000

	LiveReloadPath       = "/__livereload"
	LiveReloadScriptPath = "/__livereload.js"
	ReloadMessage        = "reload"
)

type Header struct {
	Name  string
	Value string
}

// IsolationHeaders is set on every response. COOP/COEP make the page
// crossOriginIsolated, which SharedArrayBuffer (and so threaded WASM) needs.
var IsolationHeaders = []Header{
	{Name: "Access-Control-Allow-Origin", Value: "*"},
	{Name: "Access-Control-Allow-Methods", Value: "GET, POST, OPTIONS"},
	{Name: "Access-Control-Allow-Headers", Value: "*"},
	{Name: "Cross-Origin-Embedder-Policy", Value: "require-corp"},
	{Name: "Cross-Origin-Opener-Policy", Value: "same-origin"},
}

// NewIsolationHeader returns IsolationHeaders as a fresh http.Header, for
// responses that bypass the middleware such as WebSocket upgrades.
func NewIsolationHeader() http.Header {
	h := make(http.Header, len(IsolationHeaders))
	SetIsolationHeaders(h)
	return h
}

// SetIsolationHeaders overwrites any existing values.
func SetIsolationHeaders(h http.Header) {
	for _, ih := range IsolationHeaders {
		h.Set(ih.Name, ih.Value)
	}
}
