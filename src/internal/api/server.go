package api

import (
	"errors"
	"log"
	"net"
	"net/http"
	"sync"

	"coiserve/src/internal/domain"
	"coiserve/src/internal/service/livereload"
)

type Api struct {
	ctx    *domain.Context
	reload http.Handler

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// Create builds the API for ctx. reload serves the live-reload socket and is
// only mounted when ctx.Config.Watch is set; it may be nil otherwise.
func Create(ctx *domain.Context, reload http.Handler) *Api {
	registerMimeTypes()

	return &Api{
		ctx:    ctx,
		reload: reload,
	}
}

func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()

	if a.ctx.Config.Watch && a.reload != nil {
		mux.Handle(domain.LiveReloadPath, a.reload)
		mux.HandleFunc(domain.LiveReloadScriptPath, a.handleLiveReloadScript)
	}

	// Static files
	mux.Handle("/", newStaticHandler(a.ctx.Config.Root))

	return withIsolationHeaders(mux)
}

// Serve serves on l until Close, which makes it return nil.
func (a *Api) Serve(l net.Listener) error {
	server := &http.Server{Handler: a.Handler()}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return l.Close()
	}
	a.server = server
	a.mu.Unlock()

	log.Printf("Serving %s on %s", a.root(), l.Addr())
	if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the listener and drops open connections.
func (a *Api) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	if a.server == nil {
		return nil
	}
	return a.server.Close()
}

func (a *Api) root() string {
	if a.ctx.Config.Root == "" {
		return "."
	}
	return a.ctx.Config.Root
}

func (a *Api) handleLiveReloadScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Write([]byte(livereload.Script))
}
