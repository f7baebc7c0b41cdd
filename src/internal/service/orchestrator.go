package service

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bep/debounce"

	"coiserve/src/internal/api"
	"coiserve/src/internal/domain"
	"coiserve/src/internal/service/livereload"
	"coiserve/src/internal/service/watch"
)

// Editors save in bursts; one reload per burst is enough.
const reloadDebounce = 100 * time.Millisecond

type Orchestrator struct {
	ctx *domain.Context
}

func CreateOrchestrator(ctx *domain.Context) *Orchestrator {
	return &Orchestrator{
		ctx: ctx,
	}
}

// Run serves until SIGINT or SIGTERM.
func (o *Orchestrator) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return o.Start(ctx)
}

// Start binds the listener, then serves until ctx is done. A bind failure is
// returned before anything is served.
func (o *Orchestrator) Start(ctx context.Context) error {
	cfg := o.ctx.Config

	l, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	return o.serve(ctx, l)
}

func (o *Orchestrator) serve(ctx context.Context, l net.Listener) error {
	cfg := o.ctx.Config

	var hub *livereload.Hub
	if cfg.Watch {
		hub = livereload.NewHub()
		defer hub.Close()

		w, err := startWatcher(cfg.Root, hub)
		if err != nil {
			l.Close()
			return err
		}
		defer w.Stop()
	}

	var reload http.Handler
	if hub != nil {
		reload = hub
	}
	server := api.Create(o.ctx, reload)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(l)
	}()

	fmt.Printf("Server running on %s\n", cfg.URL())
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Printf("Shutting down...")
		server.Close()
		return <-errCh
	}
}

func startWatcher(root string, hub *livereload.Hub) (*watch.Watcher, error) {
	if root == "" {
		root = "."
	}

	w, err := watch.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	debounced := debounce.New(reloadDebounce)
	err = w.Watch(root, func(path string) {
		debounced(func() {
			log.Printf("Change detected (%s), reloading %d client(s)", path, hub.Len())
			hub.Broadcast()
		})
	})
	if err != nil {
		w.Stop()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	log.Printf("Watching %s for changes", root)
	return w, nil
}
