package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coiserve/src/internal/domain"
	"coiserve/src/internal/service"
)

func newRootCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "coiserve [port]",
		Short: "Serve the current directory with CORS and cross-origin isolation headers",
		Long: "Serves files from the working directory and adds CORS, COEP and COOP headers to\n" +
			"every response, so WebAssembly using shared memory and workers can load locally.",
		Version:      Version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := newContext(args, watch)
			if err != nil {
				return err
			}
			return service.CreateOrchestrator(ctx).Run()
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "reload connected pages when files change")
	return cmd
}

// newContext reads the process configuration once, at startup.
func newContext(args []string, watch bool) (*domain.Context, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}

	return &domain.Context{
		Config: domain.Config{
			Version: Version,
			Port:    domain.ParsePort(args),
			Root:    root,
			Watch:   watch,
		},
	}, nil
}
