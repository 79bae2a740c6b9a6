package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/joeblew999/geovisor/internal/logging"
	"github.com/joeblew999/geovisor/internal/server"
)

// Options defines all CLI flags and env vars for the geovisor server.
// Flags: --host, --port, --data-dir, --catalog, --fragments, --log-level, --log-format
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_CATALOG, ...
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir   string `doc:"Directory for sources, exports and DuckDB" default:".data"`
	Catalog   string `doc:"YAML file with extra reference systems"`
	Fragments string `doc:"Directory overriding the built-in HTML fragments"`
	LogLevel  string `doc:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `doc:"Log format (json, text)" default:"json"`
}

func newServer(opts *Options) *server.Server {
	return server.New(server.Config{
		Host:         opts.Host,
		Port:         fmt.Sprintf("%d", opts.Port),
		DataDir:      opts.DataDir,
		CatalogPath:  opts.Catalog,
		FragmentsDir: opts.Fragments,
		Logger:       slog.Default(),
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logging.Setup(opts.LogLevel, opts.LogFormat)

		var httpServer *http.Server
		var srv *server.Server

		hooks.OnStart(func() {
			srv = newServer(opts)
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("geovisor API server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Viewer:  %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			slog.Info("API server starting", "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server error", "error", err)
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			slog.Info("shutdown signal received, draining connections...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				slog.Error("forced shutdown", "error", err)
			}
			if err := srv.Close(); err != nil {
				slog.Error("close database", "error", err)
			}
			slog.Info("server stopped")
		})
	})

	cli.Root().Use = "geovisor"
	cli.Root().Short = "Coordinate reference resolver for maps and surveys"
	cli.Root().Version = "0.1.0"

	addCommands(cli)

	cli.Run()
}
