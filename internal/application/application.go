/*
Copyright © 2025 Denis Khalturin
All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice,
   this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
   this list of conditions and the following disclaimer in the documentation
   and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its contributors
   may be used to endorse or promote products derived from this software
   without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
POSSIBILITY OF SUCH DAMAGE.
*/
// prettier-ignore-end
package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certchain/internal/config"
	"certchain/internal/metrics"
	"certchain/internal/rootmonitor"
	"certchain/internal/server"
	"certchain/internal/signer"
	"certchain/internal/storage"
	"certchain/internal/storage/types"
)

// App represents the main application structure that orchestrates all
// components including the HTTP server, trust-anchor/audit storage, the
// cryptographic signer, the root monitor, and metrics. It manages the
// application lifecycle from initialization to graceful shutdown.
type App struct {
	config      config.Config
	collector   *metrics.Collector
	rootMonitor *rootmonitor.Monitor
	serverHttp  *server.Server
	signer      *signer.Signer
	storage     types.Storage
}

// New creates and initializes a new App instance with all required
// components. It loads configuration, initializes storage and seeds any
// trust anchors configured at boot time, then sets up metrics, the root
// monitor, and the HTTP server. Returns an error if any component fails to
// initialize.
func New() (*App, error) {
	slog.Debug("initializing application")

	ctx := context.Background()

	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config")
		return nil, err
	}

	var sign *signer.Signer
	if cfg.Signing.KeyFile != "" {
		sign, err = signer.NewSigner(cfg.Signing.KeyFile)
		if err != nil {
			slog.Error("failed to create signer")
			return nil, err
		}
	}

	store, err := storage.New(ctx, cfg.Storage.Type,
		types.WithAppID(cfg.UUID.String()),
		types.WithConnMaxIdleTime(cfg.Storage.ConnMaxIdleTime),
		types.WithConnMaxLifetime(cfg.Storage.ConnMaxLifetime),
		types.WithDSN(cfg.Storage.DSN),
		types.WithDumpDir(cfg.Storage.DumpDir),
		types.WithMaxIdleConns(cfg.Storage.MaxIdleConns),
		types.WithMaxOpenConns(cfg.Storage.MaxOpenConns),
	)
	if err != nil {
		slog.Error("failed to create storage")
		return nil, err
	}

	seeded, err := seedTrustAnchors(store, cfg.TrustAnchors)
	if err != nil {
		slog.Error("failed to seed trust anchors")
		return nil, err
	}

	anchors, err := store.ListTrustAnchors()
	if err != nil {
		slog.Error("failed to list trust anchors")
		return nil, err
	}

	collector := metrics.NewCollector()

	monitor := rootmonitor.NewMonitor(ctx, anchors, rootmonitor.WithCollector(collector))

	srvHttp := server.NewServer(
		server.WithAddr(cfg.Server.Listen),
		server.WithReadTimeout(cfg.Server.ReadTimeout),
		server.WithWriteTimeout(cfg.Server.WriteTimeout),
	)
	srvHttp.SetHandle("/metrics", promhttp.Handler())
	srvHttp.SetHandleFunc("/", metrics.Root)
	srvHttp.SetHandleFunc("/healthz", store.ProbeLiveness())
	srvHttp.SetHandleFunc("/readyz", store.ProbeReadiness())
	srvHttp.SetHandleFunc("/startupz", store.ProbeStartup())

	app := &App{
		config:      cfg,
		collector:   collector,
		rootMonitor: monitor,
		serverHttp:  srvHttp,
		signer:      sign,
		storage:     store,
	}

	srvHttp.SetHandleFunc("/v1/certificates/verify", app.handleVerifyCertificate)
	srvHttp.SetHandleFunc("/v1/node-descriptors/verify", app.handleVerifyNodeDescriptor)
	srvHttp.SetHandleFunc("/v1/trust-anchors", app.handleRegisterTrustAnchor)

	slog.Info("application initialized", "seeded_trust_anchors", seeded)

	return app, nil
}

// seedTrustAnchors registers every boot-time trust anchor seed that is not
// already present in storage, returning how many it registered.
func seedTrustAnchors(store types.Storage, seeds []config.TrustAnchorSeed) (int, error) {
	registered := 0

	for _, seed := range seeds {
		if seed.Fingerprint == "" {
			continue
		}

		if _, ok, err := store.GetTrustAnchor(seed.Fingerprint); err != nil {
			return registered, err
		} else if ok {
			continue
		}

		var notAfter time.Time
		if seed.NotAfter != "" {
			var err error
			notAfter, err = time.Parse(time.RFC3339, seed.NotAfter)
			if err != nil {
				return registered, fmt.Errorf("trust anchor %s: invalid not_after: %w", seed.Fingerprint, err)
			}
		}

		anchor := types.TrustAnchor{
			Fingerprint:  seed.Fingerprint,
			Label:        seed.Label,
			PublicKey:    seed.PublicKey,
			RegisteredAt: time.Now().UTC(),
			NotAfter:     notAfter,
		}

		if err := store.SaveTrustAnchor(anchor); err != nil {
			return registered, err
		}

		registered++
	}

	return registered, nil
}

// Up starts the application and all its components. It launches the HTTP
// server in a separate goroutine and blocks until an interrupt signal is
// received, then triggers graceful shutdown.
func (a *App) Up() {
	slog.Info("starting application",
		"storage_type", a.config.Storage.Type,
		"app_id", a.config.UUID.String(),
	)

	go a.serverHttp.Up()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs,
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	sig := <-sigs
	slog.Info("shutdown signal received", "signal", fmt.Sprintf("%s (%d)", sig.String(), sig))

	a.Down()
}

// Down performs graceful shutdown of the application. It stops the HTTP
// server and closes the storage connection, logging any errors encountered.
func (a *App) Down() error {
	a.serverHttp.Down()

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}

	slog.Info("application stopped")
	return nil
}
