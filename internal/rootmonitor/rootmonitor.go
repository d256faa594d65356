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
package rootmonitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"certchain/internal/metrics"
	"certchain/internal/storage/types"
)

// Option is a functional option type for configuring a Monitor instance.
type Option func(*Monitor)

// WithCollector sets the Prometheus metrics collector that receives expiry gauges.
func WithCollector(c *metrics.Collector) Option {
	return func(m *Monitor) {
		m.collector = c
	}
}

// WithTickInterval sets how often a tracked trust anchor's expiry is recomputed.
func WithTickInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.tickInterval = d
	}
}

// NewMonitor creates and initializes a Monitor and starts a worker for every
// trust anchor already present in anchors.
func NewMonitor(ctx context.Context, anchors []types.TrustAnchor, opts ...Option) *Monitor {
	m := &Monitor{
		ctx:          ctx,
		store:        make(map[string]types.TrustAnchor),
		workers:      make(map[string]context.CancelFunc),
		tickInterval: time.Second,
	}

	for _, opt := range opts {
		opt(m)
	}

	for _, anchor := range anchors {
		m.Track(anchor)
	}

	slog.Debug("root monitor started", "anchors", len(anchors))

	return m
}

// Monitor watches the notAfter of every registered trust anchor and publishes
// seconds-until-expiry to the metrics collector, one ticking worker per
// fingerprint. The validity window is already known once an anchor is
// registered, so each tick only has to subtract the wall clock from it.
type Monitor struct {
	ctx context.Context
	mu  sync.RWMutex

	store   map[string]types.TrustAnchor
	workers map[string]context.CancelFunc

	collector    *metrics.Collector
	tickInterval time.Duration
}

// Track begins monitoring anchor's expiry, replacing any prior record for the
// same fingerprint. If a worker for this fingerprint is already running it is
// left in place; only the stored anchor is updated.
func (m *Monitor) Track(anchor types.TrustAnchor) {
	m.mu.Lock()
	m.store[anchor.Fingerprint] = anchor
	_, running := m.workers[anchor.Fingerprint]
	m.mu.Unlock()

	if running {
		return
	}

	ctx, cancel := context.WithCancel(m.ctx)

	m.mu.Lock()
	m.workers[anchor.Fingerprint] = cancel
	m.mu.Unlock()

	go m.worker(ctx, anchor.Fingerprint)
}

// Untrack stops monitoring fingerprint and clears its published expiry gauge.
func (m *Monitor) Untrack(fingerprint string) {
	m.mu.Lock()
	cancel, ok := m.workers[fingerprint]
	delete(m.workers, fingerprint)
	delete(m.store, fingerprint)
	m.mu.Unlock()

	if ok {
		cancel()
	}

	if m.collector != nil {
		m.collector.ClearExpire(fingerprint)
	}
}

// Snapshot returns a thread-safe copy of every tracked trust anchor.
func (m *Monitor) Snapshot() map[string]types.TrustAnchor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]types.TrustAnchor, len(m.store))
	for fingerprint, anchor := range m.store {
		out[fingerprint] = anchor
	}
	return out
}

func (m *Monitor) get(fingerprint string) (types.TrustAnchor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	anchor, ok := m.store[fingerprint]
	return anchor, ok
}

// worker recomputes seconds-until-notAfter for fingerprint on every tick and
// publishes it, until ctx is cancelled by Untrack or shutdown.
func (m *Monitor) worker(ctx context.Context, fingerprint string) {
	slog.Info("starting root monitor worker", "fingerprint", fingerprint)

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("root monitor worker stopping", "fingerprint", fingerprint)
			return
		case <-ticker.C:
			anchor, ok := m.get(fingerprint)
			if !ok {
				return
			}

			seconds := time.Until(anchor.NotAfter).Seconds()

			if m.collector != nil {
				m.collector.SetExpire(fingerprint, seconds)
			}

			slog.Debug("updated trust anchor expiry", "fingerprint", fingerprint, "secondsUntilExpiry", seconds)
		}
	}
}
