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
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"certchain/internal/storage/types"
)

// New creates and initializes a new in-memory storage backend.
// This storage is ephemeral and all data is lost when the process terminates.
// Suitable for testing or development environments where persistence is not required.
func New(ctx context.Context, opts ...types.Option) (types.Storage, error) {
	s := &Storage{
		anchors: make(map[string]types.TrustAnchor),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Storage implements the types.Storage interface using in-memory map
// storage. All data is stored in RAM and is lost when the application
// restarts. Trust anchors are indexed by fingerprint for fast lookup.
type Storage struct {
	mu      sync.RWMutex
	appID   string
	anchors map[string]types.TrustAnchor
	audit   []types.AuditRecord
}

// WithAppID sets the application ID for this storage instance.
func (s *Storage) WithAppID(appID string) { s.appID = appID }

// WithDSN is a no-op for in-memory storage as it doesn't use external connections.
func (s *Storage) WithDSN(dsn string) {}

// WithDumpDir is a no-op for in-memory storage as it doesn't persist to disk.
func (s *Storage) WithDumpDir(dumpDir string) {}

// WithConnMaxIdleTime is a no-op for in-memory storage.
func (s *Storage) WithConnMaxIdleTime(d time.Duration) {}

// WithConnMaxLifetime is a no-op for in-memory storage.
func (s *Storage) WithConnMaxLifetime(d time.Duration) {}

// WithMaxIdleConns is a no-op for in-memory storage.
func (s *Storage) WithMaxIdleConns(n int) {}

// WithMaxOpenConns is a no-op for in-memory storage.
func (s *Storage) WithMaxOpenConns(n int) {}

// SaveTrustAnchor registers or replaces a trust anchor, indexed by fingerprint.
func (s *Storage) SaveTrustAnchor(anchor types.TrustAnchor) error {
	if anchor.Fingerprint == "" {
		return fmt.Errorf("trust anchor has empty fingerprint")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchors[anchor.Fingerprint] = anchor
	return nil
}

// GetTrustAnchor looks up a trust anchor by fingerprint.
func (s *Storage) GetTrustAnchor(fingerprint string) (types.TrustAnchor, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	anchor, ok := s.anchors[fingerprint]
	return anchor, ok, nil
}

// DeleteTrustAnchor removes a trust anchor by fingerprint.
func (s *Storage) DeleteTrustAnchor(fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.anchors, fingerprint)
	return nil
}

// ListTrustAnchors returns every registered trust anchor.
func (s *Storage) ListTrustAnchors() ([]types.TrustAnchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.TrustAnchor, 0, len(s.anchors))
	for _, anchor := range s.anchors {
		out = append(out, anchor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fingerprint < out[j].Fingerprint })
	return out, nil
}

// AppendAuditRecord appends one record to the in-memory audit log.
func (s *Storage) AppendAuditRecord(record types.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, record)
	return nil
}

// ListAuditRecords returns audit records for a fingerprint, most recent first.
func (s *Storage) ListAuditRecords(fingerprint string, limit int) ([]types.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]types.AuditRecord, 0)
	for i := len(s.audit) - 1; i >= 0; i-- {
		if s.audit[i].Fingerprint != fingerprint {
			continue
		}
		matches = append(matches, s.audit[i])
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// Close is a no-op for in-memory storage as there are no resources to release.
func (s *Storage) Close() error { return nil }

// ProbeLiveness returns an HTTP handler for Kubernetes liveness probe.
// In-memory storage is always live once constructed: there is no external
// dependency that can fail independently of the process itself.
func (s *Storage) ProbeLiveness() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("liveness: OK (memory)", "appID", s.appID)
		w.WriteHeader(http.StatusOK)
	}
}

// ProbeReadiness returns an HTTP handler for Kubernetes readiness probe.
// Always ready: an empty trust-anchor set is a valid, if unusual, state.
func (s *Storage) ProbeReadiness() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("readiness: OK (memory)", "appID", s.appID)
		w.WriteHeader(http.StatusOK)
	}
}

// ProbeStartup returns an HTTP handler for Kubernetes startup probe.
// Always returns 200 OK as in-memory storage requires no initialization time.
func (s *Storage) ProbeStartup() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}
