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
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"certchain/internal/storage/postgres/migrations"
	"certchain/internal/storage/types"
)

// New creates and initializes a new PostgreSQL storage backend.
// It opens a connection to PostgreSQL using the provided DSN, validates connectivity,
// and runs database migrations to ensure the schema is up to date.
// Returns an error if connection fails or migrations cannot be applied.
func New(ctx context.Context, opts ...types.Option) (types.Storage, error) {
	s := new(Storage)

	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres dsn: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db.SetConnMaxIdleTime(s.connMaxIdleTime)
	db.SetConnMaxLifetime(s.connMaxLifetime)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetMaxOpenConns(s.maxOpenConns)

	s.client = db
	s.ctx = ctx

	return s, nil
}

// Storage implements the types.Storage interface using PostgreSQL as the
// backend. Trust anchors live in the trust_anchors table, keyed per appID by
// fingerprint; validation attempts are appended to audit_records.
type Storage struct {
	ctx             context.Context
	appID           string
	client          *sql.DB
	dsn             string
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
}

// WithAppID sets the application ID for this storage instance.
func (s *Storage) WithAppID(appID string) {
	s.appID = appID
}

// WithDSN sets the PostgreSQL connection string (DSN).
func (s *Storage) WithDSN(dsn string) {
	s.dsn = dsn
}

// WithDumpDir is a no-op for PostgreSQL storage as it doesn't use file dumps.
func (s *Storage) WithDumpDir(dumpDir string) {
	// no-op for this storage
}

// WithConnMaxIdleTime returns an option that sets the maximum amount of time a connection may be idle.
func (s *Storage) WithConnMaxIdleTime(d time.Duration) {
	s.connMaxIdleTime = d
}

// WithConnMaxLifetime returns an option that sets the maximum amount of time a connection may be reused.
func (s *Storage) WithConnMaxLifetime(d time.Duration) {
	s.connMaxLifetime = d
}

// WithMaxIdleConns returns an option that sets the maximum number of connections in the idle connection pool.
func (s *Storage) WithMaxIdleConns(n int) {
	s.maxIdleConns = n
}

// WithMaxOpenConns returns an option that sets the maximum number of open connections to the database.
func (s *Storage) WithMaxOpenConns(n int) {
	s.maxOpenConns = n
}

// SaveTrustAnchor persists a trust anchor, upserting on (app_id, fingerprint).
func (s *Storage) SaveTrustAnchor(anchor types.TrustAnchor) error {
	if anchor.Fingerprint == "" {
		return fmt.Errorf("trust anchor has empty fingerprint")
	}

	const q = `
INSERT INTO trust_anchors (app_id, fingerprint, label, public_key, registered_at, not_after)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (app_id, fingerprint) DO UPDATE
SET
    label         = EXCLUDED.label,
    public_key    = EXCLUDED.public_key,
    registered_at = EXCLUDED.registered_at,
    not_after     = EXCLUDED.not_after,
    updated_at    = now();
`

	if _, err := s.client.ExecContext(s.ctx, q,
		s.appID, anchor.Fingerprint, anchor.Label, anchor.PublicKey, anchor.RegisteredAt, anchor.NotAfter,
	); err != nil {
		slog.Error("failed to save trust anchor to postgres", "error", err, "fingerprint", anchor.Fingerprint)
		return fmt.Errorf("failed to save trust anchor: %w", err)
	}

	return nil
}

// GetTrustAnchor looks up a trust anchor by fingerprint, scoped to this appID.
func (s *Storage) GetTrustAnchor(fingerprint string) (types.TrustAnchor, bool, error) {
	const q = `
SELECT fingerprint, label, public_key, registered_at, not_after
FROM trust_anchors
WHERE app_id = $1 AND fingerprint = $2
`

	var anchor types.TrustAnchor
	err := s.client.QueryRowContext(s.ctx, q, s.appID, fingerprint).Scan(
		&anchor.Fingerprint, &anchor.Label, &anchor.PublicKey, &anchor.RegisteredAt, &anchor.NotAfter,
	)
	if err == sql.ErrNoRows {
		return types.TrustAnchor{}, false, nil
	}
	if err != nil {
		return types.TrustAnchor{}, false, fmt.Errorf("failed to query trust anchor: %w", err)
	}

	return anchor, true, nil
}

// DeleteTrustAnchor removes a trust anchor by fingerprint, scoped to this appID.
func (s *Storage) DeleteTrustAnchor(fingerprint string) error {
	const q = `DELETE FROM trust_anchors WHERE app_id = $1 AND fingerprint = $2`

	if _, err := s.client.ExecContext(s.ctx, q, s.appID, fingerprint); err != nil {
		return fmt.Errorf("failed to delete trust anchor: %w", err)
	}
	return nil
}

// ListTrustAnchors returns every trust anchor registered for this appID.
func (s *Storage) ListTrustAnchors() ([]types.TrustAnchor, error) {
	const q = `
SELECT fingerprint, label, public_key, registered_at, not_after
FROM trust_anchors
WHERE app_id = $1
ORDER BY fingerprint
`

	rows, err := s.client.QueryContext(s.ctx, q, s.appID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trust anchors: %w", err)
	}
	defer rows.Close()

	out := make([]types.TrustAnchor, 0)
	for rows.Next() {
		var anchor types.TrustAnchor
		if err := rows.Scan(&anchor.Fingerprint, &anchor.Label, &anchor.PublicKey, &anchor.RegisteredAt, &anchor.NotAfter); err != nil {
			return nil, fmt.Errorf("failed to scan trust anchor row: %w", err)
		}
		out = append(out, anchor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

// AppendAuditRecord appends a validation-attempt record to audit_records.
func (s *Storage) AppendAuditRecord(record types.AuditRecord) error {
	const q = `
INSERT INTO audit_records (app_id, fingerprint, kind, outcome, error_kind, chain_depth, checked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

	if _, err := s.client.ExecContext(s.ctx, q,
		s.appID, record.Fingerprint, record.Kind, record.Outcome, record.ErrorKind, record.ChainDepth, record.CheckedAt,
	); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}

// ListAuditRecords returns audit records for a fingerprint, most recent first.
// limit <= 0 returns every matching record.
func (s *Storage) ListAuditRecords(fingerprint string, limit int) ([]types.AuditRecord, error) {
	q := `
SELECT fingerprint, kind, outcome, error_kind, chain_depth, checked_at
FROM audit_records
WHERE app_id = $1 AND fingerprint = $2
ORDER BY checked_at DESC
`
	args := []any{s.appID, fingerprint}

	if limit > 0 {
		q += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.client.QueryContext(s.ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	out := make([]types.AuditRecord, 0)
	for rows.Next() {
		var record types.AuditRecord
		if err := rows.Scan(
			&record.Fingerprint, &record.Kind, &record.Outcome, &record.ErrorKind, &record.ChainDepth, &record.CheckedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record row: %w", err)
		}
		out = append(out, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

// Close releases PostgreSQL database connection resources.
func (s *Storage) Close() error {
	slog.Warn("closing postgres storage")
	return s.client.Close()
}

// ProbeLiveness returns an HTTP handler for Kubernetes liveness probe.
// It checks that PostgreSQL is reachable with a ping.
func (s *Storage) ProbeLiveness() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.client.PingContext(s.ctx); err != nil {
			slog.Warn("liveness: NOT alive", "appID", s.appID, "storage", "postgres", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}

		slog.Debug("liveness: OK", "appID", s.appID, "storage", "postgres")
		w.WriteHeader(http.StatusOK)
	}
}

// ProbeReadiness returns an HTTP handler for Kubernetes readiness probe.
// Readiness mirrors liveness for Postgres: once the connection and migrations
// are up there is no further staleness concept for a trust-anchor store.
func (s *Storage) ProbeReadiness() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.client.PingContext(s.ctx); err != nil {
			slog.Warn("readiness: NOT ready", "appID", s.appID, "storage", "postgres", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}

		slog.Debug("readiness: OK", "appID", s.appID, "storage", "postgres")
		w.WriteHeader(http.StatusOK)
	}
}

// ProbeStartup returns an HTTP handler for Kubernetes startup probe.
// Always returns 200 OK as PostgreSQL storage initialization is handled in New().
func (s *Storage) ProbeStartup() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}
