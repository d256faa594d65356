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
package types

import (
	"net/http"
	"time"
)

// TrustAnchor is a root certificate this deployment has chosen to trust,
// keyed by the fingerprint of its canonical form.
type TrustAnchor struct {
	Fingerprint  string    `json:"fingerprint"`
	Label        string    `json:"label,omitempty"`
	PublicKey    string    `json:"publicKey"`
	RegisteredAt time.Time `json:"registeredAt"`
	NotAfter     time.Time `json:"notAfter,omitempty"`
}

// AuditOutcome records whether a validation attempt against this store
// succeeded or why it failed.
type AuditOutcome string

const (
	AuditOutcomeAccepted AuditOutcome = "accepted"
	AuditOutcomeRejected AuditOutcome = "rejected"
)

// AuditRecord is one entry in the append-only log of validation attempts
// this deployment has performed, whether the chain was ultimately trusted.
type AuditRecord struct {
	Fingerprint string       `json:"fingerprint"`
	Kind        string       `json:"kind"`
	Outcome     AuditOutcome `json:"outcome"`
	ErrorKind   string       `json:"errorKind,omitempty"`
	CheckedAt   time.Time    `json:"checkedAt"`
	ChainDepth  int          `json:"chainDepth"`
}

// StorageType defines the type of storage backend to use.
type StorageType string

const (
	// StorageFS represents file system-based storage
	StorageFS StorageType = "fs"
	// StorageMemory represents in-memory ephemeral storage
	StorageMemory StorageType = "memory"
	// StorageRedis represents Redis-based storage
	StorageRedis StorageType = "redis"
	// StoragePostgres represents PostgreSQL database storage
	StoragePostgres StorageType = "postgres"
)

// Storage defines the interface for trust-anchor and audit-log storage
// backends. It provides methods for persistence, lookup, health checks,
// and configuration.
type Storage interface {
	// Close releases storage resources and closes connections
	Close() error
	// ListTrustAnchors returns every trust anchor currently registered
	ListTrustAnchors() ([]TrustAnchor, error)
	// GetTrustAnchor looks up a trust anchor by fingerprint
	GetTrustAnchor(fingerprint string) (TrustAnchor, bool, error)
	// SaveTrustAnchor registers or replaces a trust anchor
	SaveTrustAnchor(TrustAnchor) error
	// DeleteTrustAnchor removes a trust anchor by fingerprint
	DeleteTrustAnchor(fingerprint string) error
	// AppendAuditRecord appends one record to the audit log
	AppendAuditRecord(AuditRecord) error
	// ListAuditRecords returns audit records for a fingerprint, most recent first
	ListAuditRecords(fingerprint string, limit int) ([]AuditRecord, error)
	// ProbeLiveness returns an HTTP handler for liveness probe
	ProbeLiveness() func(w http.ResponseWriter, r *http.Request)
	// ProbeReadiness returns an HTTP handler for readiness probe
	ProbeReadiness() func(w http.ResponseWriter, r *http.Request)
	// ProbeStartup returns an HTTP handler for startup probe
	ProbeStartup() func(w http.ResponseWriter, r *http.Request)
	// WithAppID sets the application ID for the storage instance
	WithAppID(string)
	// WithDSN sets the data source name (connection string) for the storage
	WithDSN(string)
	// WithDumpDir sets the directory path for file dumps
	WithDumpDir(string)
	// WithConnMaxIdleTime sets the maximum amount of time a connection may be idle
	WithConnMaxIdleTime(time.Duration)
	// WithConnMaxLifetime sets the maximum amount of time a connection may be reused
	WithConnMaxLifetime(time.Duration)
	// WithMaxIdleConns sets the maximum number of connections in the idle connection pool
	WithMaxIdleConns(int)
	// WithMaxOpenConns sets the maximum number of open connections to the database
	WithMaxOpenConns(int)
}

// Option is a functional option type for configuring Storage implementations.
type Option func(Storage)

// WithAppID returns an option that sets the application ID for the storage instance.
func WithAppID(appID string) Option {
	return func(s Storage) {
		s.WithAppID(appID)
	}
}

// WithDSN returns an option that sets the data source name (connection string) for the storage.
func WithDSN(dsn string) Option {
	return func(s Storage) {
		s.WithDSN(dsn)
	}
}

// WithDumpDir returns an option that sets the directory path for file-based storage dumps.
func WithDumpDir(dir string) Option {
	return func(s Storage) {
		s.WithDumpDir(dir)
	}
}

// WithConnMaxIdleTime returns an option that sets the maximum amount of time a connection may be idle.
func WithConnMaxIdleTime(d time.Duration) Option {
	return func(s Storage) {
		s.WithConnMaxIdleTime(d)
	}
}

// WithConnMaxLifetime returns an option that sets the maximum amount of time a connection may be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(s Storage) {
		s.WithConnMaxLifetime(d)
	}
}

// WithMaxIdleConns returns an option that sets the maximum number of connections in the idle connection pool.
func WithMaxIdleConns(n int) Option {
	return func(s Storage) {
		s.WithMaxIdleConns(n)
	}
}

// WithMaxOpenConns returns an option that sets the maximum number of open connections to the database.
func WithMaxOpenConns(n int) Option {
	return func(s Storage) {
		s.WithMaxOpenConns(n)
	}
}
