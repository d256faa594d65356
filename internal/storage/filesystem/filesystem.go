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
package filesystem

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"certchain/internal/storage/types"
)

const auditLogFile = "audit.log"

// New creates and initializes a new filesystem-based storage backend.
// It creates the dump directory if it doesn't exist with 0700 permissions.
// Returns an error if directory creation fails.
func New(ctx context.Context, opts ...types.Option) (types.Storage, error) {
	s := new(Storage)

	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(s.dumpDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}

	return s, nil
}

// Storage implements the types.Storage interface using the filesystem for
// persistence. Each trust anchor is stored as its own JSON file named by
// fingerprint, written atomically with a temporary file and rename. Audit
// records are appended to a single newline-delimited JSON log.
type Storage struct {
	appID   string
	dumpDir string
}

// WithAppID sets the application ID for this storage instance.
func (s *Storage) WithAppID(appID string) {
	s.appID = appID
}

// WithDSN is a no-op for filesystem storage as it doesn't use database connections.
func (s *Storage) WithDSN(dsn string) {
	// no-op for this storage
}

// WithDumpDir sets the directory path where JSON files will be stored.
func (s *Storage) WithDumpDir(dumpDir string) {
	s.dumpDir = dumpDir
}

func (s *Storage) WithConnMaxIdleTime(d time.Duration) {}
func (s *Storage) WithConnMaxLifetime(d time.Duration) {}
func (s *Storage) WithMaxIdleConns(n int)              {}
func (s *Storage) WithMaxOpenConns(n int)              {}

// SaveTrustAnchor writes a trust anchor to <dumpDir>/<fingerprint>.json,
// atomically via a temporary file and rename.
func (s *Storage) SaveTrustAnchor(anchor types.TrustAnchor) error {
	if anchor.Fingerprint == "" {
		return fmt.Errorf("trust anchor has empty fingerprint")
	}

	data, err := json.MarshalIndent(anchor, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal trust anchor: %w", err)
	}

	return s.saveFile(anchor.Fingerprint+".json", data)
}

// GetTrustAnchor reads a trust anchor by fingerprint from the dump directory.
func (s *Storage) GetTrustAnchor(fingerprint string) (types.TrustAnchor, bool, error) {
	path := filepath.Join(s.dumpDir, fingerprint+".json")

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.TrustAnchor{}, false, nil
		}
		return types.TrustAnchor{}, false, fmt.Errorf("failed to read trust anchor %q: %w", fingerprint, err)
	}

	var anchor types.TrustAnchor
	if err := json.Unmarshal(raw, &anchor); err != nil {
		return types.TrustAnchor{}, false, fmt.Errorf("failed to unmarshal trust anchor %q: %w", fingerprint, err)
	}

	return anchor, true, nil
}

// DeleteTrustAnchor removes the trust anchor file for fingerprint, if present.
func (s *Storage) DeleteTrustAnchor(fingerprint string) error {
	path := filepath.Join(s.dumpDir, fingerprint+".json")

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete trust anchor %q: %w", fingerprint, err)
	}
	return nil
}

// ListTrustAnchors reads every *.json file in the dump directory except the
// audit log and returns the trust anchors they contain.
func (s *Storage) ListTrustAnchors() ([]types.TrustAnchor, error) {
	entries, err := os.ReadDir(s.dumpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump dir %q: %w", s.dumpDir, err)
	}

	out := make([]types.TrustAnchor, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.dumpDir, e.Name()))
		if err != nil {
			slog.Warn("ListTrustAnchors: read file", "file", e.Name(), "error", err)
			continue
		}

		var anchor types.TrustAnchor
		if err := json.Unmarshal(raw, &anchor); err != nil {
			slog.Warn("ListTrustAnchors: unmarshal file", "file", e.Name(), "error", err)
			continue
		}

		out = append(out, anchor)
	}

	return out, nil
}

// AppendAuditRecord appends one JSON-encoded record to the audit log file.
func (s *Storage) AppendAuditRecord(record types.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dumpDir, auditLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}

// ListAuditRecords scans the audit log for records matching fingerprint,
// returning up to limit of them, most recent first. limit <= 0 means no limit.
func (s *Storage) ListAuditRecords(fingerprint string, limit int) ([]types.AuditRecord, error) {
	f, err := os.Open(filepath.Join(s.dumpDir, auditLogFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []types.AuditRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	all := make([]types.AuditRecord, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record types.AuditRecord
		if err := json.Unmarshal(line, &record); err != nil {
			slog.Warn("ListAuditRecords: unmarshal line", "error", err)
			continue
		}
		if record.Fingerprint == fingerprint {
			all = append(all, record)
		}
	}

	out := make([]types.AuditRecord, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out, nil
}

// Close is a no-op for filesystem storage as there are no connections to close.
func (s *Storage) Close() error {
	return nil
}

// saveFile writes data to a file atomically using a temporary file.
// Steps:
//  1. Creates a temporary file in the dump directory
//  2. Writes data to the temporary file
//  3. Syncs to disk (fsync)
//  4. Renames temporary file to target file (atomic operation)
//
// This ensures the file is never partially written or corrupted.
func (s *Storage) saveFile(file string, data []byte) error {
	tmpFile, err := os.CreateTemp(s.dumpDir, fmt.Sprintf(".%s.tmp-*", file))
	file = filepath.Join(s.dumpDir, file)

	if err != nil {
		return fmt.Errorf("saveFile: create temp file: %w", err)
	}
	defer func() { os.Remove(tmpFile.Name()) }()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("saveFile: write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("saveFile: fsync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("saveFile: close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), file); err != nil {
		return fmt.Errorf("saveFile: rename %s -> %s: %w", tmpFile.Name(), file, err)
	}

	return nil
}

// ProbeLiveness returns an HTTP handler for Kubernetes liveness probe.
// It checks that the dump directory is readable and every *.json file in it
// parses as a valid trust anchor.
func (s *Storage) ProbeLiveness() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		errs := make([]string, 0)

		defer func() {
			if len(errs) > 0 {
				slog.Warn("liveness: NOT alive", "appID", s.appID, "dumpDir", s.dumpDir, "errors", errs)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(strings.Join(errs, "\n")))
				return
			}

			slog.Debug("liveness: OK", "appID", s.appID, "dumpDir", s.dumpDir)
			w.WriteHeader(http.StatusOK)
		}()

		entries, err := os.ReadDir(s.dumpDir)
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to read dump dir %q: %v", s.dumpDir, err))
			return
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}

			path := filepath.Join(s.dumpDir, e.Name())
			raw, err := os.ReadFile(path)
			if err != nil {
				errs = append(errs, fmt.Sprintf("failed to read file %q: %v", path, err))
				continue
			}

			var anchor types.TrustAnchor
			if err := json.Unmarshal(raw, &anchor); err != nil {
				errs = append(errs, fmt.Sprintf("failed to unmarshal file %q: %v", path, err))
			}
		}
	}
}

// ProbeReadiness returns an HTTP handler for Kubernetes readiness probe.
// It checks only that the dump directory exists and is readable: an empty
// trust-anchor set is a valid, if unusual, state.
func (s *Storage) ProbeReadiness() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.ReadDir(s.dumpDir); err != nil {
			slog.Warn("readiness: NOT ready", "appID", s.appID, "dumpDir", s.dumpDir, "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}

		slog.Debug("readiness: OK", "appID", s.appID, "dumpDir", s.dumpDir)
		w.WriteHeader(http.StatusOK)
	}
}

// ProbeStartup returns an HTTP handler for Kubernetes startup probe.
// Always returns 200 OK as filesystem storage requires no initialization time.
func (s *Storage) ProbeStartup() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}
