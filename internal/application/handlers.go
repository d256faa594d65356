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
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"certchain/internal/chain"
	"certchain/internal/storage/types"
	"certchain/internal/validate"
)

// errorStatus maps a validate.Kind to the HTTP status the service shell
// reports it as: 400 for malformed input or schema errors, 422 for
// signature and delegation failures (there is no authentication concept
// here, so no 401/403), 500 for anything else (storage/infrastructure
// faults, which never carry a validate.Kind at all).
func errorStatus(kind validate.Kind) int {
	switch kind {
	case validate.KindInvalidJSON,
		validate.KindJCSSerializationError,
		validate.KindJSONDoesNotConformToSchema,
		validate.KindUnsupportedSchema:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

type verifyResponse struct {
	CertificateChainFingerprints []string `json:"certificateChainFingerprints"`
	Permissions                  any      `json:"permissions"`
	KeyUsage                     any      `json:"keyUsage,omitempty"`
	ValidityPeriod               any      `json:"validityPeriod,omitempty"`
	NodeID                       any      `json:"nodeId,omitempty"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// parseTimestamp reads the optional ?timestamp= query parameter. An empty
// value or "now" means "use the current time"; anything else must be an
// RFC 3339 timestamp.
func parseTimestamp(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("timestamp")
	if raw == "" || raw == "now" {
		now := time.Now().UTC()
		return &now, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// rootFingerprint returns the trust anchor this chain terminates at: the
// chain.Validate* functions return fingerprints root-first, so the root is
// the first entry.
func rootFingerprint(fingerprints []string) string {
	if len(fingerprints) == 0 {
		return ""
	}
	return fingerprints[0]
}

// checkTrustAnchor looks up fingerprint in the trust anchor store and
// returns a validate.Error if it is not registered.
func (a *App) checkTrustAnchor(fingerprint string) error {
	anchor, ok, err := a.storage.GetTrustAnchor(fingerprint)
	if err != nil {
		return err
	}
	if !ok {
		return &validate.Error{Kind: validate.KindCertSignNotPermitted, Message: "root certificate " + fingerprint + " is not a registered trust anchor"}
	}
	if anchor.NotAfter.Before(time.Now()) {
		return &validate.Error{Kind: validate.KindExpired, Message: "trust anchor " + fingerprint + " has expired"}
	}
	return nil
}

// auditAndCount records an audit record and bumps the metrics collector for
// one validation attempt.
func (a *App) auditAndCount(kind, fingerprint string, chainDepth int, verifyErr error) {
	outcome := types.AuditOutcomeAccepted
	errKind := ""

	if verifyErr != nil {
		outcome = types.AuditOutcomeRejected
		var ve *validate.Error
		if errors.As(verifyErr, &ve) {
			errKind = string(ve.Kind)
		}
	}

	record := types.AuditRecord{
		Fingerprint: fingerprint,
		Kind:        kind,
		Outcome:     outcome,
		ErrorKind:   errKind,
		CheckedAt:   time.Now().UTC(),
		ChainDepth:  chainDepth,
	}

	if err := a.storage.AppendAuditRecord(record); err != nil {
		slog.Warn("failed to append audit record", "error", err, "fingerprint", fingerprint)
	}

	if a.collector == nil {
		return
	}
	if verifyErr != nil {
		a.collector.IncValidation(string(types.AuditOutcomeRejected))
		if errKind != "" {
			a.collector.IncError(errKind)
		}
	} else {
		a.collector.IncValidation(string(types.AuditOutcomeAccepted))
	}
}

// writeError renders a validation failure as a structured JSON error body,
// logs it at warn with the fingerprint and error kind, and records an audit
// entry against that fingerprint.
func (a *App) writeError(w http.ResponseWriter, kind string, fingerprint string, chainDepth int, err error) {
	var ve *validate.Error
	status := http.StatusInternalServerError
	body := errorResponse{Message: err.Error()}

	if errors.As(err, &ve) {
		status = errorStatus(ve.Kind)
		body.Kind = string(ve.Kind)
	}

	slog.Warn("validation failed", "kind", kind, "fingerprint", fingerprint, "errorKind", body.Kind, "error", err.Error())
	a.auditAndCount(kind, fingerprint, chainDepth, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// handleVerifyCertificate handles POST /v1/certificates/verify: it parses
// the request body as a signed certificate, walks its delegation chain, and
// checks that the chain terminates at a registered trust anchor.
func (a *App) handleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	timestamp, err := parseTimestamp(r)
	if err != nil {
		http.Error(w, "invalid timestamp: "+err.Error(), http.StatusBadRequest)
		return
	}

	validated, err := chain.ValidateCertificate(body, timestamp)
	if err != nil {
		a.writeError(w, "certificate", "", 0, err)
		return
	}

	root := rootFingerprint(validated.CertificateChainFingerprints)
	if err := a.checkTrustAnchor(root); err != nil {
		a.writeError(w, "certificate", root, len(validated.CertificateChainFingerprints), err)
		return
	}

	a.auditAndCount("certificate", root, len(validated.CertificateChainFingerprints), nil)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(verifyResponse{
		CertificateChainFingerprints: validated.CertificateChainFingerprints,
		Permissions:                  validated.Permissions,
		KeyUsage:                     validated.KeyUsage,
		ValidityPeriod:               validated.ValidityPeriod,
	})
}

// handleVerifyNodeDescriptor handles POST /v1/node-descriptors/verify: it
// parses the request body as a signed node descriptor, validates its
// signing certificate's chain and its own signature/permissions/validity
// against that chain, and checks that the chain terminates at a registered
// trust anchor.
func (a *App) handleVerifyNodeDescriptor(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	timestamp, err := parseTimestamp(r)
	if err != nil {
		http.Error(w, "invalid timestamp: "+err.Error(), http.StatusBadRequest)
		return
	}

	validated, err := chain.ValidateNodeDescriptor(body, timestamp)
	if err != nil {
		a.writeError(w, "node_descriptor", "", 0, err)
		return
	}

	root := rootFingerprint(validated.CertificateChainFingerprints)
	if err := a.checkTrustAnchor(root); err != nil {
		a.writeError(w, "node_descriptor", root, len(validated.CertificateChainFingerprints), err)
		return
	}

	a.auditAndCount("node_descriptor", root, len(validated.CertificateChainFingerprints), nil)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(verifyResponse{
		CertificateChainFingerprints: validated.CertificateChainFingerprints,
		Permissions:                  validated.Permissions,
		NodeID:                       validated.NodeID,
	})
}

type trustAnchorRequest struct {
	Fingerprint string `json:"fingerprint"`
	Label       string `json:"label,omitempty"`
	PublicKey   string `json:"publicKey"`
	NotAfter    string `json:"notAfter"`
}

// handleRegisterTrustAnchor handles POST /v1/trust-anchors: an admin-facing
// endpoint that registers a new trust anchor in storage and hands it to the
// root monitor so its expiry starts being tracked immediately.
func (a *App) handleRegisterTrustAnchor(w http.ResponseWriter, r *http.Request) {
	var req trustAnchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Fingerprint == "" || req.PublicKey == "" {
		http.Error(w, "fingerprint and publicKey are required", http.StatusBadRequest)
		return
	}

	notAfter, err := time.Parse(time.RFC3339, req.NotAfter)
	if err != nil {
		http.Error(w, "invalid notAfter: "+err.Error(), http.StatusBadRequest)
		return
	}

	anchor := types.TrustAnchor{
		Fingerprint:  req.Fingerprint,
		Label:        req.Label,
		PublicKey:    req.PublicKey,
		RegisteredAt: time.Now().UTC(),
		NotAfter:     notAfter,
	}

	if err := a.storage.SaveTrustAnchor(anchor); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if a.rootMonitor != nil {
		a.rootMonitor.Track(anchor)
	}

	slog.Info("registered trust anchor", "fingerprint", anchor.Fingerprint, "label", anchor.Label)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(anchor)
}
