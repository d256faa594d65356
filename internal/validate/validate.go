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

// Package validate implements the pure delegation-subset and authorization
// checks a certificate chain must satisfy at every parent-to-child hop.
package validate

import (
	"fmt"
	"time"

	"certchain/internal/pki"
)

// Kind identifies which of the closed set of validation failures occurred,
// so callers (HTTP handlers, CLI) can map it to a status code or exit code
// without string-matching an error message.
type Kind string

const (
	KindExpired                    Kind = "expired"
	KindNotValidYet                Kind = "not_valid_yet"
	KindValidityPeriodExtended     Kind = "validity_period_extended"
	KindPermissionsExtended        Kind = "permissions_extended"
	KindKeyUsageExtended           Kind = "key_usage_extended"
	KindCertSignNotPermitted       Kind = "cert_sign_not_permitted"
	KindNodeSignNotPermitted       Kind = "node_sign_not_permitted"
	KindInvalidSignature           Kind = "invalid_signature"
	KindInvalidSignatureValue      Kind = "invalid_signature_value"
	KindInvalidPublicKey           Kind = "invalid_public_key"
	KindInvalidJSON                Kind = "invalid_json"
	KindJCSSerializationError      Kind = "jcs_serialization_error"
	KindJSONDoesNotConformToSchema Kind = "json_does_not_conform_to_schema"
	KindUnsupportedSchema          Kind = "unsupported_schema"
)

// Error is the closed error type every validation failure in this package
// and internal/chain is reported as.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidateValidityPeriod checks that parent's window contains child's:
// parent.NotBefore <= child.NotBefore && child.NotAfter <= parent.NotAfter.
// Both bounds are inclusive.
func ValidateValidityPeriod(parent, child pki.ValidityPeriod) error {
	if parent.NotBefore.After(child.NotBefore) || child.NotAfter.After(parent.NotAfter) {
		return newError(KindValidityPeriodExtended, "validity period extended: parent=%+v child=%+v", parent, child)
	}
	return nil
}

// ValidateTimestamp checks that ts falls within period, inclusive on both
// ends.
func ValidateTimestamp(period pki.ValidityPeriod, ts time.Time) error {
	if period.NotBefore.After(ts) {
		return newError(KindNotValidYet, "not valid yet: will be valid from %s", period.NotBefore)
	}
	if ts.After(period.NotAfter) {
		return newError(KindExpired, "expired: was valid to %s", period.NotAfter)
	}
	return nil
}

// ValidatePermissions checks that parent's permissions are a superset of
// child's.
func ValidatePermissions(parent, child pki.Permissions) error {
	if parent.All {
		return nil
	}
	if child.All {
		return newError(KindPermissionsExtended, "permissions extended: parent=%+v child=%+v", parent, child)
	}
	if err := validateOutbound(parent.Outbound, child.Outbound); err != nil {
		return newError(KindPermissionsExtended, "permissions extended: parent=%+v child=%+v", parent, child)
	}
	return nil
}

func validateOutbound(parent, child *pki.Outbound) error {
	if child == nil {
		return nil
	}
	if parent == nil {
		return fmt.Errorf("outbound extended")
	}
	return validateURLPermissions(*parent, *child)
}

func validateURLPermissions(parent, child pki.Outbound) error {
	if parent.Unrestricted {
		return nil
	}
	if child.Unrestricted {
		return fmt.Errorf("unrestricted outbound extended beyond restricted parent")
	}
	allowed := make(map[string]struct{}, len(parent.Urls))
	for _, u := range parent.Urls {
		allowed[u] = struct{}{}
	}
	for _, u := range child.Urls {
		if _, ok := allowed[u]; !ok {
			return fmt.Errorf("url %q not permitted by parent", u)
		}
	}
	return nil
}

// ValidateKeyUsage checks that parent's key usage is a superset of child's,
// and — when parent is meant to have signed child as an issuer of
// certificates — that parent carries SignCertificate.
func ValidateKeyUsage(parent, child pki.KeyUsage) error {
	if parent.All {
		return nil
	}
	if child.All {
		return newError(KindKeyUsageExtended, "key usage extended: parent=%+v child=%+v", parent, child)
	}
	allowed := make(map[pki.Usage]struct{}, len(parent.Limited))
	for _, u := range parent.Limited {
		allowed[u] = struct{}{}
	}
	for _, u := range child.Limited {
		if _, ok := allowed[u]; !ok {
			return newError(KindKeyUsageExtended, "key usage extended: parent=%+v child=%+v", parent, child)
		}
	}
	if !parent.Contains(pki.UsageSignCertificate) {
		return newError(KindCertSignNotPermitted, "certificate signing not permitted")
	}
	return nil
}

// ValidateSignNode checks that a signing certificate's key usage authorizes
// it to sign node descriptors.
func ValidateSignNode(signerKeyUsage pki.KeyUsage) error {
	if signerKeyUsage.Contains(pki.UsageSignNode) {
		return nil
	}
	return newError(KindNodeSignNotPermitted, "certificate cannot sign node descriptor")
}
