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

// Package chain walks a certificate's delegation chain (or a node
// descriptor's signing certificate) and checks that every parent-to-child
// hop narrows validity, permissions, and key usage, verifying each
// signature against the correct issuer key along the way.
package chain

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"time"

	"certchain/internal/cryptoprim"
	"certchain/internal/pki"
	"certchain/internal/validate"
)

// ValidatedCertificate is what a caller gets back from ValidateCertificate:
// the facts a verified certificate chain asserts about its leaf.
type ValidatedCertificate struct {
	CertificateChainFingerprints []string
	Permissions                  pki.Permissions
	KeyUsage                     pki.KeyUsage
	ValidityPeriod               pki.ValidityPeriod
	Subject                      pki.Subject
}

// ValidatedNodeDescriptor is what a caller gets back from
// ValidateNodeDescriptor.
type ValidatedNodeDescriptor struct {
	CertificateChainFingerprints []string
	Permissions                  pki.Permissions
	NodeID                       pki.NodeID
}

// ValidateCertificate parses raw as a SignedCertificate and walks its
// delegation chain. timestamp, if non-nil, is checked against the leaf
// certificate's validity period only — parent certificates in the chain are
// always validated with no timestamp, since their validity at signing time
// is already implied by the validity-period nesting invariant.
func ValidateCertificate(raw json.RawMessage, timestamp *time.Time) (ValidatedCertificate, error) {
	if err := checkSchema(raw, pki.SchemaCertificate, "certificate"); err != nil {
		return ValidatedCertificate{}, err
	}

	var signed pki.SignedCertificate
	if err := json.Unmarshal(raw, &signed); err != nil {
		return ValidatedCertificate{}, &validate.Error{
			Kind:    validate.KindJSONDoesNotConformToSchema,
			Message: "signed certificate does not conform to schema: " + err.Error(),
		}
	}

	validated, err := validateSignedCertificate(&signed, timestamp)
	if err != nil {
		return ValidatedCertificate{}, err
	}

	reverse(validated.CertificateChainFingerprints)
	return validated, nil
}

// ValidateNodeDescriptor parses raw as a SignedNodeDescriptor, validates the
// signing certificate's chain (with no timestamp — only the descriptor
// itself is timestamp-checked), then checks the descriptor's own signature,
// permissions, and validity against what that chain grants.
func ValidateNodeDescriptor(raw json.RawMessage, timestamp *time.Time) (ValidatedNodeDescriptor, error) {
	if err := checkSchema(raw, pki.SchemaNodeDescriptor, "node descriptor"); err != nil {
		return ValidatedNodeDescriptor{}, err
	}

	var signed pki.SignedNodeDescriptor
	if err := json.Unmarshal(raw, &signed); err != nil {
		return ValidatedNodeDescriptor{}, &validate.Error{
			Kind:    validate.KindJSONDoesNotConformToSchema,
			Message: "signed node descriptor does not conform to schema: " + err.Error(),
		}
	}

	var descriptor pki.NodeDescriptor
	if err := json.Unmarshal(signed.NodeDescriptor, &descriptor); err != nil {
		return ValidatedNodeDescriptor{}, &validate.Error{
			Kind:    validate.KindJSONDoesNotConformToSchema,
			Message: "node descriptor does not conform to schema: " + err.Error(),
		}
	}

	signingCertificate := signed.Signature.SignerRef
	validatedCertificate, err := validateSignedCertificate(&signingCertificate, nil)
	if err != nil {
		return ValidatedNodeDescriptor{}, err
	}

	var leaf pki.Certificate
	if err := json.Unmarshal(signingCertificate.Certificate, &leaf); err != nil {
		return ValidatedNodeDescriptor{}, &validate.Error{
			Kind:    validate.KindJSONDoesNotConformToSchema,
			Message: "leaf certificate does not conform to schema: " + err.Error(),
		}
	}

	if err := verifySignatureValue(signed.NodeDescriptor, signed.Signature.Value, signed.Signature.Algorithm.Encryption, leaf.PublicKey); err != nil {
		return ValidatedNodeDescriptor{}, err
	}

	if err := validate.ValidatePermissions(validatedCertificate.Permissions, descriptor.Permissions); err != nil {
		return ValidatedNodeDescriptor{}, err
	}
	if err := validate.ValidateSignNode(validatedCertificate.KeyUsage); err != nil {
		return ValidatedNodeDescriptor{}, err
	}
	if err := validate.ValidateValidityPeriod(validatedCertificate.ValidityPeriod, descriptor.ValidityPeriod); err != nil {
		return ValidatedNodeDescriptor{}, err
	}
	if timestamp != nil {
		if err := validate.ValidateTimestamp(descriptor.ValidityPeriod, *timestamp); err != nil {
			return ValidatedNodeDescriptor{}, err
		}
	}

	fingerprints := validatedCertificate.CertificateChainFingerprints
	reverse(fingerprints)

	return ValidatedNodeDescriptor{
		CertificateChainFingerprints: fingerprints,
		Permissions:                  descriptor.Permissions,
		NodeID:                       descriptor.NodeID,
	}, nil
}

// validateSignedCertificate is the recursive chain walker. It verifies sc's
// own signature against the issuer's public key (sc's own key when
// self-signed, otherwise the parent's), recurses into the parent with no
// timestamp, then checks that sc narrows the parent's validity period,
// permissions, and key usage. Fingerprints accumulate leaf-first; the two
// public entry points reverse the slice once on the way out.
func validateSignedCertificate(sc *pki.SignedCertificate, timestamp *time.Time) (ValidatedCertificate, error) {
	var parent ValidatedCertificate

	if sc.Signature.SignerRef.SelfSigned {
		var self pki.Certificate
		if err := json.Unmarshal(sc.Certificate, &self); err != nil {
			return ValidatedCertificate{}, &validate.Error{
				Kind:    validate.KindJSONDoesNotConformToSchema,
				Message: "certificate does not conform to schema: " + err.Error(),
			}
		}
		if err := verifySignature(sc.Certificate, sc.Signature, self.PublicKey); err != nil {
			return ValidatedCertificate{}, err
		}
		parent = ValidatedCertificate{
			CertificateChainFingerprints: nil,
			Permissions:                  self.Permissions,
			KeyUsage:                     self.KeyUsage,
			ValidityPeriod:               self.ValidityPeriod,
			Subject:                      self.Subject,
		}
	} else {
		signedParent := sc.Signature.SignerRef.Issuer
		var issuerCert pki.Certificate
		if err := json.Unmarshal(signedParent.Certificate, &issuerCert); err != nil {
			return ValidatedCertificate{}, &validate.Error{
				Kind:    validate.KindJSONDoesNotConformToSchema,
				Message: "issuer certificate does not conform to schema: " + err.Error(),
			}
		}
		if err := verifySignature(sc.Certificate, sc.Signature, issuerCert.PublicKey); err != nil {
			return ValidatedCertificate{}, err
		}
		var err error
		parent, err = validateSignedCertificate(signedParent, nil)
		if err != nil {
			return ValidatedCertificate{}, err
		}
	}

	var certificate pki.Certificate
	if err := json.Unmarshal(sc.Certificate, &certificate); err != nil {
		return ValidatedCertificate{}, &validate.Error{
			Kind:    validate.KindJSONDoesNotConformToSchema,
			Message: "certificate does not conform to schema: " + err.Error(),
		}
	}

	if err := validate.ValidatePermissions(parent.Permissions, certificate.Permissions); err != nil {
		return ValidatedCertificate{}, err
	}
	if err := validate.ValidateKeyUsage(parent.KeyUsage, certificate.KeyUsage); err != nil {
		return ValidatedCertificate{}, err
	}
	if err := validate.ValidateValidityPeriod(parent.ValidityPeriod, certificate.ValidityPeriod); err != nil {
		return ValidatedCertificate{}, err
	}
	if timestamp != nil {
		if err := validate.ValidateTimestamp(certificate.ValidityPeriod, *timestamp); err != nil {
			return ValidatedCertificate{}, err
		}
	}

	fingerprint, err := fingerprintOf(sc.Certificate)
	if err != nil {
		return ValidatedCertificate{}, err
	}

	fingerprints := append([]string{fingerprint}, parent.CertificateChainFingerprints...)

	return ValidatedCertificate{
		CertificateChainFingerprints: fingerprints,
		Permissions:                  certificate.Permissions,
		KeyUsage:                     certificate.KeyUsage,
		ValidityPeriod:               certificate.ValidityPeriod,
		Subject:                      certificate.Subject,
	}, nil
}

func fingerprintOf(body json.RawMessage) (string, error) {
	sum, err := cryptoprim.Fingerprint(body)
	if err != nil {
		return "", &validate.Error{Kind: validate.KindJCSSerializationError, Message: err.Error()}
	}
	return hex.EncodeToString(sum), nil
}

func verifySignature(body json.RawMessage, signature pki.Signature[pki.Signer], key pki.PublicKey) error {
	return verifySignatureValue(body, signature.Value, signature.Algorithm.Encryption, key)
}

// verifySignatureValue verifies value over body's canonical form, selecting
// the plain or OpenPGP pre-hashed variant from the signature's declared
// encryption algorithm, not from the key's tag.
func verifySignatureValue(body json.RawMessage, value pki.HexBytes, encryption pki.EncryptionAlgorithm, key pki.PublicKey) error {
	if len(key.Key) != ed25519.PublicKeySize {
		return &validate.Error{Kind: validate.KindInvalidPublicKey, Message: "invalid public key"}
	}

	if err := cryptoprim.Verify(body, value, ed25519.PublicKey(key.Key), cryptoprim.EncryptionAlgorithm(encryption)); err != nil {
		switch err {
		case cryptoprim.ErrInvalidPublicKey:
			return &validate.Error{Kind: validate.KindInvalidPublicKey, Message: err.Error()}
		case cryptoprim.ErrInvalidSignatureValue:
			return &validate.Error{Kind: validate.KindInvalidSignatureValue, Message: err.Error()}
		default:
			return &validate.Error{Kind: validate.KindInvalidSignature, Message: err.Error()}
		}
	}
	return nil
}

func checkSchema(raw json.RawMessage, want, structureName string) error {
	var probe struct {
		SchemaID string `json:"$schema"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return &validate.Error{Kind: validate.KindInvalidJSON, Message: err.Error()}
	}
	if probe.SchemaID == "" {
		return &validate.Error{
			Kind:    validate.KindJSONDoesNotConformToSchema,
			Message: "missing $schema property in " + structureName,
		}
	}
	if probe.SchemaID != want {
		return &validate.Error{
			Kind:    validate.KindUnsupportedSchema,
			Message: "unsupported schema " + probe.SchemaID + " for " + structureName,
		}
	}
	return nil
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
