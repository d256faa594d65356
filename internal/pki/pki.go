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

// Package pki defines the certificate and node-descriptor data model: the
// typed shapes that get canonicalized, signed, and verified, including the
// polymorphic Permissions/KeyUsage/Signer types Go has no native union for.
package pki

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// SchemaCertificate and SchemaNodeDescriptor are the $schema discriminators
// carried by every signed document, letting a verifier reject a document fed
// into the wrong validation entry point before it touches any crypto.
const (
	SchemaCertificate    = "https://golem.network/schemas/v1/signed-certificate.schema.json"
	SchemaNodeDescriptor = "https://golem.network/schemas/v1/signed-node-descriptor.schema.json"
)

// HashAlgorithm and EncryptionAlgorithm mirror cryptoprim's tags so pki can
// be imported without pulling cryptoprim's key-handling code into callers
// that only need to look at a document's declared algorithm.
type HashAlgorithm string
type EncryptionAlgorithm string

const (
	SHA224  HashAlgorithm = "sha224"
	SHA256  HashAlgorithm = "sha256"
	SHA384  HashAlgorithm = "sha384"
	SHA512  HashAlgorithm = "sha512"
	SHA3224 HashAlgorithm = "sha3-224"
	SHA3256 HashAlgorithm = "sha3-256"
	SHA3384 HashAlgorithm = "sha3-384"
	SHA3512 HashAlgorithm = "sha3-512"

	EdDSA        EncryptionAlgorithm = "EdDSA"
	EdDSAOpenPGP EncryptionAlgorithm = "EdDSAOpenPGP"
)

// SignatureAlgorithm names the hash+signature-scheme pair a Signature was
// produced with.
type SignatureAlgorithm struct {
	Hash       HashAlgorithm       `json:"hash"`
	Encryption EncryptionAlgorithm `json:"encryption"`
}

// HexBytes round-trips through JSON as lowercase hex instead of base64,
// the wire format key and signature material is carried in.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("pki: invalid hex bytes: %w", err)
	}
	*h = decoded
	return nil
}

// PublicKey and PrivateKey carry 32-byte Ed25519 key material tagged with
// the encryption algorithm it is meant to be used under, plus an optional
// curve-naming parameters object preserved verbatim.
type PublicKey struct {
	Algorithm  EncryptionAlgorithm `json:"algorithm"`
	Key        HexBytes            `json:"key"`
	Parameters json.RawMessage     `json:"parameters,omitempty"`
}

type PrivateKey struct {
	Algorithm  EncryptionAlgorithm `json:"algorithm"`
	Key        HexBytes            `json:"key"`
	Parameters json.RawMessage     `json:"parameters,omitempty"`
}

// ValidityPeriod is an inclusive UTC time window. NotBefore must not be
// after NotAfter; construction-time enforcement lives in NewValidityPeriod
// rather than in UnmarshalJSON, so a document that violates it can still be
// decoded and rejected with a diagnosable error instead of a parse failure.
type ValidityPeriod struct {
	NotBefore time.Time `json:"notBefore"`
	NotAfter  time.Time `json:"notAfter"`
}

func NewValidityPeriod(notBefore, notAfter time.Time) (ValidityPeriod, error) {
	if notBefore.After(notAfter) {
		return ValidityPeriod{}, fmt.Errorf("pki: validity period notBefore %s is after notAfter %s", notBefore, notAfter)
	}
	return ValidityPeriod{NotBefore: notBefore, NotAfter: notAfter}, nil
}

// Usage names one capability a certificate's key usage can be limited to.
type Usage string

const (
	UsageSignCertificate Usage = "SignCertificate"
	UsageSignManifest    Usage = "SignManifest"
	UsageSignNode        Usage = "SignNode"
)

// KeyUsage is polymorphic: either the bare string "all" or an array of
// Usage values. See keyusage_json.go for the shape-sniffing marshaler.
type KeyUsage struct {
	All     bool
	Limited []Usage
}

func AllKeyUsage() KeyUsage { return KeyUsage{All: true} }

func LimitedKeyUsage(usages ...Usage) KeyUsage {
	return KeyUsage{Limited: usages}
}

func (k KeyUsage) Contains(u Usage) bool {
	if k.All {
		return true
	}
	for _, have := range k.Limited {
		if have == u {
			return true
		}
	}
	return false
}

// Outbound is polymorphic: the bare string "unrestricted" or an object
// holding a "urls" array. See keyusage_json.go.
type Outbound struct {
	Unrestricted bool
	Urls         []string
}

func UnrestrictedOutbound() Outbound { return Outbound{Unrestricted: true} }

func UrlsOutbound(urls ...string) Outbound { return Outbound{Urls: urls} }

// Permissions is polymorphic: the bare string "all" or a structured object
// carrying an optional Outbound restriction. See keyusage_json.go.
type Permissions struct {
	All      bool
	Outbound *Outbound
}

func AllPermissions() Permissions { return Permissions{All: true} }

func ObjectPermissions(outbound *Outbound) Permissions {
	return Permissions{Outbound: outbound}
}

// Subject identifies the entity a certificate speaks for. Additional holds
// every field besides DisplayName and Contact verbatim, because unknown
// properties participate in the canonical form that gets signed and must
// never be dropped on a round trip.
type Subject struct {
	DisplayName string          `json:"displayName"`
	Contact     Contact         `json:"contact"`
	Additional  json.RawMessage `json:"-"`
}

type Contact struct {
	Email      string          `json:"email"`
	Additional json.RawMessage `json:"-"`
}

// Certificate is the signed body: the part of a SignedCertificate whose
// canonical form the signature covers.
type Certificate struct {
	PublicKey      PublicKey      `json:"publicKey"`
	Subject        Subject        `json:"subject"`
	ValidityPeriod ValidityPeriod `json:"validityPeriod"`
	Permissions    Permissions    `json:"permissions"`
	KeyUsage       KeyUsage       `json:"keyUsage"`
}

// Signer is polymorphic: either SelfSigned (serializes as the bare string
// "self") or Certificate, holding the issuing SignedCertificate recursively.
// See signer_json.go.
type Signer struct {
	SelfSigned bool
	Issuer     *SignedCertificate
}

func SelfSignedSigner() Signer { return Signer{SelfSigned: true} }

func IssuerSigner(issuer *SignedCertificate) Signer {
	return Signer{Issuer: issuer}
}

// Signature pairs the algorithm and raw signature bytes with whoever/
// whatever produced them — a Signer for certificates, a SignedCertificate
// for node descriptors (which may never be self-signed).
type Signature[T any] struct {
	Algorithm SignatureAlgorithm `json:"algorithm"`
	Value     HexBytes           `json:"value"`
	SignerRef T                  `json:"signer"`
}

// SignedCertificate is the outer wrapper around a Certificate body. The
// Certificate field is kept as an un-re-parsed json.RawMessage: the
// signature covers this exact sub-tree's canonical bytes, and rebuilding it
// from typed fields during verification would silently drop unknown
// properties and break the signature.
type SignedCertificate struct {
	SchemaID    string            `json:"$schema"`
	Certificate json.RawMessage   `json:"certificate"`
	Signature   Signature[Signer] `json:"signature"`
}

// NodeID is a 20-byte node identifier, serialized as 0x-prefixed hex.
type NodeID []byte

func (n NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(n))
}

func (n *NodeID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = trimHexPrefix(s)
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("pki: invalid node id: %w", err)
	}
	*n = decoded
	return nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		return s[2:]
	}
	return s
}

// NodeDescriptor is the signed body of a node announcement.
type NodeDescriptor struct {
	NodeID         NodeID         `json:"nodeId"`
	ValidityPeriod ValidityPeriod `json:"validityPeriod"`
	Permissions    Permissions    `json:"permissions"`
}

// SignedNodeDescriptor is the outer wrapper around a NodeDescriptor body.
// As with SignedCertificate, NodeDescriptor is kept as raw JSON so the
// signed sub-tree is never reconstructed from typed fields.
type SignedNodeDescriptor struct {
	SchemaID       string                       `json:"$schema"`
	NodeDescriptor json.RawMessage              `json:"nodeDescriptor"`
	Signature      Signature[SignedCertificate] `json:"signature"`
}
