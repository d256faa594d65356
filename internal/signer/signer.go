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
package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"

	"certchain/internal/canon"
	"certchain/internal/cryptoprim"
	"certchain/internal/pki"
)

// Signer provides cryptographic signing functionality using an Ed25519
// private key. It signs JSON data after RFC 8785 canonicalization, the same
// way a certificate or node descriptor signature is produced and checked.
type Signer struct {
	privateKey ed25519.PrivateKey
}

// NewSigner creates a Signer from a seed file: either a PEM block of type
// "PRIVATE KEY" wrapping the 32-byte Ed25519 seed, or a bare hex-encoded
// seed, whichever the file contains.
func NewSigner(privateKeyPath string) (*Signer, error) {
	raw, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	seed, err := decodeSeed(raw)
	if err != nil {
		return nil, err
	}

	return &Signer{privateKey: ed25519.NewKeyFromSeed(seed)}, nil
}

func decodeSeed(raw []byte) ([]byte, error) {
	if block, _ := pem.Decode(raw); block != nil {
		if block.Type != "PRIVATE KEY" {
			return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
		}
		if len(block.Bytes) != ed25519.SeedSize {
			return nil, fmt.Errorf("private key seed must be %d bytes, got %d", ed25519.SeedSize, len(block.Bytes))
		}
		return block.Bytes, nil
	}

	trimmed := trimTrailingNewline(raw)
	seed, err := hex.DecodeString(string(trimmed))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PEM block containing private key")
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return seed, nil
}

func trimTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return b
}

// PublicKey returns the signer's public key, tagged for EdDSA use.
func (s *Signer) PublicKey() pki.PublicKey {
	pub := s.privateKey.Public().(ed25519.PublicKey)
	return pki.PublicKey{Algorithm: pki.EdDSA, Key: pki.HexBytes(pub)}
}

// Sign canonicalizes value and signs it, returning the algorithm the
// resulting signature was produced under (always {SHA-512, EdDSA} for this
// signer) and the 64-byte raw Ed25519 signature.
func (s *Signer) Sign(value []byte) (pki.SignatureAlgorithm, []byte, error) {
	sig, err := cryptoprim.Sign(value, s.privateKey)
	if err != nil {
		return pki.SignatureAlgorithm{}, nil, fmt.Errorf("failed to sign JSON: %w", err)
	}
	return pki.SignatureAlgorithm{Hash: pki.SHA512, Encryption: pki.EdDSA}, sig, nil
}

// External models a signer that lives outside the process — an OpenPGP
// smartcard or an HSM — which exposes its public key and will sign an
// already-hashed digest, but never hands over key material.
type External interface {
	PublicKey() pki.PublicKey
	Sign(preHashed []byte) ([]byte, error)
}

// OpenPGPAdapter wraps an External signer and produces EdDSAOpenPGP-tagged
// signatures by pre-hashing the canonical form with SHA-512 before
// delegating, matching the OpenPGP smartcard convention of signing a
// message digest rather than the message itself.
type OpenPGPAdapter struct {
	card External
}

func NewOpenPGPAdapter(card External) *OpenPGPAdapter {
	return &OpenPGPAdapter{card: card}
}

func (a *OpenPGPAdapter) PublicKey() pki.PublicKey {
	key := a.card.PublicKey()
	key.Algorithm = pki.EdDSAOpenPGP
	return key
}

func (a *OpenPGPAdapter) Sign(value []byte) (pki.SignatureAlgorithm, []byte, error) {
	canonical, err := canon.Canonicalize(value)
	if err != nil {
		return pki.SignatureAlgorithm{}, nil, err
	}

	digest, err := cryptoprim.Digest(canonical, cryptoprim.SHA512)
	if err != nil {
		return pki.SignatureAlgorithm{}, nil, err
	}

	sig, err := a.card.Sign(digest)
	if err != nil {
		return pki.SignatureAlgorithm{}, nil, fmt.Errorf("external signer failed: %w", err)
	}

	return pki.SignatureAlgorithm{Hash: pki.SHA512, Encryption: pki.EdDSAOpenPGP}, sig, nil
}
