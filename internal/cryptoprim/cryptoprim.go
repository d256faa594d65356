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

// Package cryptoprim implements the hashing, keypair, signing, and
// verification primitives the certificate chain is built on: SHA-2/SHA-3
// digests, Ed25519 keygen/sign/verify, and the OpenPGP-smartcard verify
// variant that pre-hashes with SHA-512 before checking the signature.
package cryptoprim

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"

	"certchain/internal/canon"

	"golang.org/x/crypto/sha3"
)

// HashAlgorithm names a digest function accepted for fingerprinting and
// signature-algorithm tagging.
type HashAlgorithm string

const (
	SHA224   HashAlgorithm = "sha224"
	SHA256   HashAlgorithm = "sha256"
	SHA384   HashAlgorithm = "sha384"
	SHA512   HashAlgorithm = "sha512"
	SHA3_224 HashAlgorithm = "sha3-224"
	SHA3_256 HashAlgorithm = "sha3-256"
	SHA3_384 HashAlgorithm = "sha3-384"
	SHA3_512 HashAlgorithm = "sha3-512"
)

// EncryptionAlgorithm names a signature scheme.
type EncryptionAlgorithm string

const (
	EdDSA        EncryptionAlgorithm = "EdDSA"
	EdDSAOpenPGP EncryptionAlgorithm = "EdDSAOpenPGP"
)

var (
	ErrInvalidSignatureValue = errors.New("cryptoprim: invalid signature value")
	ErrInvalidPublicKey      = errors.New("cryptoprim: invalid public key")
	ErrInvalidSignature      = errors.New("cryptoprim: invalid signature")
)

// Digest hashes data with the named algorithm.
func Digest(data []byte, algo HashAlgorithm) ([]byte, error) {
	switch algo {
	case SHA224:
		sum := sha256.Sum224(data)
		return sum[:], nil
	case SHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case SHA384:
		sum := sha512.Sum384(data)
		return sum[:], nil
	case SHA512, "":
		sum := sha512.Sum512(data)
		return sum[:], nil
	case SHA3_224:
		sum := sha3.Sum224(data)
		return sum[:], nil
	case SHA3_256:
		sum := sha3.Sum256(data)
		return sum[:], nil
	case SHA3_384:
		sum := sha3.Sum384(data)
		return sum[:], nil
	case SHA3_512:
		sum := sha3.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("cryptoprim: unknown hash algorithm %q", algo)
	}
}

// Fingerprint returns SHA-512 of the RFC 8785 canonical form of raw.
func Fingerprint(raw []byte) ([]byte, error) {
	canonical, err := canon.Canonicalize(raw)
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: canonicalize for fingerprint: %w", err)
	}
	return Digest(canonical, SHA512)
}

// KeyPair holds a freshly generated Ed25519 keypair.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateKeyPair draws a new Ed25519 keypair from the OS CSPRNG.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("cryptoprim: generate key pair: %w", err)
	}
	return KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// Sign canonicalizes raw and signs it with privateKey, returning the raw
// 64-byte Ed25519 signature. Ed25519 is deterministic, so the same input
// always yields the same signature.
func Sign(raw []byte, privateKey ed25519.PrivateKey) ([]byte, error) {
	canonical, err := canon.Canonicalize(raw)
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: canonicalize for sign: %w", err)
	}
	return ed25519.Sign(privateKey, canonical), nil
}

// Verify checks signature against raw's canonical form using publicKey,
// per the encryption tag. EdDSA verifies directly over the canonical bytes;
// EdDSAOpenPGP verifies over SHA-512 of the canonical bytes, matching
// OpenPGP smartcards that sign the message digest rather than the message.
func Verify(raw []byte, signature []byte, publicKey ed25519.PublicKey, encryption EncryptionAlgorithm) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return ErrInvalidPublicKey
	}
	if len(signature) != ed25519.SignatureSize {
		return ErrInvalidSignatureValue
	}

	canonical, err := canon.Canonicalize(raw)
	if err != nil {
		return fmt.Errorf("cryptoprim: canonicalize for verify: %w", err)
	}

	message := canonical
	if encryption == EdDSAOpenPGP {
		message, err = Digest(canonical, SHA512)
		if err != nil {
			return err
		}
	}

	if !ed25519.Verify(publicKey, message, signature) {
		return ErrInvalidSignature
	}
	return nil
}
