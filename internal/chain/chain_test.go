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
package chain

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	"certchain/internal/canon"
	"certchain/internal/cryptoprim"
	"certchain/internal/pki"
	"certchain/internal/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testKeyPair struct {
	public  pki.PublicKey
	private cryptoprim.KeyPair
}

func newTestKeyPair(t *testing.T) testKeyPair {
	t.Helper()
	kp, err := cryptoprim.GenerateKeyPair()
	require.NoError(t, err)
	return testKeyPair{
		public:  pki.PublicKey{Algorithm: pki.EdDSA, Key: pki.HexBytes(kp.PublicKey)},
		private: kp,
	}
}

func mustPeriod(t *testing.T, notBefore, notAfter string) pki.ValidityPeriod {
	t.Helper()
	nb, err := time.Parse(time.RFC3339, notBefore)
	require.NoError(t, err)
	na, err := time.Parse(time.RFC3339, notAfter)
	require.NoError(t, err)
	p, err := pki.NewValidityPeriod(nb, na)
	require.NoError(t, err)
	return p
}

func buildCertificateBody(t *testing.T, key pki.PublicKey, vp pki.ValidityPeriod, perms pki.Permissions, ku pki.KeyUsage) json.RawMessage {
	t.Helper()
	cert := pki.Certificate{
		PublicKey:      key,
		Subject:        pki.Subject{DisplayName: "test subject", Contact: pki.Contact{Email: "a@b.example"}},
		ValidityPeriod: vp,
		Permissions:    perms,
		KeyUsage:       ku,
	}
	raw, err := json.Marshal(cert)
	require.NoError(t, err)
	return raw
}

func selfSign(t *testing.T, body json.RawMessage, key testKeyPair) pki.SignedCertificate {
	t.Helper()
	sig, err := cryptoprim.Sign(body, key.private.PrivateKey)
	require.NoError(t, err)
	return pki.SignedCertificate{
		SchemaID:    pki.SchemaCertificate,
		Certificate: body,
		Signature: pki.Signature[pki.Signer]{
			Algorithm: pki.SignatureAlgorithm{Hash: pki.SHA512, Encryption: pki.EdDSA},
			Value:     sig,
			SignerRef: pki.SelfSignedSigner(),
		},
	}
}

func issuerSign(t *testing.T, body json.RawMessage, issuerKey testKeyPair, issuer pki.SignedCertificate) pki.SignedCertificate {
	t.Helper()
	sig, err := cryptoprim.Sign(body, issuerKey.private.PrivateKey)
	require.NoError(t, err)
	return pki.SignedCertificate{
		SchemaID:    pki.SchemaCertificate,
		Certificate: body,
		Signature: pki.Signature[pki.Signer]{
			Algorithm: pki.SignatureAlgorithm{Hash: pki.SHA512, Encryption: pki.EdDSA},
			Value:     sig,
			SignerRef: pki.IssuerSigner(&issuer),
		},
	}
}

func TestValidateCertificate_HappyPathThreeLevelChain(t *testing.T) {
	rootKey := newTestKeyPair(t)
	intermediateKey := newTestKeyPair(t)
	leafKey := newTestKeyPair(t)

	fullPeriod := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")
	narrowerPeriod := mustPeriod(t, "2023-06-01T00:00:00Z", "2024-06-01T00:00:00Z")
	leafPeriod := mustPeriod(t, "2023-09-01T00:00:00Z", "2024-01-01T00:00:00Z")

	rootBody := buildCertificateBody(t, rootKey.public, fullPeriod, pki.AllPermissions(), pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	intermediateBody := buildCertificateBody(t, intermediateKey.public, narrowerPeriod, pki.AllPermissions(), pki.LimitedKeyUsage(pki.UsageSignCertificate, pki.UsageSignNode))
	intermediate := issuerSign(t, intermediateBody, rootKey, root)

	leafBody := buildCertificateBody(t, leafKey.public, leafPeriod, pki.AllPermissions(), pki.LimitedKeyUsage(pki.UsageSignNode))
	leaf := issuerSign(t, leafBody, intermediateKey, intermediate)

	raw, err := json.Marshal(leaf)
	require.NoError(t, err)

	result, err := ValidateCertificate(raw, nil)
	require.NoError(t, err)
	assert.Len(t, result.CertificateChainFingerprints, 3)
	assert.True(t, result.Permissions.All)
}

func TestValidateCertificate_TimestampOutsideLeafWindowRejected(t *testing.T) {
	rootKey := newTestKeyPair(t)
	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")
	rootBody := buildCertificateBody(t, rootKey.public, period, pki.AllPermissions(), pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	raw, err := json.Marshal(root)
	require.NoError(t, err)

	ts := mustParseTS(t, "2026-01-01T00:00:00Z")
	_, err = ValidateCertificate(raw, &ts)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindExpired, verr.Kind)
}

func mustParseTS(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestValidateCertificate_PermissionsOverGrantRejected(t *testing.T) {
	rootKey := newTestKeyPair(t)
	intermediateKey := newTestKeyPair(t)

	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")

	rootUrls := pki.UrlsOutbound("https://a.example/")
	rootPerms := pki.ObjectPermissions(&rootUrls)
	rootBody := buildCertificateBody(t, rootKey.public, period, rootPerms, pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	childUrls := pki.UrlsOutbound("https://a.example/", "https://b.example/")
	childPerms := pki.ObjectPermissions(&childUrls)
	intermediateBody := buildCertificateBody(t, intermediateKey.public, period, childPerms, pki.AllKeyUsage())
	intermediate := issuerSign(t, intermediateBody, rootKey, root)

	raw, err := json.Marshal(intermediate)
	require.NoError(t, err)

	_, err = ValidateCertificate(raw, nil)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindPermissionsExtended, verr.Kind)
}

func TestValidateCertificate_TamperedBodyFailsSignature(t *testing.T) {
	rootKey := newTestKeyPair(t)
	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")
	rootBody := buildCertificateBody(t, rootKey.public, period, pki.AllPermissions(), pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	// Tamper with the signed sub-tree after signing.
	var tampered map[string]any
	require.NoError(t, json.Unmarshal(root.Certificate, &tampered))
	tampered["subject"].(map[string]any)["displayName"] = "attacker"
	newBody, err := json.Marshal(tampered)
	require.NoError(t, err)
	root.Certificate = newBody

	raw, err := json.Marshal(root)
	require.NoError(t, err)

	_, err = ValidateCertificate(raw, nil)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindInvalidSignature, verr.Kind)
}

func TestValidateCertificate_RejectsWrongSchema(t *testing.T) {
	raw := []byte(`{"$schema":"https://golem.network/schemas/v1/signed-node-descriptor.schema.json","certificate":{},"signature":{}}`)
	_, err := ValidateCertificate(raw, nil)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindUnsupportedSchema, verr.Kind)
}

func TestValidateNodeDescriptor_HappyPath(t *testing.T) {
	rootKey := newTestKeyPair(t)
	leafKey := newTestKeyPair(t)

	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")
	descriptorPeriod := mustPeriod(t, "2023-06-01T00:00:00Z", "2024-06-01T00:00:00Z")

	rootBody := buildCertificateBody(t, rootKey.public, period, pki.AllPermissions(), pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	leafBody := buildCertificateBody(t, leafKey.public, period, pki.AllPermissions(), pki.LimitedKeyUsage(pki.UsageSignNode))
	leaf := issuerSign(t, leafBody, rootKey, root)

	nodeID := make(pki.NodeID, 20)
	for i := range nodeID {
		nodeID[i] = byte(i)
	}
	descriptor := pki.NodeDescriptor{
		NodeID:         nodeID,
		ValidityPeriod: descriptorPeriod,
		Permissions:    pki.AllPermissions(),
	}
	descriptorRaw, err := json.Marshal(descriptor)
	require.NoError(t, err)

	sig, err := cryptoprim.Sign(descriptorRaw, leafKey.private.PrivateKey)
	require.NoError(t, err)

	signedDescriptor := pki.SignedNodeDescriptor{
		SchemaID:       pki.SchemaNodeDescriptor,
		NodeDescriptor: descriptorRaw,
		Signature: pki.Signature[pki.SignedCertificate]{
			Algorithm: pki.SignatureAlgorithm{Hash: pki.SHA512, Encryption: pki.EdDSA},
			Value:     sig,
			SignerRef: leaf,
		},
	}

	raw, err := json.Marshal(signedDescriptor)
	require.NoError(t, err)

	result, err := ValidateNodeDescriptor(raw, nil)
	require.NoError(t, err)
	assert.Len(t, result.CertificateChainFingerprints, 2)
	assert.Equal(t, nodeID, result.NodeID)
}

func TestValidateNodeDescriptor_SignNodeNotPermittedRejected(t *testing.T) {
	rootKey := newTestKeyPair(t)
	leafKey := newTestKeyPair(t)

	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")

	rootBody := buildCertificateBody(t, rootKey.public, period, pki.AllPermissions(), pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	leafBody := buildCertificateBody(t, leafKey.public, period, pki.AllPermissions(), pki.LimitedKeyUsage(pki.UsageSignCertificate))
	leaf := issuerSign(t, leafBody, rootKey, root)

	descriptor := pki.NodeDescriptor{
		NodeID:         make(pki.NodeID, 20),
		ValidityPeriod: period,
		Permissions:    pki.AllPermissions(),
	}
	descriptorRaw, err := json.Marshal(descriptor)
	require.NoError(t, err)

	sig, err := cryptoprim.Sign(descriptorRaw, leafKey.private.PrivateKey)
	require.NoError(t, err)

	signedDescriptor := pki.SignedNodeDescriptor{
		SchemaID:       pki.SchemaNodeDescriptor,
		NodeDescriptor: descriptorRaw,
		Signature: pki.Signature[pki.SignedCertificate]{
			Algorithm: pki.SignatureAlgorithm{Hash: pki.SHA512, Encryption: pki.EdDSA},
			Value:     sig,
			SignerRef: leaf,
		},
	}

	raw, err := json.Marshal(signedDescriptor)
	require.NoError(t, err)

	_, err = ValidateNodeDescriptor(raw, nil)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindNodeSignNotPermitted, verr.Kind)
}

func TestValidateCertificate_CertSignNotPermittedIssuerRejected(t *testing.T) {
	rootKey := newTestKeyPair(t)
	intermediateKey := newTestKeyPair(t)
	leafKey := newTestKeyPair(t)

	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")

	rootBody := buildCertificateBody(t, rootKey.public, period, pki.AllPermissions(), pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	// The intermediate may only sign node descriptors, yet signs a child
	// certificate.
	intermediateBody := buildCertificateBody(t, intermediateKey.public, period, pki.AllPermissions(), pki.LimitedKeyUsage(pki.UsageSignNode))
	intermediate := issuerSign(t, intermediateBody, rootKey, root)

	leafBody := buildCertificateBody(t, leafKey.public, period, pki.AllPermissions(), pki.LimitedKeyUsage(pki.UsageSignNode))
	leaf := issuerSign(t, leafBody, intermediateKey, intermediate)

	raw, err := json.Marshal(leaf)
	require.NoError(t, err)

	_, err = ValidateCertificate(raw, nil)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindCertSignNotPermitted, verr.Kind)
}

func TestValidateCertificate_TamperedSignatureValueRejected(t *testing.T) {
	rootKey := newTestKeyPair(t)
	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")
	rootBody := buildCertificateBody(t, rootKey.public, period, pki.AllPermissions(), pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	root.Signature.Value[17] ^= 0x01

	raw, err := json.Marshal(root)
	require.NoError(t, err)

	_, err = ValidateCertificate(raw, nil)
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.KindInvalidSignature, verr.Kind)
}

func TestValidateCertificate_FingerprintsAreRootFirst(t *testing.T) {
	rootKey := newTestKeyPair(t)
	leafKey := newTestKeyPair(t)

	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")

	rootBody := buildCertificateBody(t, rootKey.public, period, pki.AllPermissions(), pki.AllKeyUsage())
	root := selfSign(t, rootBody, rootKey)

	leafBody := buildCertificateBody(t, leafKey.public, period, pki.AllPermissions(), pki.LimitedKeyUsage(pki.UsageSignNode))
	leaf := issuerSign(t, leafBody, rootKey, root)

	raw, err := json.Marshal(leaf)
	require.NoError(t, err)

	result, err := ValidateCertificate(raw, nil)
	require.NoError(t, err)
	require.Len(t, result.CertificateChainFingerprints, 2)

	rootFingerprint, err := fingerprintOf(rootBody)
	require.NoError(t, err)
	leafFingerprint, err := fingerprintOf(leafBody)
	require.NoError(t, err)

	assert.Equal(t, rootFingerprint, result.CertificateChainFingerprints[0])
	assert.Equal(t, leafFingerprint, result.CertificateChainFingerprints[1])
}

func TestValidateCertificate_OpenPGPSignatureVariant(t *testing.T) {
	rootKey := newTestKeyPair(t)
	period := mustPeriod(t, "2023-01-01T00:00:00Z", "2025-01-01T00:00:00Z")
	rootBody := buildCertificateBody(t, rootKey.public, period, pki.AllPermissions(), pki.AllKeyUsage())

	// An OpenPGP card signs the SHA-512 digest of the canonical form rather
	// than the message itself; the declared signature algorithm tells the
	// verifier to compensate.
	canonical, err := canon.Canonicalize(rootBody)
	require.NoError(t, err)
	digest, err := cryptoprim.Digest(canonical, cryptoprim.SHA512)
	require.NoError(t, err)
	sig := ed25519.Sign(rootKey.private.PrivateKey, digest)

	root := pki.SignedCertificate{
		SchemaID:    pki.SchemaCertificate,
		Certificate: rootBody,
		Signature: pki.Signature[pki.Signer]{
			Algorithm: pki.SignatureAlgorithm{Hash: pki.SHA512, Encryption: pki.EdDSAOpenPGP},
			Value:     sig,
			SignerRef: pki.SelfSignedSigner(),
		},
	}

	raw, err := json.Marshal(root)
	require.NoError(t, err)

	_, err = ValidateCertificate(raw, nil)
	require.NoError(t, err)
}
