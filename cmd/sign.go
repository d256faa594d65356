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
package cmd

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"certchain/internal/chain"
	"certchain/internal/cryptoprim"
	"certchain/internal/pki"
)

// signBody signs a document body with the Ed25519 key stored at keyPath,
// returning the algorithm the signature was produced under and the raw
// 64-byte signature.
func signBody(body json.RawMessage, keyPath string) (pki.SignatureAlgorithm, []byte, error) {
	key, err := loadPrivateKey(keyPath)
	if err != nil {
		return pki.SignatureAlgorithm{}, nil, err
	}

	privateKey := ed25519.NewKeyFromSeed(key.Key)
	sig, err := cryptoprim.Sign(body, privateKey)
	if err != nil {
		return pki.SignatureAlgorithm{}, nil, err
	}

	return pki.SignatureAlgorithm{Hash: pki.SHA512, Encryption: pki.EdDSA}, sig, nil
}

// attachSignature sets doc's signature property. signer is either the
// literal "self" or the raw JSON of the issuing signed certificate.
func attachSignature(doc map[string]json.RawMessage, algorithm pki.SignatureAlgorithm, value []byte, signer any) error {
	raw, err := json.Marshal(struct {
		Algorithm pki.SignatureAlgorithm `json:"algorithm"`
		Value     pki.HexBytes           `json:"value"`
		Signer    any                    `json:"signer"`
	}{algorithm, value, signer})
	if err != nil {
		return err
	}

	doc["signature"] = raw
	return nil
}

// revalidate runs the assembled signed document back through the chain
// validator before it is written anywhere: nothing signed is emitted
// without round-tripping through verification.
func revalidate(doc map[string]json.RawMessage, fileType fileType) ([]byte, error) {
	assembled, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	if fileType == fileTypeNodeDescriptor {
		_, err = chain.ValidateNodeDescriptor(assembled, nil)
	} else {
		_, err = chain.ValidateCertificate(assembled, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("signed document failed verification: %w", err)
	}
	return assembled, nil
}

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:   "sign <input-file-path> <certificate-path> <signing-key-path>",
	Short: "Sign a certificate or node descriptor",
	Long: "Sign a certificate or node descriptor with the given signing certificate. " +
		"The signed document is saved to the input path with extension set to .signed.json.",
	Args:         cobra.ExactArgs(3),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadJSONDocument(args[0])
		if err != nil {
			return err
		}

		fileType, err := determineFileType(doc)
		if err != nil {
			return err
		}

		body, ok := doc[fileType.signedProperty()]
		if !ok {
			return fmt.Errorf("missing %s property in %s", fileType.signedProperty(), args[0])
		}

		issuer, err := loadJSONDocument(args[1])
		if err != nil {
			return err
		}
		if issuerType, err := determineFileType(issuer); err != nil {
			return err
		} else if issuerType != fileTypeCertificate {
			return fmt.Errorf("%s does not point to a signing certificate", args[1])
		}

		issuerRaw, err := json.Marshal(issuer)
		if err != nil {
			return err
		}

		algorithm, value, err := signBody(body, args[2])
		if err != nil {
			return err
		}

		if err := attachSignature(doc, algorithm, value, json.RawMessage(issuerRaw)); err != nil {
			return err
		}

		assembled, err := revalidate(doc, fileType)
		if err != nil {
			return err
		}

		return saveSignedJSON(args[0], json.RawMessage(assembled))
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
}
