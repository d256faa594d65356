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
	"encoding/json"

	"github.com/spf13/cobra"

	"certchain/internal/cryptoprim"
	"certchain/internal/pki"
)

var ed25519Parameters = json.RawMessage(`{"scheme":"Ed25519"}`)

// createKeyPairCmd represents the create-key-pair command
var createKeyPairCmd = &cobra.Command{
	Use:   "create-key-pair <key-pair-path>",
	Short: "Create a new Ed25519 key pair",
	Long: "Create a new Ed25519 key pair. The public key is saved with extension " +
		"set to .pub.json, the signing key is saved with extension .key.json.",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		pair, err := cryptoprim.GenerateKeyPair()
		if err != nil {
			return err
		}

		public := pki.PublicKey{
			Algorithm:  pki.EdDSA,
			Key:        pki.HexBytes(pair.PublicKey),
			Parameters: ed25519Parameters,
		}
		private := pki.PrivateKey{
			Algorithm:  pki.EdDSA,
			Key:        pki.HexBytes(pair.PrivateKey.Seed()),
			Parameters: ed25519Parameters,
		}

		if err := saveJSONToFile(withExtension(args[0], "pub.json"), public); err != nil {
			return err
		}
		return saveJSONToFile(withExtension(args[0], "key.json"), private)
	},
}

func init() {
	rootCmd.AddCommand(createKeyPairCmd)
}
