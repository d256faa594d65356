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
	"fmt"

	"github.com/spf13/cobra"
)

// selfSignCertificateCmd represents the self-sign-certificate command
var selfSignCertificateCmd = &cobra.Command{
	Use:   "self-sign-certificate <certificate-path> <signing-key-path>",
	Short: "Create a self-signed certificate",
	Long: "Sign a certificate with the key associated with its own public key. " +
		"The signed certificate is saved to the same path with extension set to .signed.json.",
	Args:         cobra.ExactArgs(2),
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
		if fileType != fileTypeCertificate {
			return fmt.Errorf("%s does not point to a certificate", args[0])
		}

		body, ok := doc[fileType.signedProperty()]
		if !ok {
			return fmt.Errorf("missing certificate property in %s", args[0])
		}

		algorithm, value, err := signBody(body, args[1])
		if err != nil {
			return err
		}

		if err := attachSignature(doc, algorithm, value, "self"); err != nil {
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
	rootCmd.AddCommand(selfSignCertificateCmd)
}
