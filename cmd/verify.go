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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"certchain/internal/chain"
	"certchain/internal/pki"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <signed-file-path> [timestamp]",
	Short: "Verify the signature and delegation constraints of a signed document",
	Long: "Verify a signed certificate or node descriptor. The optional timestamp is an " +
		"RFC 3339 value (ex: 2020-01-01T13:42:33Z) to verify validity at; 'now' refers to " +
		"the current time.",
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		fileType, err := determineFileType(probe)
		if err != nil {
			return err
		}

		var timestamp *time.Time
		if len(args) == 2 {
			if timestamp, err = parseTimestampArg(args[1]); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()

		if fileType == fileTypeNodeDescriptor {
			validated, err := chain.ValidateNodeDescriptor(raw, timestamp)
			if err != nil {
				color.New(color.FgRed).Fprintln(out, "rejected:", err.Error())
				return err
			}

			color.New(color.FgGreen).Fprintln(out, "accepted")
			printChain(out, validated.CertificateChainFingerprints)
			fmt.Fprintln(out, "node id: 0x"+hex.EncodeToString(validated.NodeID))
			printPermissions(out, validated.Permissions)
			return nil
		}

		validated, err := chain.ValidateCertificate(raw, timestamp)
		if err != nil {
			color.New(color.FgRed).Fprintln(out, "rejected:", err.Error())
			return err
		}

		color.New(color.FgGreen).Fprintln(out, "accepted")
		printChain(out, validated.CertificateChainFingerprints)
		fmt.Fprintln(out, "subject:", validated.Subject.DisplayName)
		fmt.Fprintf(out, "valid: %s .. %s\n",
			validated.ValidityPeriod.NotBefore.Format(time.RFC3339),
			validated.ValidityPeriod.NotAfter.Format(time.RFC3339),
		)
		printPermissions(out, validated.Permissions)
		return nil
	},
}

func printChain(out io.Writer, fingerprints []string) {
	fmt.Fprintln(out, "certificate chain (root first):")
	for _, fingerprint := range fingerprints {
		fmt.Fprintln(out, "  "+fingerprint)
	}
}

func printPermissions(out io.Writer, permissions pki.Permissions) {
	rendered, err := json.Marshal(permissions)
	if err != nil {
		return
	}
	fmt.Fprintln(out, "permissions:", string(rendered))
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
