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
package pki

import (
	"encoding/json"
	"fmt"
)

const selfSignedMarker = "self"

// Signer is untagged: the bare string "self", or a SignedCertificate object
// naming the issuer.
func (s Signer) MarshalJSON() ([]byte, error) {
	if s.SelfSigned {
		return json.Marshal(selfSignedMarker)
	}
	if s.Issuer == nil {
		return nil, fmt.Errorf("pki: signer is neither self-signed nor has an issuer")
	}
	return json.Marshal(s.Issuer)
}

func (s *Signer) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString != selfSignedMarker {
			return fmt.Errorf("pki: unsupported signer string %q", asString)
		}
		*s = Signer{SelfSigned: true}
		return nil
	}

	var issuer SignedCertificate
	if err := json.Unmarshal(data, &issuer); err != nil {
		return fmt.Errorf("pki: signer does not conform to schema: %w", err)
	}
	*s = Signer{Issuer: &issuer}
	return nil
}
