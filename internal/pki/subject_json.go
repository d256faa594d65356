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

import "encoding/json"

// Subject and Contact both allow arbitrary additional properties that must
// survive a decode/re-encode round trip untouched, because they participate
// in the canonical form a signature covers. UnmarshalJSON peels off the
// known fields into a map and keeps whatever remains as Additional;
// MarshalJSON merges them back in.

func (s Subject) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	if len(s.Additional) > 0 {
		if err := json.Unmarshal(s.Additional, &out); err != nil {
			return nil, err
		}
	}

	displayName, err := json.Marshal(s.DisplayName)
	if err != nil {
		return nil, err
	}
	out["displayName"] = displayName

	contact, err := json.Marshal(s.Contact)
	if err != nil {
		return nil, err
	}
	out["contact"] = contact

	return json.Marshal(out)
}

func (s *Subject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["displayName"]; ok {
		if err := json.Unmarshal(v, &s.DisplayName); err != nil {
			return err
		}
		delete(raw, "displayName")
	}
	if v, ok := raw["contact"]; ok {
		if err := json.Unmarshal(v, &s.Contact); err != nil {
			return err
		}
		delete(raw, "contact")
	}

	remainder, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	s.Additional = remainder
	return nil
}

func (c Contact) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	if len(c.Additional) > 0 {
		if err := json.Unmarshal(c.Additional, &out); err != nil {
			return nil, err
		}
	}

	email, err := json.Marshal(c.Email)
	if err != nil {
		return nil, err
	}
	out["email"] = email

	return json.Marshal(out)
}

func (c *Contact) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["email"]; ok {
		if err := json.Unmarshal(v, &c.Email); err != nil {
			return err
		}
		delete(raw, "email")
	}

	remainder, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	c.Additional = remainder
	return nil
}
