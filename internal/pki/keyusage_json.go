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

// KeyUsage is untagged: "all" or an array of usage strings. UnmarshalJSON
// sniffs the leading byte to tell them apart; Go has no native sum type for
// this.
func (k KeyUsage) MarshalJSON() ([]byte, error) {
	if k.All {
		return json.Marshal("all")
	}
	if k.Limited == nil {
		return json.Marshal([]Usage{})
	}
	return json.Marshal(k.Limited)
}

func (k *KeyUsage) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString != "all" {
			return fmt.Errorf("pki: unsupported key usage string %q", asString)
		}
		*k = KeyUsage{All: true}
		return nil
	}

	var usages []Usage
	if err := json.Unmarshal(data, &usages); err != nil {
		return fmt.Errorf("pki: key usage does not conform to schema: %w", err)
	}
	*k = KeyUsage{Limited: usages}
	return nil
}

// Outbound is untagged: the string "unrestricted" or an object holding a
// "urls" array.
func (o Outbound) MarshalJSON() ([]byte, error) {
	if o.Unrestricted {
		return json.Marshal("unrestricted")
	}
	urls := o.Urls
	if urls == nil {
		urls = []string{}
	}
	return json.Marshal(map[string][]string{"urls": urls})
}

func (o *Outbound) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString != "unrestricted" {
			return fmt.Errorf("pki: unsupported outbound string %q", asString)
		}
		*o = Outbound{Unrestricted: true}
		return nil
	}

	var obj struct {
		Urls *[]string `json:"urls"`
	}
	if err := json.Unmarshal(data, &obj); err != nil || obj.Urls == nil {
		return fmt.Errorf("pki: outbound permissions do not conform to schema")
	}
	*o = Outbound{Urls: *obj.Urls}
	return nil
}

// Permissions is untagged: "all" or an object with an optional "outbound"
// field.
func (p Permissions) MarshalJSON() ([]byte, error) {
	if p.All {
		return json.Marshal("all")
	}
	obj := map[string]any{}
	if p.Outbound != nil {
		obj["outbound"] = *p.Outbound
	}
	return json.Marshal(obj)
}

func (p *Permissions) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString != "all" {
			return fmt.Errorf("pki: unsupported permissions string %q", asString)
		}
		*p = Permissions{All: true}
		return nil
	}

	var obj struct {
		Outbound *Outbound `json:"outbound"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("pki: permissions do not conform to schema: %w", err)
	}
	*p = Permissions{Outbound: obj.Outbound}
	return nil
}
