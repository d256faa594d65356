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
	"os"
	"path/filepath"
	"strings"
	"time"

	"certchain/internal/pki"
)

// fileType tells certificates and node descriptors apart by their $schema
// discriminator, and knows which top-level property holds the signed body.
type fileType int

const (
	fileTypeCertificate fileType = iota
	fileTypeNodeDescriptor
)

func (f fileType) signedProperty() string {
	if f == fileTypeNodeDescriptor {
		return "nodeDescriptor"
	}
	return "certificate"
}

func determineFileType(doc map[string]json.RawMessage) (fileType, error) {
	rawSchema, ok := doc["$schema"]
	if !ok {
		return 0, fmt.Errorf("unknown json structure, missing $schema property")
	}

	var schema string
	if err := json.Unmarshal(rawSchema, &schema); err != nil {
		return 0, fmt.Errorf("unknown json structure: %w", err)
	}

	switch schema {
	case pki.SchemaCertificate:
		return fileTypeCertificate, nil
	case pki.SchemaNodeDescriptor:
		return fileTypeNodeDescriptor, nil
	default:
		return 0, fmt.Errorf("unknown json structure %s", schema)
	}
}

// loadJSONDocument reads path and splits its top-level members, keeping each
// value as raw JSON so signed sub-trees are never re-parsed.
func loadJSONDocument(path string) (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func loadPrivateKey(path string) (pki.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return pki.PrivateKey{}, err
	}

	var key pki.PrivateKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return pki.PrivateKey{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(key.Key) != 32 {
		return pki.PrivateKey{}, fmt.Errorf("%s: signing key must be 32 bytes, got %d", path, len(key.Key))
	}
	return key, nil
}

// saveJSONToFile writes v pretty-printed with a trailing newline.
func saveJSONToFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// withExtension replaces path's extension with ext, so "cert.json" becomes
// "cert.signed.json" for ext "signed.json" and "key" becomes "key.pub.json"
// for ext "pub.json".
func withExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

func saveSignedJSON(path string, v any) error {
	return saveJSONToFile(withExtension(path, "signed.json"), v)
}

func parseTimestampArg(arg string) (*time.Time, error) {
	if arg == "now" {
		now := time.Now().UTC()
		return &now, nil
	}
	ts, err := time.Parse(time.RFC3339, arg)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", arg, err)
	}
	return &ts, nil
}
