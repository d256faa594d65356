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

// Package canon implements RFC 8785 JSON Canonicalization Scheme (JCS)
// serialization: the unique byte sequence a given JSON value must produce
// so that hashing and signing are reproducible across implementations.
package canon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ErrInvalidNumber is returned when a numeric input cannot be reduced to a
// finite IEEE-754 double (NaN, +/-Infinity, or an unparsable pre-rendered
// number string).
var ErrInvalidNumber = errors.New("canon: number is not finite")

// ErrRawFragmentNotPermitted is returned when the caller supplies an
// already-serialized JSON fragment instead of a value to be canonicalized.
// Raw fragments cannot be verified to conform to JCS without re-parsing
// them, which this package refuses to do implicitly.
var ErrRawFragmentNotPermitted = errors.New("canon: raw JSON fragments are not permitted")

// Canonicalize parses raw as a JSON document and returns its RFC 8785
// canonical byte sequence. raw must be a single, well-formed JSON value.
func Canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CanonicalizeValue canonicalizes a Go value by round-tripping it through
// encoding/json first (so struct tags, MarshalJSON implementations, and map
// ordering are normalized into a plain JSON value) and then applying the
// same rules as Canonicalize.
func CanonicalizeValue(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}
	return Canonicalize(raw)
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		return encodeNumberString(buf, string(value))
	case float64:
		return encodeFloat(buf, value)
	case string:
		writeString(buf, value)
		return nil
	case json.RawMessage:
		return ErrRawFragmentNotPermitted
	case []any:
		return encodeArray(buf, value)
	case map[string]any:
		return encodeObject(buf, value)
	default:
		return fmt.Errorf("canon: unsupported value type %T", v)
	}
}

func encodeArray(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeObject sorts members by their key's UTF-16 code-unit sequence, as
// mandated by RFC 8785 section 3.2.3 — UTF-8 byte order and Unicode
// code-point order both disagree with this for keys containing surrogate
// pairs, so the comparison is done on utf16.Encode of the decoded key.
func encodeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return utf16Less(keys[i], keys[j])
	})

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		if err := encodeValue(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func utf16Less(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	n := len(ua)
	if len(ub) < n {
		n = len(ub)
	}
	for i := 0; i < n; i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

func encodeNumberString(buf *bytes.Buffer, literal string) error {
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return ErrInvalidNumber
	}
	return encodeFloat(buf, f)
}

// encodeFloat formats f the way ECMAScript's Number::toString does: the
// shortest decimal digit string that round-trips to f, laid out as fixed
// notation for exponents in (-6, 21] and scientific notation outside that
// range. This is what RFC 8785 requires all JSON numbers to be reduced to.
func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrInvalidNumber
	}
	if f == 0 {
		buf.WriteByte('0')
		return nil
	}

	neg := f < 0
	digits, n := shortestDigits(math.Abs(f))
	k := len(digits)

	var out string
	switch {
	case k <= n && n <= 21:
		out = digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		out = digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		out = "0." + strings.Repeat("0", -n) + digits
	default:
		mantissa := digits[:1]
		if k > 1 {
			mantissa += "." + digits[1:]
		}
		exp := n - 1
		sign := "+"
		if exp < 0 {
			sign = "-"
			exp = -exp
		}
		out = mantissa + "e" + sign + strconv.Itoa(exp)
	}

	if neg {
		buf.WriteByte('-')
	}
	buf.WriteString(out)
	return nil
}

// shortestDigits returns the shortest decimal digit string s (no sign, no
// leading/trailing zero beyond what's significant) and exponent n such that
// af == 0.s * 10^n, for af > 0. This matches the (s, n, k) notation used by
// the ECMA-262 Number::toString algorithm.
func shortestDigits(af float64) (digits string, n int) {
	formatted := strconv.AppendFloat(nil, af, 'e', -1, 64)
	s := string(formatted)

	eIdx := strings.IndexByte(s, 'e')
	mantissa := strings.Replace(s[:eIdx], ".", "", 1)
	exp, _ := strconv.Atoi(s[eIdx+1:])

	return mantissa, exp + 1
}

// writeString emits s as a quoted JSON string, escaping only the characters
// RFC 8259 section 7 requires: the quote, backslash, the named C0 controls,
// and \u00XX for any other control character. Forward slash is left
// unescaped and non-ASCII bytes pass through untouched, preserving the
// input's UTF-8 encoding exactly.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, c)
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte('"')
}
