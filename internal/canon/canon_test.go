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
package canon

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFloat_GoldenValues(t *testing.T) {
	tests := []struct {
		name string
		bits uint64
		want string
	}{
		{"zero", 0x0000000000000000, "0"},
		{"negative_zero", 0x8000000000000000, "0"},
		{"smallest_subnormal", 0x0000000000000001, "5e-324"},
		{"large_scientific", 0x44b52d02c7e14af6, "1e+23"},
		{"small_fixed", 0x3eb0c6f7a0b5ed8d, "0.000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := math.Float64frombits(tt.bits)
			var buf bytes.Buffer
			err := encodeFloat(&buf, f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestEncodeFloat_RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		var buf bytes.Buffer
		err := encodeFloat(&buf, f)
		assert.ErrorIs(t, err, ErrInvalidNumber)
	}
}

func TestCanonicalize_Determinism(t *testing.T) {
	input := []byte(`{"b":2,"a":1,"c":[3,2,1]}`)

	first, err := Canonicalize(input)
	require.NoError(t, err)

	second, err := Canonicalize(input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCanonicalize_KeyOrderInvariance(t *testing.T) {
	a, err := Canonicalize([]byte(`{"b":2,"a":1}`))
	require.NoError(t, err)

	b, err := Canonicalize([]byte(`{"a":1,"b":2}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCanonicalize_Utf16KeySort(t *testing.T) {
	// "￿" sorts after an ASCII key under UTF-16 code-unit order, but a
	// surrogate pair (outside the BMP) sorts *before* "￿" because its
	// leading surrogate (0xD800-0xDBFF) is numerically smaller.
	input := []byte(`{"￿":1,"a":2,"😀":3}`)

	out, err := Canonicalize(input)
	require.NoError(t, err)

	assert.Equal(t, `{"a":2,"😀":3,"￿":1}`, string(out))
}

func TestCanonicalize_StringEscaping(t *testing.T) {
	out, err := Canonicalize([]byte(`"a\/b\nc\td\"e"`))
	require.NoError(t, err)
	assert.Equal(t, "\"a/b\\nc\\td\\\"e\"", string(out))
}

func TestCanonicalize_Arrays(t *testing.T) {
	out, err := Canonicalize([]byte(`[3, 2, 1]`))
	require.NoError(t, err)
	assert.Equal(t, "[3,2,1]", string(out))
}

func TestCanonicalize_NullBool(t *testing.T) {
	out, err := Canonicalize([]byte(`[null,true,false]`))
	require.NoError(t, err)
	assert.Equal(t, "[null,true,false]", string(out))
}
