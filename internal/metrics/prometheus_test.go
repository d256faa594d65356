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
package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCollector(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Logf("Expected panic during registration conflict: %v", r)
		}
	}()

	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector() returned nil")
	}

	prometheus.Unregister(c)
}

func TestCollector_IncError(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		incCount  int
		wantValue float64
	}{
		{name: "increment once", kind: "signature-invalid", incCount: 1, wantValue: 1.0},
		{name: "increment multiple times", kind: "chain-too-deep", incCount: 5, wantValue: 5.0},
		{name: "increment zero times", kind: "expired", incCount: 0, wantValue: 0.0},
		{name: "increment same kind multiple times", kind: "untrusted-root", incCount: 10, wantValue: 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(Collector)

			for i := 0; i < tt.incCount; i++ {
				c.IncError(tt.kind)
			}

			val, ok := c.errors.Load(tt.kind)
			if tt.incCount > 0 && !ok {
				t.Error("IncError() did not store value")
				return
			}

			if tt.incCount > 0 {
				if got := val.(float64); got != tt.wantValue {
					t.Errorf("IncError() value = %v, want %v", got, tt.wantValue)
				}
			}
		})
	}
}

func TestCollector_ClearError(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		initValue float64
	}{
		{name: "clear zero value", kind: "expired", initValue: 0.0},
		{name: "clear non-zero value", kind: "chain-too-deep", initValue: 5.0},
		{name: "clear large value", kind: "signature-invalid", initValue: 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(Collector)

			c.errors.Store(tt.kind, tt.initValue)
			c.ClearError(tt.kind)

			val, ok := c.errors.Load(tt.kind)
			if !ok {
				t.Error("ClearError() removed the entry instead of setting to 0")
				return
			}

			if got := val.(float64); got != 0.0 {
				t.Errorf("ClearError() value = %v, want 0.0", got)
			}
		})
	}
}

func TestCollector_IncValidation(t *testing.T) {
	c := new(Collector)

	c.IncValidation("accepted")
	c.IncValidation("accepted")
	c.IncValidation("rejected")

	accepted, ok := c.validation.Load("accepted")
	if !ok || accepted.(float64) != 2.0 {
		t.Errorf("IncValidation(accepted) = %v, want 2.0", accepted)
	}

	rejected, ok := c.validation.Load("rejected")
	if !ok || rejected.(float64) != 1.0 {
		t.Errorf("IncValidation(rejected) = %v, want 1.0", rejected)
	}
}

func TestCollector_ClearValidation(t *testing.T) {
	c := new(Collector)

	c.validation.Store("accepted", 5.0)
	c.ClearValidation("accepted")

	val, ok := c.validation.Load("accepted")
	if !ok || val.(float64) != 0.0 {
		t.Errorf("ClearValidation() value = %v, want 0.0", val)
	}
}

func TestCollector_SetExpire(t *testing.T) {
	tests := []struct {
		name        string
		fingerprint string
		expire      float64
	}{
		{name: "set positive expire", fingerprint: "fp1", expire: 3600.0},
		{name: "set zero expire", fingerprint: "fp2", expire: 0.0},
		{name: "set large expire value", fingerprint: "fp3", expire: 86400.0},
		{name: "set negative expire", fingerprint: "fp4", expire: -100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(Collector)

			c.SetExpire(tt.fingerprint, tt.expire)

			val, ok := c.expires.Load(tt.fingerprint)
			if !ok {
				t.Error("SetExpire() did not store value")
				return
			}

			if got := val.(float64); got != tt.expire {
				t.Errorf("SetExpire() value = %v, want %v", got, tt.expire)
			}
		})
	}
}

func TestCollector_ClearExpire(t *testing.T) {
	tests := []struct {
		name        string
		fingerprint string
		expire      float64
	}{
		{name: "clear existing expire", fingerprint: "fp1", expire: 3600.0},
		{name: "clear non-existing expire", fingerprint: "fp2", expire: 1800.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(Collector)

			c.expires.Store(tt.fingerprint, tt.expire)
			c.ClearExpire(tt.fingerprint)

			_, ok := c.expires.Load(tt.fingerprint)
			if ok {
				t.Error("ClearExpire() did not delete the entry")
			}
		})
	}
}

func TestCollector_Collect(t *testing.T) {
	c := new(Collector)

	c.IncError("expired")
	c.IncError("expired")
	c.IncError("chain-too-deep")
	c.IncValidation("accepted")
	c.IncValidation("rejected")
	c.SetExpire("fp1", 3600.0)
	c.SetExpire("fp2", 1800.0)

	ch := make(chan prometheus.Metric, 10)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var metricCount int
	for range ch {
		metricCount++
	}

	if metricCount == 0 {
		t.Error("Collect() did not send any metrics")
	}
}

func TestCollector_Describe(t *testing.T) {
	c := new(Collector)

	ch := make(chan *prometheus.Desc, 10)
	go func() {
		c.Describe(ch)
		close(ch)
	}()

	count := 0
	for range ch {
		count++
	}

	if count != 0 {
		t.Errorf("Describe() sent %d descriptions, want 0", count)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := new(Collector)

	const numGoroutines = 100
	const numOperations = 100

	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				c.IncError("expired")
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				c.IncValidation("accepted")
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				c.SetExpire("fp1", float64(j))
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				c.ClearError("expired")
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				c.ClearExpire("fp1")
			}
		}()
	}

	wg.Wait()
}

func TestCollector_ErrorsAfterCollect(t *testing.T) {
	c := new(Collector)

	c.IncError("expired")
	c.IncError("expired")
	c.IncError("expired")

	val, _ := c.errors.Load("expired")
	if got := val.(float64); got != 3.0 {
		t.Errorf("Before collect: error count = %v, want 3.0", got)
	}

	ch := make(chan prometheus.Metric, 10)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	for range ch {
	}

	val, _ = c.errors.Load("expired")
	if got := val.(float64); got != 0.0 {
		t.Errorf("After collect: error count = %v, want 0.0", got)
	}
}

func BenchmarkCollector_IncError(b *testing.B) {
	c := new(Collector)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.IncError("expired")
	}
}

func BenchmarkCollector_SetExpire(b *testing.B) {
	c := new(Collector)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SetExpire("fp1", 3600.0)
	}
}

func BenchmarkCollector_Collect(b *testing.B) {
	c := new(Collector)

	c.IncError("expired")
	c.IncError("chain-too-deep")
	c.SetExpire("fp1", 3600.0)
	c.SetExpire("fp2", 1800.0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ch := make(chan prometheus.Metric, 10)
		go func() {
			c.Collect(ch)
			close(ch)
		}()
		for range ch {
		}
	}
}

func BenchmarkCollector_ConcurrentOps(b *testing.B) {
	c := new(Collector)

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			switch i % 4 {
			case 0:
				c.IncError("expired")
			case 1:
				c.SetExpire("fp1", 3600.0)
			case 2:
				c.ClearError("expired")
			case 3:
				c.ClearExpire("fp1")
			}
			i++
		}
	})
}
