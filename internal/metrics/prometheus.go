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

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is a Prometheus collector that tracks certificate-chain
// validation outcomes and trust-anchor expiry. It maintains per-kind error
// counters, per-outcome validation counters, and a gauge of seconds until
// each registered trust anchor's notAfter. Implements prometheus.Collector
// for custom metrics collection.
type Collector struct {
	errors     sync.Map
	validation sync.Map
	expires    sync.Map
}

// NewCollector creates and registers a new Collector instance with Prometheus.
// Panics if registration with Prometheus fails.
func NewCollector() *Collector {
	c := new(Collector)
	prometheus.MustRegister(c)
	return c
}

// Describe implements prometheus.Collector interface.
// Returns an empty description as metrics are dynamically generated during collection.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector interface.
// Gathers and sends all validation metrics to Prometheus:
// - pki_validation_errors: count of rejected validations per ErrorKind (gauge, cleared after collection)
// - pki_validation_total: count of validations per outcome (gauge, cleared after collection)
// - pki_trust_anchor_expire: seconds until a registered trust anchor's notAfter (negative once expired)
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.errors.Range(func(k, v any) bool {
		kind := k.(string)
		val := v.(float64)

		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(
				"pki_validation_errors",
				"Number of rejected chain validations by error kind",
				[]string{"kind"},
				nil,
			),
			prometheus.GaugeValue,
			val,
			kind,
		)

		c.ClearError(kind)
		return true
	})

	c.validation.Range(func(k, v any) bool {
		outcome := k.(string)
		val := v.(float64)

		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(
				"pki_validation_total",
				"Number of chain validations by outcome",
				[]string{"outcome"},
				nil,
			),
			prometheus.GaugeValue,
			val,
			outcome,
		)

		c.ClearValidation(outcome)
		return true
	})

	c.expires.Range(func(k, v any) bool {
		fingerprint := k.(string)
		expire := v.(float64)

		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(
				"pki_trust_anchor_expire",
				"Seconds until a trust anchor's notAfter, negative once expired",
				[]string{"fingerprint"},
				nil,
			),
			prometheus.GaugeValue,
			expire,
			fingerprint,
		)
		return true
	})
}

// IncError increments the rejection counter for a specific ErrorKind.
func (c *Collector) IncError(kind string) {
	val, _ := c.errors.LoadOrStore(kind, 0.0)
	c.errors.Store(kind, val.(float64)+1)
}

// ClearError resets the rejection counter for a specific ErrorKind to zero.
// Automatically called after metrics collection to prevent accumulation.
func (c *Collector) ClearError(kind string) {
	c.errors.Store(kind, 0.0)
}

// IncValidation increments the validation counter for a specific outcome
// ("accepted" or "rejected").
func (c *Collector) IncValidation(outcome string) {
	val, _ := c.validation.LoadOrStore(outcome, 0.0)
	c.validation.Store(outcome, val.(float64)+1)
}

// ClearValidation resets the validation counter for a specific outcome to zero.
// Automatically called after metrics collection to prevent accumulation.
func (c *Collector) ClearValidation(outcome string) {
	c.validation.Store(outcome, 0.0)
}

// SetExpire updates the trust-anchor expiry gauge for a specific fingerprint.
// The expire value represents seconds until the anchor's notAfter.
func (c *Collector) SetExpire(fingerprint string, expire float64) {
	c.expires.Store(fingerprint, expire)
}

// ClearExpire removes the expiry gauge for a specific fingerprint.
// Used when a trust anchor is deregistered from monitoring.
func (c *Collector) ClearExpire(fingerprint string) {
	c.expires.Delete(fingerprint)
}
